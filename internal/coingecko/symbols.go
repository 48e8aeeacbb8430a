package coingecko

import (
	"sort"
	"strings"
)

// symbolIDs maps common ticker symbols to CoinGecko API ids.
// Symbols outside this map need an explicit crypto_id in the config.
var symbolIDs = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"LTC":  "litecoin",
	"HIVE": "hive",
	"HBD":  "hive_dollar",
	"BNB":  "binancecoin",
	"SOL":  "solana",
	"ADA":  "cardano",
	"DOGE": "dogecoin",
	"XRP":  "ripple",
	"DOT":  "polkadot",
}

// LookupID resolves a ticker symbol to its CoinGecko id.
func LookupID(symbol string) (string, bool) {
	id, ok := symbolIDs[strings.ToUpper(symbol)]
	return id, ok
}

// KnownSymbols returns the symbols with built-in id mappings, sorted.
func KnownSymbols() []string {
	syms := make([]string, 0, len(symbolIDs))
	for s := range symbolIDs {
		syms = append(syms, s)
	}
	sort.Strings(syms)
	return syms
}
