package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/thecrazygm/hivebar/internal/coingecko"
)

var priceOpts struct {
	currency string
	change   bool
}

var priceCmd = &cobra.Command{
	Use:   "price [symbol...]",
	Short: "Show current crypto prices from CoinGecko",
	Long: `Show current crypto prices from CoinGecko.

Without arguments the configured tickers are queried. Symbols outside the
built-in map (` + strings.Join(coingecko.KnownSymbols(), ", ") + `)
need a crypto_id in the config.

Examples:
  hivebar price
  hivebar price HIVE HBD
  hivebar price BTC --currency eur --change`,
	RunE: runPrice,
}

func init() {
	rootCmd.AddCommand(priceCmd)

	priceCmd.Flags().StringVarP(&priceOpts.currency, "currency", "c", "usd",
		"Fiat currency for the quote")
	priceCmd.Flags().BoolVar(&priceOpts.change, "change", false,
		"Include the 24h change")
}

func runPrice(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := coingecko.NewClient()

	type query struct {
		symbol string
		id     string
	}
	var queries []query

	if len(args) > 0 {
		for _, sym := range args {
			id, ok := coingecko.LookupID(sym)
			if !ok {
				return fmt.Errorf("unknown symbol %q, add a [[tickers]] entry with a crypto_id", sym)
			}
			queries = append(queries, query{symbol: strings.ToUpper(sym), id: id})
		}
	} else {
		for _, tc := range cfg.Tickers {
			id := tc.CryptoID
			if id == "" {
				var ok bool
				id, ok = coingecko.LookupID(tc.Symbol)
				if !ok {
					return fmt.Errorf("ticker %q has no crypto_id and is not a known symbol", tc.Symbol)
				}
			}
			queries = append(queries, query{symbol: strings.ToUpper(tc.Symbol), id: id})
		}
	}
	if len(queries) == 0 {
		return fmt.Errorf("no symbols given and no tickers configured")
	}

	for _, q := range queries {
		quote, err := client.SimplePrice(ctx, q.id, priceOpts.currency, priceOpts.change)
		if err != nil {
			return fmt.Errorf("failed to fetch %s: %w", q.symbol, err)
		}
		if priceOpts.change && quote.HasChange {
			fmt.Printf("%s: %.2f %s (%+.2f%%)\n",
				q.symbol, quote.Price, strings.ToUpper(priceOpts.currency), quote.Change24h)
		} else {
			fmt.Printf("%s: %.2f %s\n", q.symbol, quote.Price, strings.ToUpper(priceOpts.currency))
		}
	}
	return nil
}
