package widget

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/thecrazygm/hivebar/internal/coingecko"
	"github.com/thecrazygm/hivebar/internal/config"
)

// tickerData is the template context for a ticker render.
type tickerData struct {
	Crypto string // Upper-cased symbol, e.g. "HIVE"
	Symbol string // Currency sign, e.g. "$"
	Amount string // Price rounded to two decimals
	Change string // Signed 24h change percentage, e.g. "+1.25%"
}

// Ticker renders a single coin price from CoinGecko.
type Ticker struct {
	log        *slog.Logger
	client     *coingecko.Client
	cryptoID   string
	crypto     string
	currency   string
	sign       string
	showChange bool
	interval   time.Duration
	tmpl       *template.Template
}

// NewTicker builds a ticker widget. Unknown symbols without a crypto_id
// override are rejected here, at setup time.
func NewTicker(log *slog.Logger, client *coingecko.Client, cfg config.TickerConfig) (*Ticker, error) {
	crypto := strings.ToUpper(cfg.Symbol)
	id := cfg.CryptoID
	if id == "" {
		var ok bool
		id, ok = coingecko.LookupID(cfg.Symbol)
		if !ok {
			return nil, config.NewConfigError(
				"tickers", "unknown symbol %q: set crypto_id or use one of %v",
				cfg.Symbol, coingecko.KnownSymbols())
		}
	}
	if crypto == "" {
		crypto = strings.ToUpper(id)
	}

	format := cfg.Format
	if format == "" {
		format = config.DefaultTickerFormat
	}
	tmpl, err := template.New("ticker").Parse(format)
	if err != nil {
		return nil, config.NewConfigError("tickers", "bad format template: %v", err)
	}

	return &Ticker{
		log:        log.With("widget", "ticker", "crypto", crypto),
		client:     client,
		cryptoID:   id,
		crypto:     crypto,
		currency:   cfg.Currency,
		sign:       cfg.CurrencySign,
		showChange: cfg.ShowChange,
		interval:   cfg.Interval.Duration(),
		tmpl:       tmpl,
	}, nil
}

// Name implements Widget.
func (t *Ticker) Name() string {
	return "ticker-" + strings.ToLower(t.crypto)
}

// Interval implements Widget.
func (t *Ticker) Interval() time.Duration {
	return t.interval
}

// Poll implements Widget. Any failure, including a response without the
// requested currency, renders the fixed error text.
func (t *Ticker) Poll(ctx context.Context) State {
	quote, err := t.client.SimplePrice(ctx, t.cryptoID, t.currency, t.showChange)
	if err != nil {
		t.log.Warn("price fetch failed", "error", err)
		return State{Text: t.crypto + ": Error", Class: ClassError}
	}

	data := tickerData{
		Crypto: t.crypto,
		Symbol: t.sign,
		Amount: fmt.Sprintf("%.2f", quote.Price),
	}
	if quote.HasChange {
		data.Change = fmt.Sprintf("%+.2f%%", quote.Change24h)
	}

	var sb strings.Builder
	if err := t.tmpl.Execute(&sb, data); err != nil {
		t.log.Warn("template render failed", "error", err)
		return State{Text: t.crypto + ": Error", Class: ClassError}
	}
	return State{Text: sb.String()}
}
