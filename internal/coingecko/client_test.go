package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupID(t *testing.T) {
	id, ok := LookupID("hive")
	require.True(t, ok)
	assert.Equal(t, "hive", id)

	id, ok = LookupID("BTC")
	require.True(t, ok)
	assert.Equal(t, "bitcoin", id)

	_, ok = LookupID("NOTACOIN")
	assert.False(t, ok)
}

func TestSimplePrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "hive", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		assert.Equal(t, "true", r.URL.Query().Get("include_24hr_change"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"hive":{"usd":0.2345,"usd_24h_change":-1.5}}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	quote, err := c.SimplePrice(context.Background(), "hive", "usd", true)
	require.NoError(t, err)

	assert.InDelta(t, 0.2345, quote.Price, 1e-9)
	assert.True(t, quote.HasChange)
	assert.InDelta(t, -1.5, quote.Change24h, 1e-9)
}

func TestSimplePriceWithoutChange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("include_24hr_change"))
		w.Write([]byte(`{"bitcoin":{"usd":64000.12}}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	quote, err := c.SimplePrice(context.Background(), "bitcoin", "usd", false)
	require.NoError(t, err)

	assert.InDelta(t, 64000.12, quote.Price, 1e-9)
	assert.False(t, quote.HasChange)
}

func TestSimplePriceMissingCurrency(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hive":{"eur":0.21}}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	_, err := c.SimplePrice(context.Background(), "hive", "usd", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `currency "usd" missing`)
}

func TestSimplePriceMissingCoin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	_, err := c.SimplePrice(context.Background(), "hive", "usd", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `coin "hive" missing`)
}

func TestSimplePriceServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	_, err := c.SimplePrice(context.Background(), "hive", "usd", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}
