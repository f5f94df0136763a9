package app

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/price-scraper/internal/config"
	"github.com/baxromumarov/price-scraper/internal/core"
	"github.com/baxromumarov/price-scraper/internal/store"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LogConfig{Level: "info", Format: "json"}, &buf)

	logger.Debug("hidden")
	logger.Info("saved products", "store", "Spar", "count", 3)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"store":"Spar"`)
}

func TestNewLoggerText(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LogConfig{Level: "debug", Format: "text"}, &buf)

	logger.Debug("visible", "store", "Game")
	assert.Contains(t, buf.String(), "visible")
	assert.Contains(t, buf.String(), "Game")
}

func TestNewWiresPipeline(t *testing.T) {
	stores, err := config.LoadStores("")
	require.NoError(t, err)
	cfg := &config.Config{
		Database: config.DatabaseConfig{URL: ":memory:"},
		Fetch:    config.FetchConfig{MinBodyLength: 100},
		Stores:   stores,
	}

	a, err := New(context.Background(), cfg, slog.Default())
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Store.UpsertProducts(context.Background(), []store.Product{
		{Slug: store.Slug("Spar", "Full Cream Milk 1L"), Name: "Full Cream Milk 1L", Price: 24.99, Store: "Spar"},
	}))

	price, found := a.Lookup.FindPrice(context.Background(), "cream milk", "Spar")
	require.True(t, found)
	assert.Equal(t, 24.99, price)

	estimates := a.Estimator.Estimate(context.Background(), []string{"cream milk"})
	require.Len(t, estimates, len(stores))
	assert.Equal(t, "scraped", findLine(estimates, "Spar"))
}

func findLine(es []core.StoreEstimate, storeName string) string {
	for _, e := range es {
		if e.Name == storeName && len(e.PriceBreakdown) > 0 {
			return e.PriceBreakdown[0].Source
		}
	}
	return ""
}
