package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/price-scraper/internal/store"
)

type fakeReader struct {
	byStore map[string][]store.Product
	err     error
	panics  bool
}

func (f *fakeReader) ProductsByStore(_ context.Context, storeName string) ([]store.Product, error) {
	if f.panics {
		panic("driver exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.byStore[storeName], nil
}

func checkersReader() *fakeReader {
	return &fakeReader{byStore: map[string][]store.Product{
		"Checkers": {
			{Slug: "checkers-clover-full-cream-milk-1l", Name: "Clover Full Cream Milk 1L", Price: 21.99, Store: "Checkers"},
			{Slug: "checkers-milk-chocolate-80g", Name: "Milk Chocolate 80g", Price: 18.5, Store: "Checkers"},
			{Slug: "checkers-white-bread-700g", Name: "White Bread 700g", Price: 16.99, Store: "Checkers"},
		},
	}}
}

func TestFindPriceHit(t *testing.T) {
	svc := NewLookupService(checkersReader(), nil)

	price, found := svc.FindPrice(context.Background(), "  WHITE bread ", "Checkers")
	require.True(t, found)
	assert.Equal(t, 16.99, price)
}

func TestFindPriceFirstMatchWins(t *testing.T) {
	svc := NewLookupService(checkersReader(), nil)

	price, found := svc.FindPrice(context.Background(), "milk", "Checkers")
	require.True(t, found)
	assert.Equal(t, 21.99, price)
}

func TestFindPriceMisses(t *testing.T) {
	svc := NewLookupService(checkersReader(), nil)
	ctx := context.Background()

	_, found := svc.FindPrice(ctx, "caviar", "Checkers")
	assert.False(t, found)

	_, found = svc.FindPrice(ctx, "milk", "Unknown Store")
	assert.False(t, found)

	_, found = svc.FindPrice(ctx, "milk", "checkers")
	assert.False(t, found, "store name is case-sensitive")
}

func TestFindPriceQueryError(t *testing.T) {
	svc := NewLookupService(&fakeReader{err: errors.New("connection refused")}, nil)

	price, found := svc.FindPrice(context.Background(), "milk", "Checkers")
	assert.False(t, found)
	assert.Zero(t, price)
}

func TestFindPriceRecoversPanic(t *testing.T) {
	svc := NewLookupService(&fakeReader{panics: true}, nil)

	assert.NotPanics(t, func() {
		_, found := svc.FindPrice(context.Background(), "milk", "Checkers")
		assert.False(t, found)
	})
}

func TestMatchesProduct(t *testing.T) {
	assert.True(t, MatchesProduct("Clover Full Cream Milk 1L", "cream milk"))
	assert.False(t, MatchesProduct("", "milk"))
	assert.False(t, MatchesProduct("Bread", "milk"))
}
