package core

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/price-scraper/internal/ai"
)

type mapFinder map[string]float64

func (m mapFinder) FindPrice(_ context.Context, product, storeName string) (float64, bool) {
	p, ok := m[storeName+"|"+product]
	return p, ok
}

type stubAI struct {
	prices []ai.ItemPrice
	err    error
	reqs   []ai.EstimateRequest
}

func (s *stubAI) EstimatePrices(_ context.Context, req ai.EstimateRequest) ([]ai.ItemPrice, error) {
	s.reqs = append(s.reqs, req)
	return s.prices, s.err
}

func TestEstimateCombinesScrapedAndEstimated(t *testing.T) {
	finder := mapFinder{
		"Checkers|milk":  20,
		"Checkers|bread": 15,
		"Spar|milk":      25,
	}
	aiClient := &stubAI{prices: []ai.ItemPrice{
		{Store: "Spar", Item: "bread", Price: 17},
	}}
	svc := NewEstimateService(finder, aiClient, []string{"Spar", "Checkers"}, nil)

	got := svc.Estimate(context.Background(), []string{"milk", "bread", "milk", " "})

	want := []StoreEstimate{
		{
			Name:       "Checkers",
			TotalPrice: 35,
			PriceBreakdown: []PriceLine{
				{Item: "milk", Price: 20, Source: SourceScraped},
				{Item: "bread", Price: 15, Source: SourceScraped},
			},
			IsCheapest: true,
		},
		{
			Name:       "Spar",
			TotalPrice: 42,
			PriceBreakdown: []PriceLine{
				{Item: "milk", Price: 25, Source: SourceScraped},
				{Item: "bread", Price: 17, Source: SourceEstimated},
			},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Estimate() mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, aiClient.reqs, 1)
	assert.Equal(t, []string{"bread"}, aiClient.reqs[0].Items)
	assert.Equal(t, []string{"Spar"}, aiClient.reqs[0].Stores)
}

func TestEstimateSkipsAIWhenFullyScraped(t *testing.T) {
	aiClient := &stubAI{}
	svc := NewEstimateService(mapFinder{"Spar|milk": 25}, aiClient, []string{"Spar"}, nil)

	got := svc.Estimate(context.Background(), []string{"milk"})
	require.Len(t, got, 1)
	assert.True(t, got[0].IsCheapest)
	assert.Empty(t, aiClient.reqs)
}

func TestEstimateAIFailureOmitsMissing(t *testing.T) {
	aiClient := &stubAI{err: errors.New("quota exceeded")}
	svc := NewEstimateService(mapFinder{"Spar|milk": 25}, aiClient, []string{"Game", "Spar"}, nil)

	got := svc.Estimate(context.Background(), []string{"milk", "eggs"})
	require.Len(t, got, 2)

	assert.Equal(t, "Spar", got[0].Name)
	assert.True(t, got[0].IsCheapest)
	assert.Equal(t, 25.0, got[0].TotalPrice)
	assert.Len(t, got[0].PriceBreakdown, 1)

	assert.Equal(t, "Game", got[1].Name, "stores with nothing priced sort last")
	assert.False(t, got[1].IsCheapest)
	assert.Empty(t, got[1].PriceBreakdown)
}

func TestEstimateEmptyList(t *testing.T) {
	svc := NewEstimateService(mapFinder{}, &stubAI{}, []string{"Spar"}, nil)
	assert.Empty(t, svc.Estimate(context.Background(), nil))
}

func TestEstimateDropsInvalidAIPrices(t *testing.T) {
	aiClient := &stubAI{prices: []ai.ItemPrice{{Store: "Spar", Item: "milk", Price: -3}}}
	svc := NewEstimateService(mapFinder{}, aiClient, []string{"Spar"}, nil)

	got := svc.Estimate(context.Background(), []string{"milk"})
	require.Len(t, got, 1)
	assert.Empty(t, got[0].PriceBreakdown)
	assert.False(t, got[0].IsCheapest)
}
