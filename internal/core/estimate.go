package core

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/baxromumarov/price-scraper/internal/ai"
	"github.com/baxromumarov/price-scraper/internal/observability"
)

const (
	SourceScraped   = "scraped"
	SourceEstimated = "estimated"
)

type PriceFinder interface {
	FindPrice(ctx context.Context, productName, storeName string) (float64, bool)
}

type PriceLine struct {
	Item   string  `json:"item"`
	Price  float64 `json:"price"`
	Source string  `json:"source"`
}

type StoreEstimate struct {
	Name           string      `json:"name"`
	TotalPrice     float64     `json:"total_price"`
	PriceBreakdown []PriceLine `json:"price_breakdown"`
	IsCheapest     bool        `json:"is_cheapest"`
}

// EstimateService prices a shopping list at every known store. Scraped prices
// are used first; the AI client is asked only for the remaining gaps.
type EstimateService struct {
	lookup PriceFinder
	ai     ai.Client
	stores []string
	logger *slog.Logger
}

func NewEstimateService(lookup PriceFinder, aiClient ai.Client, stores []string, logger *slog.Logger) *EstimateService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EstimateService{
		lookup: lookup,
		ai:     aiClient,
		stores: append([]string(nil), stores...),
		logger: logger,
	}
}

// Estimate returns stores sorted by total, cheapest first. Stores where no
// item could be priced come last with an empty breakdown.
func (s *EstimateService) Estimate(ctx context.Context, items []string) []StoreEstimate {
	items = cleanItems(items)
	if len(items) == 0 || len(s.stores) == 0 {
		return []StoreEstimate{}
	}

	type pairKey struct{ store, item string }
	scraped := make(map[pairKey]float64)
	missingStores := map[string]struct{}{}
	missingItems := map[string]struct{}{}
	for _, store := range s.stores {
		for _, item := range items {
			if price, ok := s.lookup.FindPrice(ctx, item, store); ok {
				scraped[pairKey{store, item}] = price
				continue
			}
			missingStores[store] = struct{}{}
			missingItems[item] = struct{}{}
		}
	}

	estimated := make(map[pairKey]float64)
	if len(missingItems) > 0 && s.ai != nil {
		req := ai.EstimateRequest{
			Items:  filterOrdered(items, missingItems),
			Stores: filterOrdered(s.stores, missingStores),
		}
		observability.IncAICall()
		prices, err := s.ai.EstimatePrices(ctx, req)
		if err != nil {
			observability.IncError(observability.ErrorAI, "estimator")
			s.logger.Warn("AI price estimate failed, using scraped prices only", "error", err)
		}
		for _, p := range prices {
			if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) || p.Price < 0 {
				continue
			}
			estimated[pairKey{p.Store, p.Item}] = p.Price
		}
	}

	out := make([]StoreEstimate, 0, len(s.stores))
	for _, store := range s.stores {
		est := StoreEstimate{Name: store, PriceBreakdown: []PriceLine{}}
		for _, item := range items {
			k := pairKey{store, item}
			if price, ok := scraped[k]; ok {
				est.PriceBreakdown = append(est.PriceBreakdown, PriceLine{Item: item, Price: price, Source: SourceScraped})
			} else if price, ok := estimated[k]; ok {
				est.PriceBreakdown = append(est.PriceBreakdown, PriceLine{Item: item, Price: price, Source: SourceEstimated})
			} else {
				continue
			}
			est.TotalPrice += est.PriceBreakdown[len(est.PriceBreakdown)-1].Price
		}
		est.TotalPrice = math.Round(est.TotalPrice*100) / 100
		out = append(out, est)
	}

	sort.SliceStable(out, func(i, j int) bool {
		ei, ej := len(out[i].PriceBreakdown) == 0, len(out[j].PriceBreakdown) == 0
		if ei != ej {
			return ej
		}
		return out[i].TotalPrice < out[j].TotalPrice
	})
	if len(out) > 0 && len(out[0].PriceBreakdown) > 0 {
		out[0].IsCheapest = true
	}
	return out
}

func cleanItems(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func filterOrdered(all []string, keep map[string]struct{}) []string {
	out := make([]string, 0, len(keep))
	for _, v := range all {
		if _, ok := keep[v]; ok {
			out = append(out, v)
		}
	}
	return out
}
