package core

import (
	"context"
	"log/slog"

	"github.com/baxromumarov/price-scraper/internal/observability"
	"github.com/baxromumarov/price-scraper/internal/store"
)

type ProductReader interface {
	ProductsByStore(ctx context.Context, storeName string) ([]store.Product, error)
}

// LookupService answers "what does X cost at store Y" from scraped products.
//
// Matching is a linear scan: the first product of the store, in storage
// order, whose lowercased name contains the lowercased query wins. There is no
// ranking, so "milk" can match "Milk Chocolate 80g" before "Full Cream Milk 1L".
type LookupService struct {
	reader ProductReader
	logger *slog.Logger
}

func NewLookupService(reader ProductReader, logger *slog.Logger) *LookupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LookupService{reader: reader, logger: logger}
}

// FindPrice never fails: query errors and misses both report found=false.
// storeName must match the stored store name exactly, including case.
func (s *LookupService) FindPrice(ctx context.Context, productName, storeName string) (price float64, found bool) {
	query := normalizeProductName(productName)
	s.logger.Debug("searching product price", "product", query, "store", storeName)

	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("product lookup panicked", "product", query, "store", storeName, "panic", p)
			price, found = 0, false
		}
		observability.IncLookup(found)
	}()

	products, err := s.reader.ProductsByStore(ctx, storeName)
	if err != nil {
		observability.IncError(observability.ErrorStore, "lookup")
		s.logger.Error("failed to query product prices", "store", storeName, "error", err)
		return 0, false
	}

	for _, p := range products {
		if MatchesProduct(p.Name, query) {
			s.logger.Debug("found product match", "name", p.Name, "price", p.Price, "store", storeName)
			return p.Price, true
		}
	}
	return 0, false
}
