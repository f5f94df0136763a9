package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/baxromumarov/price-scraper/internal/observability"
	"github.com/baxromumarov/price-scraper/internal/store"
)

// Runner scrapes every category page of one store and saves the result as a
// single batch.
type Runner struct {
	fetcher PageFetcher
	sink    ProductSink
	logger  *slog.Logger
	now     func() time.Time
}

func NewRunner(fetcher PageFetcher, sink ProductSink, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		fetcher: fetcher,
		sink:    sink,
		logger:  logger,
		now:     time.Now,
	}
}

// Run fetches category pages one at a time and accumulates their listings.
// Any page fetch error aborts the run before anything is written. A run that
// finds nothing writes nothing, so earlier data for the store is kept.
func (r *Runner) Run(ctx context.Context, d Descriptor) (int, error) {
	if err := d.Validate(); err != nil {
		return 0, err
	}
	logger := r.logger.With("store", d.Name)
	logger.Info("scraping store", "category_urls", len(d.CategoryURLs))

	set := NewListingSet()
	for _, u := range d.CategoryURLs {
		logger.Info("fetching category page", "url", u)
		page, err := r.fetcher.Fetch(ctx, u)
		if err != nil {
			return 0, fmt.Errorf("store %s: %w", d.Name, err)
		}
		observability.IncPagesFetched()
		if page.Rendered {
			observability.IncBrowserFallback()
		}

		before := set.Len()
		if err := ExtractInto(set, page.HTML, d); err != nil {
			return 0, fmt.Errorf("store %s: %s: %w", d.Name, u, err)
		}
		logger.Debug("extracted listings", "url", u, "new", set.Len()-before, "rendered", page.Rendered)
	}

	if set.Len() == 0 {
		logger.Warn("no products found, check category urls and selectors")
		return 0, nil
	}
	observability.AddListingsExtracted(set.Len())

	updated := r.now().UTC()
	listings := set.Items()
	products := make([]store.Product, 0, len(listings))
	for _, l := range listings {
		products = append(products, store.Product{
			Slug:        store.Slug(d.Name, l.Name),
			Name:        l.Name,
			Price:       l.Price,
			Store:       d.Name,
			LastUpdated: updated,
		})
	}

	logger.Info("saving products", "count", len(products))
	if err := r.sink.UpsertProducts(ctx, products); err != nil {
		return 0, fmt.Errorf("store %s: save: %w", d.Name, err)
	}
	observability.AddProductsSaved(len(products))
	logger.Info("saved products", "count", len(products))
	return len(products), nil
}
