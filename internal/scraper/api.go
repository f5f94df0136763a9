package scraper

import (
	"context"

	"github.com/baxromumarov/price-scraper/internal/httpx"
	"github.com/baxromumarov/price-scraper/internal/store"
)

type PageFetcher interface {
	Fetch(ctx context.Context, url string) (httpx.Page, error)
}

type ProductSink interface {
	UpsertProducts(ctx context.Context, products []store.Product) error
}

type StoreRunner interface {
	Run(ctx context.Context, d Descriptor) (int, error)
}
