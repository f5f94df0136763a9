package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const maxSlugLength = 150

var slugReplacer = regexp.MustCompile(`[^a-z0-9]+`)

type Product struct {
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Store       string    `json:"store"`
	LastUpdated time.Time `json:"last_updated"`
}

type StoreSummary struct {
	Store       string    `json:"store"`
	Products    int       `json:"products"`
	LastUpdated time.Time `json:"last_updated"`
}

// Slug derives the storage key for a product at a store. Distinct names can
// collapse to the same slug ("Milk 1L" and "milk-1l"); the later write wins.
func Slug(storeName, productName string) string {
	slug := slugReplacer.ReplaceAllString(strings.ToLower(storeName+"-"+productName), "-")
	if len(slug) > maxSlugLength {
		slug = slug[:maxSlugLength]
	}
	return slug
}

// UpsertProducts writes the batch in a single transaction. Existing rows are
// merged: name, price, store and last_updated are replaced, created_at is kept.
func (s *Store) UpsertProducts(ctx context.Context, products []Product) error {
	if len(products) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.rebind(`
INSERT INTO store_products (slug, name, price, store, last_updated)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (slug) DO UPDATE SET
    name = EXCLUDED.name,
    price = EXCLUDED.price,
    store = EXCLUDED.store,
    last_updated = EXCLUDED.last_updated
`))
	if err != nil {
		return fmt.Errorf("store: prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range products {
		slug := p.Slug
		if slug == "" {
			slug = Slug(p.Store, p.Name)
		}
		if _, err := stmt.ExecContext(ctx, slug, p.Name, p.Price, p.Store, p.LastUpdated.UTC()); err != nil {
			return fmt.Errorf("store: upsert %s: %w", slug, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// ProductsByStore returns every row whose store equals storeName exactly, in slug order.
func (s *Store) ProductsByStore(ctx context.Context, storeName string) ([]Product, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
SELECT slug, name, price, store, last_updated
FROM store_products
WHERE store = $1
ORDER BY slug
`), storeName)
	if err != nil {
		return nil, fmt.Errorf("store: query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.Slug, &p.Name, &p.Price, &p.Store, &p.LastUpdated); err != nil {
			return nil, fmt.Errorf("store: scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) ListStores(ctx context.Context) ([]StoreSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT store, COUNT(*), MAX(last_updated)
FROM store_products
GROUP BY store
ORDER BY store
`)
	if err != nil {
		return nil, fmt.Errorf("store: query stores: %w", err)
	}
	defer rows.Close()

	var out []StoreSummary
	for rows.Next() {
		var (
			sum  StoreSummary
			last any
		)
		if err := rows.Scan(&sum.Store, &sum.Products, &last); err != nil {
			return nil, fmt.Errorf("store: scan store: %w", err)
		}
		sum.LastUpdated = asTime(last)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// asTime handles MAX() over a timestamp, which SQLite returns as text.
func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		return parseTimeText(t)
	case []byte:
		return parseTimeText(string(t))
	}
	return time.Time{}
}

func parseTimeText(s string) time.Time {
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999 -0700 MST",
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999Z07:00",
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
