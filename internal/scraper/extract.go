package scraper

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Listing is one product tile reduced to its name and price.
type Listing struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type listingKey struct {
	name  string
	price float64
}

// ListingSet accumulates listings in insertion order, dropping exact
// (name, price) repeats. The same name at another price is kept.
type ListingSet struct {
	seen  map[listingKey]struct{}
	items []Listing
}

func NewListingSet() *ListingSet {
	return &ListingSet{seen: make(map[listingKey]struct{})}
}

// Add reports whether l was new.
func (s *ListingSet) Add(l Listing) bool {
	k := listingKey{name: l.Name, price: l.Price}
	if _, ok := s.seen[k]; ok {
		return false
	}
	s.seen[k] = struct{}{}
	s.items = append(s.items, l)
	return true
}

func (s *ListingSet) Len() int {
	return len(s.items)
}

func (s *ListingSet) Items() []Listing {
	out := make([]Listing, len(s.items))
	copy(out, s.items)
	return out
}

// Extract parses one category page and returns its listings in document order,
// deduplicated within the page. Nodes that cannot be read are skipped; only an
// unparsable document or an invalid selector is an error.
func Extract(htmlContent string, d Descriptor) ([]Listing, error) {
	set := NewListingSet()
	if err := ExtractInto(set, htmlContent, d); err != nil {
		return nil, err
	}
	return set.Items(), nil
}

// ExtractInto adds the page's listings to set, which may already hold listings
// from earlier pages of the same store run.
func ExtractInto(set *ListingSet, htmlContent string, d Descriptor) error {
	root, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return fmt.Errorf("html parse failed: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	listingSel, err := compile(d.ListingSelector)
	if err != nil {
		return err
	}

	var read func(*goquery.Selection) (Listing, bool)
	switch d.Mode {
	case ModeEmbeddedJSON:
		read = func(s *goquery.Selection) (Listing, bool) {
			return readEmbeddedJSON(s, d.DataAttribute)
		}
	case ModeSelectors:
		nameSel, err := compile(d.NameSelector)
		if err != nil {
			return err
		}
		priceSel, err := compile(d.PriceSelector)
		if err != nil {
			return err
		}
		read = func(s *goquery.Selection) (Listing, bool) {
			return readSelectorPair(s, nameSel, priceSel)
		}
	default:
		return fmt.Errorf("store %q: unknown mode %q", d.Name, d.Mode)
	}

	doc.FindMatcher(listingSel).Each(func(_ int, s *goquery.Selection) {
		if l, ok := read(s); ok {
			set.Add(l)
		}
	})
	return nil
}

func compile(selector string) (cascadia.Selector, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return sel, nil
}

func readSelectorPair(s *goquery.Selection, nameSel, priceSel cascadia.Selector) (Listing, bool) {
	name := strings.TrimSpace(s.FindMatcher(nameSel).Text())
	if name == "" {
		return Listing{}, false
	}
	price, ok := ParsePriceText(strings.TrimSpace(s.FindMatcher(priceSel).Text()))
	if !ok {
		return Listing{}, false
	}
	return Listing{Name: name, Price: price}, true
}

type embeddedProduct struct {
	Name  *string         `json:"name"`
	Price json.RawMessage `json:"price"`
}

func readEmbeddedJSON(s *goquery.Selection, attr string) (Listing, bool) {
	raw, ok := s.Attr(attr)
	if !ok || raw == "" {
		return Listing{}, false
	}
	// goquery decodes entities once; some stores double-encode the payload.
	raw = strings.ReplaceAll(raw, "&quot;", `"`)

	var p embeddedProduct
	if err := json.Unmarshal([]byte(raw), &p); err != nil || p.Name == nil {
		return Listing{}, false
	}
	name := strings.TrimSpace(*p.Name)
	if name == "" {
		return Listing{}, false
	}
	price, ok := decodeJSONPrice(p.Price)
	if !ok {
		return Listing{}, false
	}
	return Listing{Name: name, Price: price}, true
}

// decodeJSONPrice accepts a JSON number or a numeric string like "24.99".
func decodeJSONPrice(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return num, validPrice(num)
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return parseLeadingFloat(text)
	}
	return 0, false
}
