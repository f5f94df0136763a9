package scraper

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Mode selects how listing nodes are turned into name/price pairs.
type Mode string

const (
	// ModeSelectors reads name and price text from two sub-selectors.
	ModeSelectors Mode = "selectors"
	// ModeEmbeddedJSON reads an attribute holding entity-encoded JSON.
	ModeEmbeddedJSON Mode = "embedded_json"
)

// Descriptor is the static per-store scraping configuration.
type Descriptor struct {
	Name            string   `mapstructure:"name" json:"name"`
	CategoryURLs    []string `mapstructure:"category_urls" json:"category_urls"`
	Mode            Mode     `mapstructure:"mode" json:"mode"`
	ListingSelector string   `mapstructure:"listing_selector" json:"listing_selector"`
	NameSelector    string   `mapstructure:"name_selector" json:"name_selector,omitempty"`
	PriceSelector   string   `mapstructure:"price_selector" json:"price_selector,omitempty"`
	DataAttribute   string   `mapstructure:"data_attribute" json:"data_attribute,omitempty"`
}

func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.New("store name is required")
	}
	if d.ListingSelector == "" {
		return fmt.Errorf("store %q: listing_selector is required", d.Name)
	}
	switch d.Mode {
	case ModeSelectors:
		if d.NameSelector == "" || d.PriceSelector == "" {
			return fmt.Errorf("store %q: name_selector and price_selector are required in %s mode", d.Name, d.Mode)
		}
	case ModeEmbeddedJSON:
		if d.DataAttribute == "" {
			return fmt.Errorf("store %q: data_attribute is required in %s mode", d.Name, d.Mode)
		}
	default:
		return fmt.Errorf("store %q: unknown mode %q", d.Name, d.Mode)
	}
	for _, raw := range d.CategoryURLs {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("store %q: bad category url %q: %w", d.Name, raw, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("store %q: category url %q must be absolute http(s)", d.Name, raw)
		}
	}
	return nil
}

// ValidateAll checks every descriptor and that store names are unique.
func ValidateAll(ds []Descriptor) error {
	seen := make(map[string]struct{}, len(ds))
	var errs []error
	for _, d := range ds {
		if err := d.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, ok := seen[d.Name]; ok {
			errs = append(errs, fmt.Errorf("duplicate store name %q", d.Name))
			continue
		}
		seen[d.Name] = struct{}{}
	}
	return errors.Join(errs...)
}

// Filter returns the descriptors whose names are listed, in their original order.
// An empty names list returns ds unchanged.
func Filter(ds []Descriptor, names []string) []Descriptor {
	if len(names) == 0 {
		return ds
	}
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[n] = struct{}{}
	}
	var out []Descriptor
	for _, d := range ds {
		if _, ok := want[d.Name]; ok {
			out = append(out, d)
		}
	}
	return out
}
