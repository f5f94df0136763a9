package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescriptorValidate(t *testing.T) {
	assert.NoError(t, checkers.Validate())
	assert.NoError(t, shoprite.Validate())

	tests := []struct {
		name   string
		mutate func(d *Descriptor)
	}{
		{"missing name", func(d *Descriptor) { d.Name = " " }},
		{"missing listing selector", func(d *Descriptor) { d.ListingSelector = "" }},
		{"unknown mode", func(d *Descriptor) { d.Mode = "xpath" }},
		{"selectors without price", func(d *Descriptor) { d.PriceSelector = "" }},
		{"json without attribute", func(d *Descriptor) { d.Mode = ModeEmbeddedJSON }},
		{"relative url", func(d *Descriptor) { d.CategoryURLs = []string{"/c/fruit"} }},
		{"ftp url", func(d *Descriptor) { d.CategoryURLs = []string{"ftp://shop.test/c"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := checkers
			d.CategoryURLs = append([]string(nil), checkers.CategoryURLs...)
			tt.mutate(&d)
			assert.Error(t, d.Validate())
		})
	}
}

func TestDescriptorWithoutURLsIsValid(t *testing.T) {
	d := checkers
	d.CategoryURLs = nil
	assert.NoError(t, d.Validate())
}

func TestValidateAllRejectsDuplicates(t *testing.T) {
	err := ValidateAll([]Descriptor{checkers, shoprite, checkers})
	assert.ErrorContains(t, err, `duplicate store name "Checkers"`)
	assert.NoError(t, ValidateAll([]Descriptor{checkers, shoprite}))
}

func TestFilter(t *testing.T) {
	all := []Descriptor{checkers, shoprite}
	assert.Equal(t, all, Filter(all, nil))
	assert.Equal(t, []Descriptor{shoprite}, Filter(all, []string{"Shoprite", "Nope"}))
}
