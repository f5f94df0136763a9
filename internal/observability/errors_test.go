package observability

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/baxromumarov/price-scraper/internal/httpx"
)

func TestClassifyScrapeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"robots", fmt.Errorf("store Spar: %w", httpx.ErrRobotsBlocked), ErrorBlocked},
		{"too many requests", fmt.Errorf("store Spar: %w", &httpx.FetchError{Status: 429, Err: errors.New("429")}), ErrorRateLimit},
		{"forbidden behind join", errors.Join(&httpx.FetchError{Status: 403}, errors.New("chrome: timeout")), ErrorBlocked},
		{"server error", &httpx.FetchError{Status: 502}, ErrorNetwork},
		{"deadline", fmt.Errorf("render: %w", context.DeadlineExceeded), ErrorNetwork},
		{"selector", errors.New("store Spar: invalid selector \"[\""), ErrorParsing},
		{"save", errors.New("store Spar: save: store: commit: disk full"), ErrorStore},
		{"panic", errors.New("panic while scraping Spar: boom"), ErrorPanic},
		{"other", errors.New("connection reset"), ErrorNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyScrapeError(tt.err))
		})
	}
	assert.Equal(t, ErrorUnknown, ClassifyScrapeError(nil))
}

func TestSnapshotCountsErrors(t *testing.T) {
	before := Snapshot()

	IncError(ErrorStore, "lookup")
	IncError("", "")
	IncLookup(true)
	IncLookup(false)

	after := Snapshot()
	assert.Equal(t, before.ErrorsTotal+2, after.ErrorsTotal)
	assert.Equal(t, before.ErrorsByType[ErrorStore]+1, after.ErrorsByType[ErrorStore])
	assert.Equal(t, before.ErrorsByComponent["unknown"]+1, after.ErrorsByComponent["unknown"])
	assert.Equal(t, before.Lookups+2, after.Lookups)
	assert.Equal(t, before.LookupHits+1, after.LookupHits)
}
