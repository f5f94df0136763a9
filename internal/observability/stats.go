package observability

import (
	"sync"
	"sync/atomic"
)

type StatsSnapshot struct {
	PagesFetched      uint64            `json:"pages_fetched"`
	BrowserFallbacks  uint64            `json:"browser_fallbacks"`
	ListingsExtracted uint64            `json:"listings_extracted"`
	ProductsSaved     uint64            `json:"products_saved"`
	StoreRuns         uint64            `json:"store_runs"`
	StoreFailures     uint64            `json:"store_failures"`
	Lookups           uint64            `json:"lookups"`
	LookupHits        uint64            `json:"lookup_hits"`
	AICalls           uint64            `json:"ai_calls"`
	ErrorsTotal       uint64            `json:"errors_total"`
	StoreSecondsAvg   float64           `json:"store_seconds_avg"`
	ErrorsByType      map[string]uint64 `json:"errors_by_type,omitempty"`
	ErrorsByComponent map[string]uint64 `json:"errors_by_component,omitempty"`
}

var (
	pagesFetched      uint64
	browserFallbacks  uint64
	listingsExtracted uint64
	productsSaved     uint64
	storeRuns         uint64
	storeFailures     uint64
	lookups           uint64
	lookupHits        uint64
	aiCalls           uint64
	errorsTotal       uint64

	storeRunCount uint64
	storeRunNanos uint64

	statsMu           sync.Mutex
	errorsByType      = map[string]uint64{}
	errorsByComponent = map[string]uint64{}
)

func IncPagesFetched() {
	atomic.AddUint64(&pagesFetched, 1)
}

func IncBrowserFallback() {
	atomic.AddUint64(&browserFallbacks, 1)
}

func AddListingsExtracted(n int) {
	if n <= 0 {
		return
	}
	atomic.AddUint64(&listingsExtracted, uint64(n))
}

func AddProductsSaved(n int) {
	if n <= 0 {
		return
	}
	atomic.AddUint64(&productsSaved, uint64(n))
}

func IncStoreRun(failed bool) {
	atomic.AddUint64(&storeRuns, 1)
	if failed {
		atomic.AddUint64(&storeFailures, 1)
	}
}

func IncLookup(hit bool) {
	atomic.AddUint64(&lookups, 1)
	if hit {
		atomic.AddUint64(&lookupHits, 1)
	}
}

func IncAICall() {
	atomic.AddUint64(&aiCalls, 1)
}

func ObserveStoreRunDuration(seconds float64) {
	if seconds <= 0 {
		return
	}
	atomic.AddUint64(&storeRunCount, 1)
	atomic.AddUint64(&storeRunNanos, uint64(seconds*1e9))
}

func IncError(errType, component string) {
	if errType == "" {
		errType = "unknown"
	}
	if component == "" {
		component = "unknown"
	}
	atomic.AddUint64(&errorsTotal, 1)
	statsMu.Lock()
	errorsByType[errType]++
	errorsByComponent[component]++
	statsMu.Unlock()
}

func Snapshot() StatsSnapshot {
	statsMu.Lock()
	errorsTypeCopy := copyMap(errorsByType)
	errorsComponentCopy := copyMap(errorsByComponent)
	statsMu.Unlock()

	count := atomic.LoadUint64(&storeRunCount)
	avg := 0.0
	if count > 0 {
		avg = float64(atomic.LoadUint64(&storeRunNanos)) / float64(count) / 1e9
	}

	return StatsSnapshot{
		PagesFetched:      atomic.LoadUint64(&pagesFetched),
		BrowserFallbacks:  atomic.LoadUint64(&browserFallbacks),
		ListingsExtracted: atomic.LoadUint64(&listingsExtracted),
		ProductsSaved:     atomic.LoadUint64(&productsSaved),
		StoreRuns:         atomic.LoadUint64(&storeRuns),
		StoreFailures:     atomic.LoadUint64(&storeFailures),
		Lookups:           atomic.LoadUint64(&lookups),
		LookupHits:        atomic.LoadUint64(&lookupHits),
		AICalls:           atomic.LoadUint64(&aiCalls),
		ErrorsTotal:       atomic.LoadUint64(&errorsTotal),
		StoreSecondsAvg:   avg,
		ErrorsByType:      errorsTypeCopy,
		ErrorsByComponent: errorsComponentCopy,
	}
}

func copyMap(src map[string]uint64) map[string]uint64 {
	if len(src) == 0 {
		return map[string]uint64{}
	}
	out := make(map[string]uint64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
