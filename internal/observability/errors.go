package observability

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/baxromumarov/price-scraper/internal/httpx"
)

const (
	ErrorNetwork   = "network"
	ErrorBlocked   = "blocked"
	ErrorParsing   = "parsing"
	ErrorAI        = "ai"
	ErrorRateLimit = "rate_limit"
	ErrorStore     = "store"
	ErrorPanic     = "panic"
	ErrorUnknown   = "unknown"
)

func ClassifyFetchError(err error) string {
	if err == nil {
		return ErrorUnknown
	}
	if errors.Is(err, httpx.ErrRobotsBlocked) || errors.Is(err, httpx.ErrShortBody) {
		return ErrorBlocked
	}
	var fe *httpx.FetchError
	if errors.As(err, &fe) {
		switch {
		case fe.Status == http.StatusTooManyRequests:
			return ErrorRateLimit
		case fe.Status == http.StatusForbidden:
			return ErrorBlocked
		default:
			return ErrorNetwork
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorNetwork
	}
	return ErrorUnknown
}

// ClassifyScrapeError maps a failed store run to an error type for the stats counters.
func ClassifyScrapeError(err error) string {
	if err == nil {
		return ErrorUnknown
	}
	if kind := ClassifyFetchError(err); kind != ErrorUnknown {
		return kind
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "parse failed"),
		strings.Contains(msg, "invalid selector"),
		strings.Contains(msg, "unmarshal"):
		return ErrorParsing
	case strings.Contains(msg, "store:"):
		return ErrorStore
	case strings.Contains(msg, "panic"):
		return ErrorPanic
	}
	return ErrorNetwork
}
