package httpx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// DefaultMinBodyLength is the body size at or below which a direct response is
// assumed to be a JS shell or a block page.
const DefaultMinBodyLength = 100

var ErrShortBody = errors.New("response body too short")

type Getter interface {
	Get(ctx context.Context, url string) (string, error)
}

type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

type Page struct {
	URL  string
	HTML string
	// Rendered is true when the HTML came from the browser fallback.
	Rendered bool
}

// Fetcher tries a direct GET and falls back to a single browser render.
type Fetcher struct {
	direct        Getter
	browser       Renderer
	minBodyLength int
	logger        *slog.Logger
}

func NewFetcher(direct Getter, browser Renderer, minBodyLength int, logger *slog.Logger) *Fetcher {
	if minBodyLength <= 0 {
		minBodyLength = DefaultMinBodyLength
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		direct:        direct,
		browser:       browser,
		minBodyLength: minBodyLength,
		logger:        logger,
	}
}

func (f *Fetcher) FetchHTML(ctx context.Context, url string) (string, error) {
	p, err := f.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	return p.HTML, nil
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (Page, error) {
	body, err := f.direct.Get(ctx, url)
	switch {
	case err == nil && len(body) > f.minBodyLength:
		return Page{URL: url, HTML: body}, nil
	case err == nil:
		err = fmt.Errorf("%w (%d bytes)", ErrShortBody, len(body))
		f.logger.Warn("direct fetch returned short HTML, falling back to browser", "url", url, "bytes", len(body))
	case errors.Is(err, ErrRobotsBlocked):
		return Page{}, err
	default:
		f.logger.Warn("direct fetch failed, falling back to browser", "url", url, "error", err)
	}

	if f.browser == nil {
		return Page{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	html, rerr := f.browser.Render(ctx, url)
	if rerr != nil {
		return Page{}, fmt.Errorf("fetch %s: %w", url, errors.Join(err, rerr))
	}
	return Page{URL: url, HTML: html, Rendered: true}, nil
}
