package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"golang.org/x/time/rate"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	DefaultTimeout   = 15 * time.Second
)

var ErrRobotsBlocked = errors.New("blocked by robots.txt")

type FetchError struct {
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch error (status %d)", e.Status)
	}
	return fmt.Sprintf("fetch error (status %d): %v", e.Status, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type CollyOptions struct {
	UserAgent     string
	Timeout       time.Duration
	RespectRobots bool
	// RateInterval is the minimum spacing between requests to one host; zero disables throttling.
	RateInterval time.Duration
	RateBurst    int
}

// CollyFetcher performs the lightweight direct GET. A fresh collector is built
// per request so visited-URL bookkeeping never leaks between scrape passes.
type CollyFetcher struct {
	userAgent     string
	timeout       time.Duration
	respectRobots bool
	mu            sync.Mutex
	defaultRate   rate.Limit
	defaultBurst  int
	hosts         map[string]*rate.Limiter
}

func NewCollyFetcher(opts CollyOptions) *CollyFetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	limit := rate.Inf
	if opts.RateInterval > 0 {
		limit = rate.Every(opts.RateInterval)
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 1
	}
	return &CollyFetcher{
		userAgent:     opts.UserAgent,
		timeout:       opts.Timeout,
		respectRobots: opts.RespectRobots,
		defaultRate:   limit,
		defaultBurst:  opts.RateBurst,
		hosts:         make(map[string]*rate.Limiter),
	}
}

// Get returns the raw response body. Non-2xx responses are reported as *FetchError.
func (f *CollyFetcher) Get(ctx context.Context, rawURL string) (string, error) {
	target, err := normalizeURL(rawURL)
	if err != nil {
		return "", err
	}
	if err := f.limiterFor(hostKey(target)).Wait(ctx); err != nil {
		return "", err
	}

	var body []byte
	status, err := f.fetchOnce(ctx, target, func(c *colly.Collector) {
		c.OnResponse(func(r *colly.Response) {
			body = append([]byte(nil), r.Body...)
		})
	})
	if err != nil {
		if errors.Is(err, colly.ErrRobotsTxtBlocked) {
			return "", fmt.Errorf("%w: %s", ErrRobotsBlocked, target)
		}
		return "", &FetchError{Status: status, Err: err}
	}
	return string(body), nil
}

func (f *CollyFetcher) fetchOnce(ctx context.Context, target string, register func(*colly.Collector)) (int, error) {
	c := f.newCollector(ctx)
	if register != nil {
		register(c)
	}

	status := 0
	var reqErr error
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		reqErr = err
	})

	if err := c.Request(http.MethodGet, target, nil, nil, nil); err != nil {
		return status, err
	}
	if reqErr != nil {
		return status, reqErr
	}
	if status >= 400 {
		return status, fmt.Errorf("status %d", status)
	}
	if status == 0 {
		status = http.StatusOK
	}
	return status, nil
}

func (f *CollyFetcher) newCollector(ctx context.Context) *colly.Collector {
	c := colly.NewCollector(
		colly.UserAgent(f.userAgent),
		colly.StdlibContext(ctx),
	)
	c.IgnoreRobotsTxt = !f.respectRobots
	c.SetRequestTimeout(f.timeout)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-ZA,en;q=0.9")
	})
	return c
}

func (f *CollyFetcher) limiterFor(host string) *rate.Limiter {
	if host == "" {
		host = "default"
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.hosts[host]; ok {
		return l
	}
	l := rate.NewLimiter(f.defaultRate, f.defaultBurst)
	f.hosts[host] = l
	return l
}

func normalizeURL(rawURL string) (string, error) {
	if rawURL == "" {
		return "", errors.New("empty url")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	return u.String(), nil
}

func normalizeHost(host string) string {
	host = strings.ToLower(host)
	host = strings.TrimPrefix(host, "www.")
	return host
}

func hostKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "default"
	}
	return normalizeHost(u.Hostname())
}
