package httpx

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const DefaultBrowserTimeout = 30 * time.Second

type BrowserOptions struct {
	// ExecPath overrides Chrome auto-detection, e.g. /usr/bin/chromium-browser in containers.
	ExecPath  string
	UserAgent string
	Timeout   time.Duration
}

// ChromeRenderer renders a page in headless Chrome and returns the final DOM.
// Every Render call launches its own browser process and tears it down before returning.
type ChromeRenderer struct {
	execPath  string
	userAgent string
	timeout   time.Duration
}

func NewChromeRenderer(opts BrowserOptions) *ChromeRenderer {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultBrowserTimeout
	}
	return &ChromeRenderer{
		execPath:  opts.ExecPath,
		userAgent: opts.UserAgent,
		timeout:   opts.Timeout,
	}
}

func (r *ChromeRenderer) Render(ctx context.Context, rawURL string) (string, error) {
	target, err := normalizeURL(rawURL)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(r.userAgent),
	)
	if r.execPath != "" {
		opts = append(opts, chromedp.ExecPath(r.execPath))
	}

	// Cancelling the allocator kills the browser process; the deferred calls
	// run on every return path, including panics inside chromedp actions.
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	if err := chromedp.Run(tabCtx); err != nil {
		return "", fmt.Errorf("launch browser: %w", err)
	}
	idle := networkIdle(tabCtx)

	var html string
	err = chromedp.Run(tabCtx,
		page.SetLifecycleEventsEnabled(true),
		chromedp.Navigate(target),
		chromedp.ActionFunc(func(ctx context.Context) error {
			select {
			case <-idle:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", target, err)
	}
	return html, nil
}

// networkIdle closes the returned channel once the main frame reports
// networkIdle after its latest navigation start.
func networkIdle(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	tracker := newIdleTracker(cdp.FrameID(chromedp.FromContext(ctx).Target.TargetID))
	var once sync.Once
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		e, ok := ev.(*page.EventLifecycleEvent)
		if !ok {
			return
		}
		if tracker.observe(e) {
			once.Do(func() { close(done) })
		}
	})
	return done
}

// idleTracker follows lifecycle events of one frame. Events from iframes are
// ignored; an init on the main frame starts a new navigation and forgets any
// earlier idle state.
type idleTracker struct {
	mainFrame cdp.FrameID
	mu        sync.Mutex
	started   bool
}

func newIdleTracker(mainFrame cdp.FrameID) *idleTracker {
	return &idleTracker{mainFrame: mainFrame}
}

// observe reports whether e marks the main frame as network idle.
func (t *idleTracker) observe(e *page.EventLifecycleEvent) bool {
	if e == nil || e.FrameID != t.mainFrame {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	switch e.Name {
	case "init":
		t.started = true
	case "networkIdle":
		return t.started
	}
	return false
}
