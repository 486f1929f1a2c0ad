package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/custodia-labs/policylens/internal/core/domain"
	"github.com/custodia-labs/policylens/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.FetchStrategy = (*BrowserStrategy)(nil)

// Browser rendering defaults
const (
	DefaultSettleDelay    = 2 * time.Second
	DefaultIdleWait       = 10 * time.Second
	DefaultScrollStep     = 400
	DefaultScrollDelay    = 100 * time.Millisecond
	DefaultMaxScrollSteps = 200
	viewportWidth         = 1920
	viewportHeight        = 1080
)

// stealthScript hides the most common headless automation fingerprints
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
window.chrome = window.chrome || { runtime: {} };
const originalQuery = window.navigator.permissions && window.navigator.permissions.query;
if (originalQuery) {
  window.navigator.permissions.query = (parameters) => (
    parameters.name === 'notifications'
      ? Promise.resolve({ state: Notification.permission })
      : originalQuery(parameters)
  );
}
`

// scrollScript scrolls one step and reports the resulting position
const scrollScript = `(() => {
  window.scrollBy(0, %d);
  const el = document.scrollingElement || document.documentElement || document.body;
  return { y: window.scrollY, height: el ? el.scrollHeight : 0, viewport: window.innerHeight };
})()`

// BrowserConfig configures the headless browser strategy
type BrowserConfig struct {
	// ExecPath overrides the Chrome binary; empty uses chromedp discovery
	ExecPath string

	UserAgent      string
	Timeout        time.Duration
	SettleDelay    time.Duration
	IdleWait       time.Duration
	ScrollStep     int
	ScrollDelay    time.Duration
	MaxScrollSteps int
	Logger         *slog.Logger
}

// BrowserStrategy renders pages in a headless Chrome instance scoped to one fetch
type BrowserStrategy struct {
	execPath       string
	userAgent      string
	timeout        time.Duration
	settleDelay    time.Duration
	idleWait       time.Duration
	scrollStep     int
	scrollDelay    time.Duration
	maxScrollSteps int
	logger         *slog.Logger
}

// NewBrowserStrategy creates a BrowserStrategy. Zero config values take the defaults.
func NewBrowserStrategy(cfg BrowserConfig) *BrowserStrategy {
	s := &BrowserStrategy{
		execPath:       cfg.ExecPath,
		userAgent:      cfg.UserAgent,
		timeout:        cfg.Timeout,
		settleDelay:    cfg.SettleDelay,
		idleWait:       cfg.IdleWait,
		scrollStep:     cfg.ScrollStep,
		scrollDelay:    cfg.ScrollDelay,
		maxScrollSteps: cfg.MaxScrollSteps,
		logger:         cfg.Logger,
	}
	if s.userAgent == "" {
		s.userAgent = DefaultUserAgent
	}
	if s.timeout <= 0 {
		s.timeout = domain.DefaultNavigationTimeout
	}
	if s.settleDelay <= 0 {
		s.settleDelay = DefaultSettleDelay
	}
	if s.idleWait <= 0 {
		s.idleWait = DefaultIdleWait
	}
	if s.scrollStep <= 0 {
		s.scrollStep = DefaultScrollStep
	}
	if s.scrollDelay <= 0 {
		s.scrollDelay = DefaultScrollDelay
	}
	if s.maxScrollSteps <= 0 {
		s.maxScrollSteps = DefaultMaxScrollSteps
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Method identifies the strategy
func (s *BrowserStrategy) Method() domain.FetchMethod {
	return domain.FetchMethodBrowser
}

// Fetch launches a browser, navigates, waits for the network to go idle, scrolls to the
// bottom to trigger lazy content and returns the rendered DOM.
// The browser process is torn down on every return path.
func (s *BrowserStrategy) Fetch(ctx context.Context, url string) (*domain.FetchResult, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-automation", false),
		chromedp.UserAgent(s.userAgent),
		chromedp.WindowSize(viewportWidth, viewportHeight),
	)
	if s.execPath != "" {
		opts = append(opts, chromedp.ExecPath(s.execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancel := context.WithTimeout(browserCtx, s.timeout)
	defer cancel()

	idle := make(chan struct{}, 1)
	chromedp.ListenTarget(runCtx, func(ev interface{}) {
		if e, ok := ev.(*page.EventLifecycleEvent); ok && e.Name == "networkIdle" {
			select {
			case idle <- struct{}{}:
			default:
			}
		}
	})

	var html string
	err := chromedp.Run(runCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
		page.SetLifecycleEventsEnabled(true),
		chromedp.Navigate(url),
		s.waitForNetworkIdle(idle),
		chromedp.Sleep(s.settleDelay),
		s.autoScroll(),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, domain.NewFetchError(url, "browser render failed", err)
	}
	if blockErr := DetectBlock(0, html); blockErr != nil {
		return nil, domain.NewFetchError(url, "blocked by anti-bot protection", blockErr)
	}
	if html == "" {
		return nil, domain.NewFetchError(url, "browser returned an empty document", nil)
	}

	s.logger.Debug("rendered page in browser", "url", url, "bytes", len(html))
	return &domain.FetchResult{
		URL:    url,
		HTML:   html,
		Method: domain.FetchMethodBrowser,
	}, nil
}

// waitForNetworkIdle blocks until the page reports network idle or the idle wait elapses.
// Pages that keep long-polling connections open never go idle; they proceed after the wait.
func (s *BrowserStrategy) waitForNetworkIdle(idle <-chan struct{}) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		timer := time.NewTimer(s.idleWait)
		defer timer.Stop()

		select {
		case <-idle:
		case <-timer.C:
			s.logger.Debug("network idle wait elapsed")
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	})
}

// ScrollPosition is the page state reported after one scroll step
type ScrollPosition struct {
	Y        float64 `json:"y"`
	Height   float64 `json:"height"`
	Viewport float64 `json:"viewport"`
}

// ScrollDone reports whether the viewport has reached the bottom of the document
func ScrollDone(pos ScrollPosition) bool {
	return pos.Y+0.5 >= pos.Height-pos.Viewport
}

// autoScroll scrolls in fixed steps until the bottom is reached or the step cap is hit
func (s *BrowserStrategy) autoScroll() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		script := fmt.Sprintf(scrollScript, s.scrollStep)
		for i := 0; i < s.maxScrollSteps; i++ {
			var pos ScrollPosition
			if err := chromedp.Evaluate(script, &pos).Do(ctx); err != nil {
				return fmt.Errorf("failed to scroll: %w", err)
			}
			if ScrollDone(pos) {
				return nil
			}

			select {
			case <-time.After(s.scrollDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		s.logger.Debug("auto-scroll stopped at step cap", "steps", s.maxScrollSteps)
		return nil
	})
}
