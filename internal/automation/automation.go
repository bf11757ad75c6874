// Package automation runs a Chrome browser through the DevTools protocol and
// exposes it as a registry.Session.
package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/Dfera000/Buscador-nuevas-ediciones/internal/errors"
	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/registry"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

const defaultPollInterval = 250 * time.Millisecond

// ErrPollTimeout is wrapped by PollWithTimeout when the deadline passes.
var ErrPollTimeout = errors.New("timeout")

// CDPRunner abstracts the chromedp entry points so sessions can be tested
// without a browser.
type CDPRunner interface {
	NewExecAllocator(ctx context.Context, opts ...chromedp.ExecAllocatorOption) (context.Context, context.CancelFunc)
	NewContext(parent context.Context, opts ...chromedp.ContextOption) (context.Context, context.CancelFunc)
	Run(ctx context.Context, actions ...chromedp.Action) error
}

// DefaultCDPRunner calls chromedp directly.
type DefaultCDPRunner struct{}

func (DefaultCDPRunner) NewExecAllocator(ctx context.Context, opts ...chromedp.ExecAllocatorOption) (context.Context, context.CancelFunc) {
	return chromedp.NewExecAllocator(ctx, opts...)
}

func (DefaultCDPRunner) NewContext(parent context.Context, opts ...chromedp.ContextOption) (context.Context, context.CancelFunc) {
	return chromedp.NewContext(parent, opts...)
}

func (DefaultCDPRunner) Run(ctx context.Context, actions ...chromedp.Action) error {
	return chromedp.Run(ctx, actions...)
}

// AutomationOptions holds common configuration for browser automation
type AutomationOptions struct {
	Headless bool
}

// BuildExecAllocatorOptions returns the Chrome flags used for every session.
func BuildExecAllocatorOptions(opts AutomationOptions) []chromedp.ExecAllocatorOption {
	return []chromedp.ExecAllocatorOption{
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoFirstRun,
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.WindowSize(1280, 1024),
	}
}

// ChromeSession is one browser tab kept open for a whole batch.
type ChromeSession struct {
	runner       CDPRunner
	ctx          context.Context
	cleanup      func()
	pollInterval time.Duration

	// hasNode reports whether an XPath currently matches anything
	hasNode func(ctx context.Context, selector string) (bool, error)
}

var _ registry.Session = (*ChromeSession)(nil)

// NewBrowser launches Chrome and opens a blank tab. Startup failures are
// returned as a SessionError.
func NewBrowser(ctx context.Context, runner CDPRunner, opts AutomationOptions) (*ChromeSession, error) {
	if runner == nil {
		runner = DefaultCDPRunner{}
	}

	allocCtx, cancelAllocator := runner.NewExecAllocator(ctx, BuildExecAllocatorOptions(opts)...)
	browserCtx, cancelBrowser := runner.NewContext(allocCtx)
	cleanup := func() {
		cancelBrowser()
		cancelAllocator()
	}

	// an empty Run starts the browser
	if err := runner.Run(browserCtx); err != nil {
		cleanup()
		return nil, apperrors.NewSessionError("start", err)
	}

	s := &ChromeSession{
		runner:       runner,
		ctx:          browserCtx,
		cleanup:      cleanup,
		pollInterval: defaultPollInterval,
	}
	s.hasNode = s.queryNodes
	slog.Debug("Browser session started", "headless", opts.Headless)
	return s, nil
}

// Close shuts the tab and the browser down.
func (s *ChromeSession) Close() {
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
		slog.Debug("Browser session closed")
	}
}

// run executes actions on the session's tab, aborting when ctx ends.
func (s *ChromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return s.runner.Run(runCtx, actions...)
}

func (s *ChromeSession) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := s.run(ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("failed to read page url: %w", err)
	}
	return url, nil
}

func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// WaitAny polls until one of selectors matches and returns it. Expiry is
// reported as registry.ErrWaitTimeout.
func (s *ChromeSession) WaitAny(ctx context.Context, selectors []string, timeout time.Duration) (string, error) {
	slog.Debug("Waiting for selector", "selectors", strings.Join(selectors, " | "), "timeout", timeout)

	interval := min(s.pollInterval, timeout)
	if interval <= 0 {
		interval = defaultPollInterval
	}

	sel, err := PollWithTimeout(ctx, interval, timeout, "selector", func() (string, bool, error) {
		for _, sel := range selectors {
			found, err := s.hasNode(ctx, sel)
			if err != nil {
				return "", false, err
			}
			if found {
				return sel, true, nil
			}
		}
		return "", false, nil
	})
	if errors.Is(err, ErrPollTimeout) {
		return "", registry.ErrWaitTimeout
	}
	return sel, err
}

// Click clicks the first element matching selector from page script, which
// also reaches elements covered by overlays.
func (s *ChromeSession) Click(ctx context.Context, selector string) error {
	var clicked bool
	script := fmt.Sprintf(`(() => {
		const el = document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
		if (!el) return false;
		el.click();
		return true;
	})()`, strconv.Quote(selector))

	if err := s.run(ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		return fmt.Errorf("failed to click %s: %w", selector, err)
	}
	if !clicked {
		return fmt.Errorf("failed to click %s: element not found", selector)
	}
	return nil
}

func (s *ChromeSession) SetText(ctx context.Context, selector, text string) error {
	tasks := chromedp.Tasks{
		chromedp.ScrollIntoView(selector, chromedp.BySearch),
		chromedp.Clear(selector, chromedp.BySearch),
		chromedp.SendKeys(selector, text, chromedp.BySearch),
	}
	if err := s.run(ctx, tasks); err != nil {
		return fmt.Errorf("failed to type into %s: %w", selector, err)
	}
	return nil
}

func (s *ChromeSession) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page html: %w", err)
	}
	return html, nil
}

func (s *ChromeSession) queryNodes(ctx context.Context, selector string) (bool, error) {
	var nodes []*cdp.Node
	if err := s.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.BySearch, chromedp.AtLeast(0))); err != nil {
		return false, fmt.Errorf("failed to query %s: %w", selector, err)
	}
	return len(nodes) > 0, nil
}

// PollWithTimeout polls a condition function at regular intervals until it succeeds, times out, or context is canceled.
// The checkFunc returns (result, found, error). If found is true, polling stops and result is returned.
// If checkFunc returns an error, polling stops and the error is returned.
// The description is used in timeout error messages.
func PollWithTimeout[T any](ctx context.Context, interval, timeout time.Duration, description string, checkFunc func() (T, bool, error)) (T, error) {
	var zero T
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	tries := 0
	for {
		result, found, err := checkFunc()
		if err != nil {
			return zero, err
		}
		if found {
			return result, nil
		}

		tries++
		if tries%5 == 0 {
			slog.Debug("Polling", "description", description, "tries", tries, "elapsed", time.Since(deadline.Add(-timeout)))
		}

		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("polling canceled for %s: %w", description, ctx.Err())
		case <-ticker.C:
			if time.Now().After(deadline) {
				return zero, fmt.Errorf("%w waiting for %s", ErrPollTimeout, description)
			}
		}
	}
}
