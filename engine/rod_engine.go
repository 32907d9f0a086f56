package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/shelfprice/models"
	"github.com/ysmood/gson"
)

// RodOptions configure the headless Chromium backend.
type RodOptions struct {
	Headless   bool
	NoSandbox  bool
	BrowserBin string
	Proxy      string

	// BlockedResourceTypes are CDP resource type names ("Image", "Font",
	// ...) that sessions never load.
	BlockedResourceTypes []string

	// BlockTrackers drops requests to well-known ad and analytics hosts.
	BlockTrackers bool
}

// RodLauncher drives one Chromium process. Every session gets its own
// incognito browser context, so cookies and cache are never shared.
type RodLauncher struct {
	browser *rod.Browser
	opts    RodOptions
	pid     int

	active atomic.Int32
	total  atomic.Int64
}

// NewRodLauncher launches Chromium and connects to it.
func NewRodLauncher(opts RodOptions) (*RodLauncher, error) {
	l := launcher.New().
		Headless(opts.Headless).
		NoSandbox(opts.NoSandbox)

	if opts.BrowserBin != "" {
		l = l.Bin(opts.BrowserBin)
	}
	if opts.Proxy != "" {
		l = l.Proxy(opts.Proxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL, "pid", l.PID())

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}

	return &RodLauncher{browser: browser, opts: opts, pid: l.PID()}, nil
}

func (l *RodLauncher) Name() string { return "browser" }

// Launch opens a fresh incognito context with a single page in it.
//
// Order matters: stealth JS, the user agent override and the hijack router
// only apply to navigations that happen after they are installed.
func (l *RodLauncher) Launch(ctx context.Context, opts SessionOptions) (Session, error) {
	incognito, err := l.browser.Context(ctx).Incognito()
	if err != nil {
		return nil, fmt.Errorf("rod: create incognito context: %w", err)
	}

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("rod: open page: %w", err)
	}

	if opts.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", evalErr,
			)
		}
	}

	if opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent: opts.UserAgent,
		}); err != nil {
			_ = page.Close()
			_ = incognito.Close()
			return nil, fmt.Errorf("rod: set user agent: %w", err)
		}
	}

	if len(opts.Headers) > 0 {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(opts.Headers),
		}.Call(page)
	}

	router := setupHijack(page, l.opts.BlockedResourceTypes, l.opts.BlockTrackers)

	l.active.Add(1)
	l.total.Add(1)

	return &rodSession{
		launcher:  l,
		launchCtx: ctx,
		incognito: incognito,
		page:      page,
		router:    router,
	}, nil
}

// Stats returns a snapshot of session usage.
func (l *RodLauncher) Stats() models.SessionStats {
	return models.SessionStats{
		Active:     int(l.active.Load()),
		Total:      l.total.Load(),
		BrowserPID: l.pid,
	}
}

// Close kills the browser process.
// Call this on graceful shutdown to prevent zombie Chrome processes.
func (l *RodLauncher) Close() error {
	slog.Info("closing browser", "pid", l.pid)
	return l.browser.Close()
}

// sessionCloseTimeout bounds session teardown.
const sessionCloseTimeout = 5 * time.Second

// teardownContext keeps parent's values but not its cancellation: a
// session opened for a query that was cancelled must still be disposed,
// or its browser context lives until Chromium exits.
func teardownContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(parent), sessionCloseTimeout)
}

type rodSession struct {
	launcher  *RodLauncher
	launchCtx context.Context
	incognito *rod.Browser
	page      *rod.Page
	router    *rod.HijackRouter

	navigated bool
	closeOnce sync.Once
	closed    atomic.Bool
}

func (s *rodSession) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	p := s.page.Context(ctx)

	// The lifecycle listener must exist before Navigate or the event is missed.
	wait := p.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := p.Navigate(url); err != nil {
		return deadlineAs(ctx, err, ErrNavigationTimeout)
	}
	wait()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrNavigationTimeout, url)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.navigated = true
	return nil
}

func (s *rodSession) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if err := s.ready(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	el, err := s.page.Context(ctx).Element(selector)
	if err != nil {
		return deadlineAs(ctx, err, ErrWaitTimeout)
	}
	if err := el.WaitVisible(); err != nil {
		return deadlineAs(ctx, err, ErrWaitTimeout)
	}
	return nil
}

func (s *rodSession) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	els, err := s.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("rod: query %q: %w", selector, err)
	}
	out := make([]Element, len(els))
	for i, el := range els {
		out[i] = rodElement{el: el}
	}
	return out, nil
}

// Close stops the hijack router, closes the page and disposes the
// incognito context. Only the first call does anything.
func (s *rodSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		defer s.launcher.active.Add(-1)

		if s.router != nil {
			_ = s.router.Stop()
		}

		ctx, cancel := teardownContext(s.launchCtx)
		defer cancel()
		if pageErr := s.page.Context(ctx).Close(); pageErr != nil {
			slog.Debug("page close failed", "error", pageErr)
		}
		err = s.incognito.Context(ctx).Close()
	})
	return err
}

func (s *rodSession) ready() error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	if !s.navigated {
		return ErrNotNavigated
	}
	return nil
}

type rodElement struct {
	el *rod.Element
}

func (e rodElement) QueryOne(ctx context.Context, selector string) (Element, bool, error) {
	has, child, err := e.el.Context(ctx).Has(selector)
	if err != nil {
		return nil, false, fmt.Errorf("rod: query %q: %w", selector, err)
	}
	if !has {
		return nil, false, nil
	}
	return rodElement{el: child}, true, nil
}

func (e rodElement) Text(ctx context.Context) (string, error) {
	v, err := e.el.Context(ctx).Property("textContent")
	if err != nil {
		return "", fmt.Errorf("rod: read textContent: %w", err)
	}
	if v.Nil() {
		return "", nil
	}
	return v.Str(), nil
}

func (e rodElement) Attr(ctx context.Context, name string) (string, bool, error) {
	v, err := e.el.Context(ctx).Attribute(name)
	if err != nil {
		return "", false, fmt.Errorf("rod: read attribute %q: %w", name, err)
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// deadlineAs reports err as sentinel when ctx ran out of time.
func deadlineAs(ctx context.Context, err, sentinel error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", sentinel, err)
	}
	return err
}
