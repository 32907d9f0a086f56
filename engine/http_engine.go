package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/use-agent/shelfprice/models"
)

// HTTPOptions configure the static HTML backend.
type HTTPOptions struct {
	// Proxy is an optional upstream proxy URL.
	Proxy string

	// Transport replaces the Chrome-fingerprint transport. Tests inject an
	// httpmock transport here.
	Transport http.RoundTripper
}

// HTTPLauncher fetches search pages without a browser. It suits retailers
// that render listings server-side; nothing on the page is executed.
//
// Each session owns a fresh colly collector and therefore a fresh cookie
// jar. The TLS transport is shared.
type HTTPLauncher struct {
	transport http.RoundTripper

	active atomic.Int32
	total  atomic.Int64
}

// NewHTTPLauncher creates an HTTPLauncher with a Chrome-like TLS fingerprint.
func NewHTTPLauncher(opts HTTPOptions) (*HTTPLauncher, error) {
	transport := opts.Transport
	if transport == nil {
		t, err := NewChromeTransport(opts.Proxy)
		if err != nil {
			return nil, err
		}
		transport = t
	}
	return &HTTPLauncher{transport: transport}, nil
}

func (l *HTTPLauncher) Name() string { return "http" }

func (l *HTTPLauncher) Launch(ctx context.Context, opts SessionOptions) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := colly.NewCollector(
		colly.UserAgent(opts.UserAgent),
		colly.AllowURLRevisit(),
	)
	c.WithTransport(l.transport)
	// A browser renders error pages too; let extraction decide.
	c.ParseHTTPErrorResponse = true

	s := &httpSession{launcher: l, collector: c}

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		for k, v := range opts.Headers {
			r.Headers.Set(k, v)
		}
	})
	c.OnResponse(func(r *colly.Response) {
		s.status = r.StatusCode
		s.body = r.Body
	})

	l.active.Add(1)
	l.total.Add(1)
	return s, nil
}

// Stats returns a snapshot of session usage.
func (l *HTTPLauncher) Stats() models.SessionStats {
	return models.SessionStats{
		Active: int(l.active.Load()),
		Total:  l.total.Load(),
	}
}

// Close releases idle connections.
func (l *HTTPLauncher) Close() error {
	if t, ok := l.transport.(interface{ CloseIdleConnections() }); ok {
		t.CloseIdleConnections()
	}
	return nil
}

type httpSession struct {
	launcher  *HTTPLauncher
	collector *colly.Collector

	status int
	body   []byte
	doc    *Document

	closeOnce sync.Once
	closed    atomic.Bool
}

func (s *httpSession) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	s.collector.SetRequestTimeout(timeout)

	s.body = nil
	if err := s.collector.Visit(url); err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrNavigationTimeout, err)
		}
		return fmt.Errorf("http: visit %s: %w", url, err)
	}
	if s.body == nil {
		return fmt.Errorf("http: visit %s: no response body", url)
	}

	doc, err := ParseDocument(bytes.NewReader(s.body))
	if err != nil {
		return err
	}
	s.doc = doc
	slog.Debug("page fetched", "url", url, "status", s.status, "title", doc.Title())
	return nil
}

// WaitVisible checks presence once. Static markup has no layout and nothing
// will arrive later, so absence is reported as a wait timeout right away.
func (s *httpSession) WaitVisible(ctx context.Context, selector string, _ time.Duration) error {
	if err := s.ready(); err != nil {
		return err
	}
	if !s.doc.Has(selector) {
		return fmt.Errorf("%w: %s", ErrWaitTimeout, selector)
	}
	return nil
}

func (s *httpSession) QueryAll(_ context.Context, selector string) ([]Element, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.doc.QueryAll(selector), nil
}

func (s *httpSession) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.doc = nil
		s.body = nil
		s.launcher.active.Add(-1)
	})
	return nil
}

func (s *httpSession) ready() error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	if s.doc == nil {
		return ErrNotNavigated
	}
	return nil
}
