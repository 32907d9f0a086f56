package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/use-agent/shelfprice/config"
	"github.com/use-agent/shelfprice/engine"
	"github.com/use-agent/shelfprice/models"
	"github.com/use-agent/shelfprice/retailer"
)

// fakeLauncher serves canned HTML per URL and records session lifecycles.
type fakeLauncher struct {
	mu sync.Mutex

	pages     map[string]string
	navErrs   map[string]error
	waitErrs  map[string]error
	launchErr error
	panicOn   string

	sessions []*fakeSession
	visited  []string
}

func newFakeLauncher() *fakeLauncher {
	return &fakeLauncher{
		pages:    make(map[string]string),
		navErrs:  make(map[string]error),
		waitErrs: make(map[string]error),
	}
}

func (l *fakeLauncher) Name() string { return "fake" }

func (l *fakeLauncher) Launch(ctx context.Context, opts engine.SessionOptions) (engine.Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.launchErr != nil {
		return nil, l.launchErr
	}
	s := &fakeSession{launcher: l, opts: opts}
	l.sessions = append(l.sessions, s)
	return s, nil
}

func (l *fakeLauncher) Stats() models.SessionStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	active := 0
	for _, s := range l.sessions {
		if s.closes == 0 {
			active++
		}
	}
	return models.SessionStats{Active: active, Total: int64(len(l.sessions))}
}

func (l *fakeLauncher) Close() error { return nil }

func (l *fakeLauncher) launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sessions)
}

// assertClosedOnce fails unless every session was closed exactly once.
func (l *fakeLauncher) assertClosedOnce(t *testing.T) {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, s := range l.sessions {
		if s.closes != 1 {
			t.Errorf("session %d (%s) closed %d times, want 1", i, s.url, s.closes)
		}
	}
}

type fakeSession struct {
	launcher *fakeLauncher
	opts     engine.SessionOptions
	url      string
	doc      *engine.Document
	closes   int
}

func (s *fakeSession) Navigate(_ context.Context, url string, _ time.Duration) error {
	l := s.launcher
	l.mu.Lock()
	defer l.mu.Unlock()

	s.url = url
	l.visited = append(l.visited, url)
	if s.closes > 0 {
		return engine.ErrSessionClosed
	}
	if err := l.navErrs[url]; err != nil {
		return err
	}
	if l.panicOn == url {
		panic("renderer exploded")
	}
	body, ok := l.pages[url]
	if !ok {
		return fmt.Errorf("fake: no page for %s", url)
	}
	doc, err := engine.ParseDocument(strings.NewReader(body))
	if err != nil {
		return err
	}
	s.doc = doc
	return nil
}

func (s *fakeSession) WaitVisible(_ context.Context, selector string, _ time.Duration) error {
	s.launcher.mu.Lock()
	err := s.launcher.waitErrs[s.url]
	s.launcher.mu.Unlock()
	if err != nil {
		return err
	}
	if !s.doc.Has(selector) {
		return engine.ErrWaitTimeout
	}
	return nil
}

func (s *fakeSession) QueryAll(_ context.Context, selector string) ([]engine.Element, error) {
	if s.doc == nil {
		return nil, engine.ErrNotNavigated
	}
	return s.doc.QueryAll(selector), nil
}

func (s *fakeSession) Close() error {
	s.launcher.mu.Lock()
	defer s.launcher.mu.Unlock()
	s.closes++
	return nil
}

var errConnReset = errors.New("connection reset by peer")

func testProfiles() []retailer.Profile {
	return []retailer.Profile{
		{
			Name:      "Alpha",
			SearchURL: "https://alpha.test/search/{term}",
			Locators: retailer.Locators{
				Listing:     ".product",
				DisplayName: ".title",
				DetailLink:  "a",
				Price:       ".price",
				Brand:       ".brand",
			},
		},
		{
			Name:      "Beta",
			SearchURL: "https://beta.test/search?q={term}",
			Locators: retailer.Locators{
				Listing:     "li.result",
				DisplayName: "h3",
				Price:       "span.cost",
			},
		},
	}
}

func testConfig() config.ScraperConfig {
	return config.ScraperConfig{
		NavigationTimeout: time.Second,
		ContentTimeout:    time.Second,
		UserAgent:         config.DefaultUserAgent,
		Stealth:           true,
		MaxItems:          50,
	}
}

func newTestScraper(t *testing.T, l *fakeLauncher, opts ...Option) *Scraper {
	t.Helper()
	reg, err := retailer.NewRegistry(testProfiles()...)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return New(l, reg, testConfig(), opts...)
}

func alphaPage(products ...string) string {
	return "<html><body>" + strings.Join(products, "") + "</body></html>"
}

func alphaProduct(title, price string) string {
	p := `<div class="product"><a href="/p"><span class="title">` + title + `</span></a>`
	if price != "" {
		p += `<span class="price">` + price + `</span>`
	}
	return p + `</div>`
}

func betaPage(items ...string) string {
	return "<html><body><ul>" + strings.Join(items, "") + "</ul></body></html>"
}

func betaItem(title, price string) string {
	return `<li class="result"><h3>` + title + `</h3><span class="cost">` + price + `</span></li>`
}
