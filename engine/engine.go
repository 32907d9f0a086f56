// Package engine is the rendering-engine boundary. A Launcher hands out
// isolated Sessions; a Session loads one page and exposes just enough DOM
// querying for listing extraction.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/use-agent/shelfprice/models"
)

var (
	// ErrNavigationTimeout is returned by Navigate when the document did not
	// finish parsing within the timeout.
	ErrNavigationTimeout = errors.New("engine: navigation timed out")

	// ErrWaitTimeout is returned by WaitVisible when no element matched the
	// selector within the timeout. It describes page content, not a fault.
	ErrWaitTimeout = errors.New("engine: wait for selector timed out")

	// ErrSessionClosed is returned by any Session call after Close.
	ErrSessionClosed = errors.New("engine: session closed")

	// ErrNotNavigated is returned by DOM queries before a successful Navigate.
	ErrNotNavigated = errors.New("engine: no document loaded")
)

// SessionOptions configure a freshly launched session.
type SessionOptions struct {
	// UserAgent is the client identity presented to the site.
	UserAgent string

	// Headers are extra request headers sent with every request.
	Headers map[string]string

	// Stealth injects anti-automation evasions before navigation.
	Stealth bool
}

// Launcher creates rendering sessions. Implementations must be safe for
// concurrent use; each Session they return is owned by a single caller.
type Launcher interface {
	// Name identifies the backend (e.g. "browser", "http").
	Name() string

	// Launch acquires a fresh, isolated session. Sessions never share
	// cookies or cache.
	Launch(ctx context.Context, opts SessionOptions) (Session, error)

	// Stats reports session usage.
	Stats() models.SessionStats

	// Close releases backend-wide resources (e.g. the browser process).
	Close() error
}

// Session is one rendering context holding at most one loaded page.
type Session interface {
	// Navigate loads url and waits until the document has been parsed.
	Navigate(ctx context.Context, url string, timeout time.Duration) error

	// WaitVisible waits for at least one visible element matching selector.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error

	// QueryAll returns every element matching selector, in document order.
	QueryAll(ctx context.Context, selector string) ([]Element, error)

	// Close releases the session. Calling it more than once is an error-free
	// no-op.
	Close() error
}

// Element is a handle to one node of the loaded document.
type Element interface {
	// QueryOne returns the first descendant matching selector. It never
	// waits; ok is false when nothing matches.
	QueryOne(ctx context.Context, selector string) (el Element, ok bool, err error)

	// Text returns the node's textContent, untrimmed.
	Text(ctx context.Context) (string, error)

	// Attr returns the value of the named attribute.
	Attr(ctx context.Context, name string) (value string, ok bool, err error)
}
