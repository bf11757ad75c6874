// Package registry searches the Spanish national ISBN registry
// (cultura.gob.es) through a live browser session and picks the most recent
// edition among the results.
package registry

import (
	"context"
	"errors"
	"time"
)

// ErrWaitTimeout is returned by Session.WaitAny when none of the selectors
// appeared in time.
var ErrWaitTimeout = errors.New("registry: wait timed out")

// Session is the slice of a browser the registry search needs. Selectors
// are XPath expressions.
type Session interface {
	CurrentURL(ctx context.Context) (string, error)
	Navigate(ctx context.Context, url string) error
	// WaitAny blocks until one of selectors matches an element and returns
	// that selector, or ErrWaitTimeout after timeout.
	WaitAny(ctx context.Context, selectors []string, timeout time.Duration) (string, error)
	Click(ctx context.Context, selector string) error
	// SetText clears the input matched by selector and types text into it.
	SetText(ctx context.Context, selector, text string) error
	HTML(ctx context.Context) (string, error)
}

// Handle is one browser session plus what the registry has learned about
// it. The batch driver creates it, passes it to every search, and closes
// the session itself.
type Handle struct {
	Session        Session
	cookiesHandled bool
}

// NewHandle wraps s. A nil s yields a handle whose searches report
// edition.StatusNoBrowser.
func NewHandle(s Session) *Handle {
	return &Handle{Session: s}
}

// CookiesHandled reports whether the cookie banner step already ran.
func (h *Handle) CookiesHandled() bool {
	return h != nil && h.cookiesHandled
}

func (h *Handle) usable() bool {
	return h != nil && h.Session != nil
}
