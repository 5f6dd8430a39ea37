package sniffer

import "context"

// Request is an outbound request observed inside a browser session.
// ResourceType uses DevTools names (Document, Script, Image, Stylesheet, Font, XHR, ...).
type Request struct {
	URL          string
	ResourceType string
}

// Verdict tells the session whether an intercepted request may proceed.
type Verdict int

const (
	Continue Verdict = iota
	Abort
)

func (v Verdict) String() string {
	if v == Abort {
		return "abort"
	}
	return "continue"
}

// InterceptFunc is called for every outbound request of a session, possibly
// from a goroutine other than the one driving navigation.
type InterceptFunc func(Request) Verdict

// Session is one isolated browser context with a single page.
type Session interface {
	// Intercept installs fn as the request observer. It must be called before Navigate.
	Intercept(fn InterceptFunc) error
	// Navigate loads url and returns once the initial document is parsed
	// or ctx is done.
	Navigate(ctx context.Context, url string) error
	// Close releases every resource held by the session. It is safe to call more than once.
	Close() error
}

// Browser hands out isolated sessions. Sessions never share cookies, storage or caches.
type Browser interface {
	NewSession(ctx context.Context) (Session, error)
}
