package fetcher

import (
	"context"
	"fmt"
	"time"
)

// Fetcher interface defines the contract for fetching implementations
type Fetcher interface {
	// Fetch retrieves the HTML of a single page.
	// A non-200 upstream answer is reported as *StatusError.
	Fetch(ctx context.Context, url string) (string, error)
}

const (
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/119.0 Safari/537.36"
	DefaultAcceptLanguage = "de-CH,de;q=0.9,en;q=0.8"
	DefaultTimeout        = 20 * time.Second

	acceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

// Options are shared by all fetchers
type Options struct {
	UserAgent      string
	AcceptLanguage string
	Timeout        time.Duration
}

// DefaultOptions returns the browser-like defaults the site expects
func DefaultOptions() Options {
	return Options{
		UserAgent:      DefaultUserAgent,
		AcceptLanguage: DefaultAcceptLanguage,
		Timeout:        DefaultTimeout,
	}
}

func (o Options) withDefaults() Options {
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.AcceptLanguage == "" {
		o.AcceptLanguage = DefaultAcceptLanguage
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// StatusError is returned when the upstream answers with anything but 200
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d for %s", e.StatusCode, e.URL)
}
