package fetcher

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog"
)

// CollyFetcher implements the Fetcher interface using colly, talking to the site directly
type CollyFetcher struct {
	opts Options
}

// NewCollyFetcher creates a new CollyFetcher instance
func NewCollyFetcher(opts Options) *CollyFetcher {
	return &CollyFetcher{
		opts: opts.withDefaults(),
	}
}

// Fetch implements the Fetcher interface.
// Every call uses its own collector so requests never share state.
func (cf *CollyFetcher) Fetch(ctx context.Context, url string) (string, error) {
	log := zerolog.Ctx(ctx)

	c := colly.NewCollector(
		colly.UserAgent(cf.opts.UserAgent),
		colly.StdlibContext(ctx),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(cf.opts.Timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", acceptHeader)
		r.Headers.Set("Accept-Language", cf.opts.AcceptLanguage)
	})

	var (
		body   string
		status int
	)

	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = string(r.Body)
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		log.Debug().Err(err).Str("url", url).Int("status", status).Msg("colly request failed")
	})

	err := c.Visit(url)
	if status != 0 && status != http.StatusOK {
		return "", &StatusError{StatusCode: status, URL: url}
	}
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}

	log.Debug().Str("url", url).Int("bytes", len(body)).Msg("fetched page")
	return body, nil
}
