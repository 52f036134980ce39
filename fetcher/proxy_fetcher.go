package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// ProxyFetcher implements the Fetcher interface through a third-party fetch proxy.
// The proxy is called as GET <endpoint>?api_key=<key>&url=<target> and is expected
// to answer with the target page's HTML.
type ProxyFetcher struct {
	client   *resty.Client
	endpoint string
	apiKey   string
}

// NewProxyFetcher creates a new ProxyFetcher instance
func NewProxyFetcher(endpoint, apiKey string, opts Options) *ProxyFetcher {
	opts = opts.withDefaults()

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("Accept", acceptHeader).
		SetHeader("Accept-Language", opts.AcceptLanguage)

	return &ProxyFetcher{
		client:   client,
		endpoint: endpoint,
		apiKey:   apiKey,
	}
}

// Fetch implements the Fetcher interface
func (pf *ProxyFetcher) Fetch(ctx context.Context, target string) (string, error) {
	log := zerolog.Ctx(ctx)

	res, err := pf.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"api_key": pf.apiKey,
			"url":     target,
		}).
		Get(pf.endpoint)
	if err != nil {
		// *url.Error embeds the full request URL, which carries the API key
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return "", fmt.Errorf("fetch proxy request for %s failed: %w", target, err)
	}

	if res.StatusCode() != http.StatusOK {
		log.Debug().Str("url", target).Int("status", res.StatusCode()).Msg("fetch proxy returned error status")
		return "", &StatusError{StatusCode: res.StatusCode(), URL: target}
	}

	log.Debug().Str("url", target).Int("bytes", len(res.Body())).Msg("fetched page via proxy")
	return res.String(), nil
}
