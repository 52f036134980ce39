package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"zebis-scraper/fetcher"
	"zebis-scraper/models"
	"zebis-scraper/parser"
	"zebis-scraper/query"

	"github.com/rs/zerolog"
)

// UpstreamError is returned when the results page could not be retrieved.
// StatusCode is zero for network failures.
type UpstreamError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream returned status %d for %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Service runs a search end to end: validate, build URL, fetch, parse
type Service struct {
	catalog *query.Catalog
	builder *query.Builder
	fetcher fetcher.Fetcher
	parser  *parser.Parser
}

// NewService creates a new Service
func NewService(catalog *query.Catalog, builder *query.Builder, f fetcher.Fetcher, p *parser.Parser) *Service {
	return &Service{
		catalog: catalog,
		builder: builder,
		fetcher: f,
		parser:  p,
	}
}

// Catalog returns the catalog used for validation
func (s *Service) Catalog() *query.Catalog {
	return s.catalog
}

// Search validates the raw parameters and returns the parsed results.
// Validation failures are returned as *query.ValidationError before any fetch,
// fetch failures as *UpstreamError.
func (s *Service) Search(ctx context.Context, topic, grade, subject string) (*models.SearchResponse, error) {
	q, err := s.catalog.Validate(topic, grade, subject)
	if err != nil {
		return nil, err
	}

	searchURL, err := s.builder.BuildURL(q)
	if err != nil {
		return nil, fmt.Errorf("failed to build search URL: %w", err)
	}

	log := zerolog.Ctx(ctx).With().Str("source_url", searchURL).Logger()

	start := time.Now()
	html, err := s.fetcher.Fetch(ctx, searchURL)
	if err != nil {
		upstreamErr := &UpstreamError{URL: searchURL, Err: err}
		var statusErr *fetcher.StatusError
		if errors.As(err, &statusErr) {
			upstreamErr.StatusCode = statusErr.StatusCode
		}
		log.Warn().Err(err).Int("upstream_status", upstreamErr.StatusCode).Msg("upstream fetch failed")
		return nil, upstreamErr
	}

	items, err := s.parser.ParseHTML(html)
	if err != nil {
		return nil, &UpstreamError{URL: searchURL, Err: err}
	}

	log.Info().
		Str("topic", q.Topic).
		Str("grade", q.Grade).
		Str("subject", q.Subject).
		Int("count", len(items)).
		Dur("fetch_duration", time.Since(start)).
		Msg("search completed")

	return models.NewSearchResponse(q, searchURL, items), nil
}
