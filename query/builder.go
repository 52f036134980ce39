package query

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"zebis-scraper/models"
)

// ErrUnknownCategory is returned when a query was not validated against the catalog
var ErrUnknownCategory = errors.New("unknown category")

// Builder constructs search URLs for the target site
type Builder struct {
	baseURL string
	catalog *Catalog
}

// NewBuilder creates a Builder for the given search page, e.g. https://www.zebis.ch/suche
func NewBuilder(baseURL string, catalog *Catalog) *Builder {
	return &Builder{
		baseURL: baseURL,
		catalog: catalog,
	}
}

// BuildURL returns the search URL for a validated query.
// The grade filter always precedes the subject filter.
func (b *Builder) BuildURL(q models.SearchQuery) (string, error) {
	grade, ok := b.catalog.Grade(q.Grade)
	if !ok {
		return "", fmt.Errorf("%w: grade %q", ErrUnknownCategory, q.Grade)
	}
	subject, ok := b.catalog.Subject(q.Subject)
	if !ok {
		return "", fmt.Errorf("%w: subject %q", ErrUnknownCategory, q.Subject)
	}

	return fmt.Sprintf(
		"%s?keys=%s&f[0]=filter_schulstufe%%3A%s&f[1]=filter_fachbereich%%3A%s",
		b.baseURL, escapeTopic(q.Topic), grade.ID, subject.ID,
	), nil
}

// escapeTopic percent-encodes free text, spaces become %20 rather than +
func escapeTopic(topic string) string {
	return strings.ReplaceAll(url.QueryEscape(topic), "+", "%20")
}
