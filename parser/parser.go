package parser

import (
	"fmt"
	"regexp"
	"strings"

	"zebis-scraper/models"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

// Parser extracts result items from zebis.ch search pages
type Parser struct {
	origin string // e.g. https://www.zebis.ch, used for site-relative links
}

// NewParser creates a new Parser resolving relative links against origin
func NewParser(origin string) *Parser {
	return &Parser{
		origin: strings.TrimSuffix(origin, "/"),
	}
}

// Description selectors for view rows, in priority order
var viewRowDescriptionSelectors = []string{
	".field--name-field-intro-text",
	".field--name-body",
	".teaser__text",
}

// ParseHTML extracts result items from HTML content.
// The classic search layout is tried first; view rows are only looked at
// when it yields nothing, so the same page is never extracted twice.
func (p *Parser) ParseHTML(htmlContent string) ([]models.ResultItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	items := p.parseSearchResults(doc.Selection)
	if len(items) == 0 {
		items = p.parseViewRows(doc.Selection)
	}

	return items, nil
}

// parseSearchResults handles the ".search-result" layout
func (p *Parser) parseSearchResults(root *goquery.Selection) []models.ResultItem {
	items := []models.ResultItem{}

	root.Find(".search-result").Each(func(i int, s *goquery.Selection) {
		a := s.Find(".title a").First()
		if a.Length() == 0 {
			a = s.Find("a").First()
		}
		if a.Length() == 0 {
			return
		}

		desc := s.Find(".search-snippet-info").First()
		if desc.Length() == 0 {
			desc = s.Find(".search-snippet").First()
		}

		items = append(items, p.buildItem(a, desc))
	})

	return items
}

// parseViewRows handles the ".views-row" listing layout
func (p *Parser) parseViewRows(root *goquery.Selection) []models.ResultItem {
	items := []models.ResultItem{}

	root.Find(".views-row").Each(func(i int, s *goquery.Selection) {
		a := s.Find("a").First()
		if a.Length() == 0 {
			return
		}

		var desc *goquery.Selection
		for _, sel := range viewRowDescriptionSelectors {
			if found := s.Find(sel).First(); found.Length() > 0 {
				desc = found
				break
			}
		}

		items = append(items, p.buildItem(a, desc))
	})

	return items
}

// buildItem turns an anchor and an optional description element into an item
func (p *Parser) buildItem(a, desc *goquery.Selection) models.ResultItem {
	item := models.ResultItem{
		Title: cleanText(a.Text()),
		Link:  p.resolveLink(a.AttrOr("href", "")),
	}
	if desc != nil && desc.Length() > 0 {
		item.Description = cleanText(desc.Text())
	}
	return item
}

// resolveLink prefixes site-relative links with the origin
func (p *Parser) resolveLink(href string) string {
	if strings.HasPrefix(href, "/") {
		return p.origin + href
	}
	return href
}

var innerWhitespace = regexp.MustCompile(`\s+`)

// cleanText trims, collapses whitespace runs and NFC-normalises visible text
func cleanText(s string) string {
	s = innerWhitespace.ReplaceAllString(strings.TrimSpace(s), " ")
	return norm.NFC.String(s)
}
