package models

// SearchQuery represents a validated search request
type SearchQuery struct {
	Topic   string `json:"topic"`
	Grade   string `json:"grade"`
	Subject string `json:"subject"`
}

// ResultItem represents one entry found on a results page
type ResultItem struct {
	Title       string `json:"titel"`
	Description string `json:"beschreibung"`
	Link        string `json:"link"` // Always absolute
}

// SearchResponse is the envelope returned to callers
type SearchResponse struct {
	Query     SearchQuery  `json:"query"`
	SourceURL string       `json:"sourceUrl"`
	Count     int          `json:"count"`
	Items     []ResultItem `json:"items"`
}

// NewSearchResponse builds a response whose Count always matches Items
func NewSearchResponse(query SearchQuery, sourceURL string, items []ResultItem) *SearchResponse {
	if items == nil {
		items = []ResultItem{}
	}
	return &SearchResponse{
		Query:     query,
		SourceURL: sourceURL,
		Count:     len(items),
		Items:     items,
	}
}

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details string   `json:"details,omitempty"`
	Status  int      `json:"status,omitempty"` // Upstream status, never our own
	URL     string   `json:"url,omitempty"`
	Allowed []string `json:"allowed,omitempty"`
}
