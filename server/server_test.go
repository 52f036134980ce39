package server_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"testing"

	"zebis-scraper/fetcher"
	"zebis-scraper/models"
	"zebis-scraper/parser"
	"zebis-scraper/query"
	"zebis-scraper/scraper"
	"zebis-scraper/server"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testOrigin = "https://www.zebis.ch"
	fixture    = `<html><body>
		<div class="search-result">
			<h3 class="title"><a href="/material/123">Klimawandel im Unterricht</a></h3>
			<div class="search-snippet-info">Ein Unterrichtsmaterial</div>
		</div>
	</body></html>`
)

type fetcherMock struct {
	html  string
	err   error
	calls int
	urls  []string
}

func (f *fetcherMock) Fetch(ctx context.Context, url string) (string, error) {
	f.calls++
	f.urls = append(f.urls, url)
	return f.html, f.err
}

func bootstrapApp(f fetcher.Fetcher) *fiber.App {
	catalog := query.DefaultCatalog()
	service := scraper.NewService(
		catalog,
		query.NewBuilder(testOrigin+"/suche", catalog),
		f,
		parser.NewParser(testOrigin),
	)
	return server.New(service, zerolog.Nop())
}

func doRequest(t *testing.T, app *fiber.App, method, target string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, target, nil)
	require.NoError(t, err)
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func assertCORS(t *testing.T, resp *http.Response) {
	t.Helper()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, OPTIONS", resp.Header.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, Authorization", resp.Header.Get("Access-Control-Allow-Headers"))
}

func TestSearch_Success(t *testing.T) {
	f := &fetcherMock{html: fixture}
	app := bootstrapApp(f)

	resp := doRequest(t, app, http.MethodGet, "/search?topic=Klimawandel&grade=8&subject=ethics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assertCORS(t, resp)

	body := decode[models.SearchResponse](t, resp)
	expectedURL := testOrigin + "/suche?keys=Klimawandel&f[0]=filter_schulstufe%3A31014&f[1]=filter_fachbereich%3A31153"
	assert.Equal(t, expectedURL, body.SourceURL)
	assert.Equal(t, models.SearchQuery{Topic: "Klimawandel", Grade: "8", Subject: "ethics"}, body.Query)
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, len(body.Items), body.Count)
	assert.Equal(t, models.ResultItem{
		Title:       "Klimawandel im Unterricht",
		Description: "Ein Unterrichtsmaterial",
		Link:        testOrigin + "/material/123",
	}, body.Items[0])
	assert.Equal(t, []string{expectedURL}, f.urls)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestSearch_WireFormat(t *testing.T) {
	app := bootstrapApp(&fetcherMock{html: fixture})

	resp := doRequest(t, app, http.MethodGet, "/search?topic=Klimawandel&grade=8&subject=ethics")
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	item := body["items"].([]any)[0].(map[string]any)
	assert.Equal(t, "Klimawandel im Unterricht", item["titel"])
	assert.Equal(t, "Ein Unterrichtsmaterial", item["beschreibung"])
	assert.EqualValues(t, 1, body["count"])
	assert.Contains(t, body, "sourceUrl")
}

func TestSearch_EmptyResults(t *testing.T) {
	app := bootstrapApp(&fetcherMock{html: "<html><body>Keine Treffer</body></html>"})

	resp := doRequest(t, app, http.MethodGet, "/search?topic=xyz&grade=7&subject=german")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[map[string]any](t, resp)
	assert.EqualValues(t, 0, body["count"])
	assert.Equal(t, []any{}, body["items"])
}

func TestSearch_GermanRoute(t *testing.T) {
	f := &fetcherMock{html: fixture}
	app := bootstrapApp(f)

	params := url.Values{"thema": {"Klimawandel"}, "klasse": {"8"}, "fach": {"ethik"}}
	resp := doRequest(t, app, http.MethodGet, "/suche?"+params.Encode())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[models.SearchResponse](t, resp)
	assert.Equal(t, "ethics", body.Query.Subject)
	assert.Equal(t, 1, body.Count)
}

func TestSearch_ValidationErrors(t *testing.T) {
	tests := []struct {
		name            string
		target          string
		expectedError   string
		expectedAllowed []string
	}{
		{
			name:          "missing topic",
			target:        "/search?grade=8&subject=ethics",
			expectedError: "missing required parameter(s): topic",
		},
		{
			name:          "missing everything",
			target:        "/search",
			expectedError: "missing required parameter(s): topic, grade, subject",
		},
		{
			name:          "german names on german route",
			target:        "/suche?thema=x",
			expectedError: "missing required parameter(s): klasse, fach",
		},
		{
			name:            "grade 10",
			target:          "/search?topic=x&grade=10&subject=ethics",
			expectedError:   `invalid grade "10", allowed: 7, 8, 9`,
			expectedAllowed: []string{"7", "8", "9"},
		},
		{
			name:            "unknown subject",
			target:          "/search?topic=x&grade=8&subject=physics",
			expectedAllowed: []string{"german", "english", "career-orientation", "ethics", "society"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fetcherMock{html: fixture}
			app := bootstrapApp(f)

			resp := doRequest(t, app, http.MethodGet, tt.target)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assertCORS(t, resp)

			body := decode[models.ErrorResponse](t, resp)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, body.Error)
			}
			assert.Equal(t, tt.expectedAllowed, body.Allowed)
			assert.Zero(t, f.calls)
		})
	}
}

func TestSearch_UpstreamTimeout(t *testing.T) {
	f := &fetcherMock{err: fmt.Errorf("failed to fetch: %w", context.DeadlineExceeded)}
	app := bootstrapApp(f)

	resp := doRequest(t, app, http.MethodGet, "/search?topic=Klimawandel&grade=8&subject=ethics")
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assertCORS(t, resp)

	body := decode[models.ErrorResponse](t, resp)
	assert.NotEmpty(t, body.Error)
	assert.Contains(t, body.Details, "deadline exceeded")
	assert.Equal(t, f.urls[0], body.URL)
	assert.Zero(t, body.Status)
}

func TestSearch_UpstreamStatus(t *testing.T) {
	for _, status := range []int{http.StatusForbidden, http.StatusNotFound, http.StatusServiceUnavailable} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			f := &fetcherMock{err: &fetcher.StatusError{StatusCode: status, URL: "ignored"}}
			app := bootstrapApp(f)

			resp := doRequest(t, app, http.MethodGet, "/search?topic=x&grade=9&subject=society")
			require.Equal(t, http.StatusBadGateway, resp.StatusCode)

			body := decode[models.ErrorResponse](t, resp)
			assert.Equal(t, status, body.Status)
			assert.Equal(t, f.urls[0], body.URL)
		})
	}
}

func TestPreflight(t *testing.T) {
	app := bootstrapApp(&fetcherMock{})

	for _, path := range []string{"/search", "/suche"} {
		resp := doRequest(t, app, http.MethodOptions, path)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assertCORS(t, resp)

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Empty(t, raw)
	}
}

func TestRoot(t *testing.T) {
	app := bootstrapApp(&fetcherMock{})

	resp := doRequest(t, app, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assertCORS(t, resp)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "running")
	assert.Contains(t, string(raw), "/search?topic=")
	assert.Contains(t, string(raw), "7|8|9")
}

func TestHealth(t *testing.T) {
	resp := doRequest(t, bootstrapApp(&fetcherMock{}), http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"status": "healthy"}, decode[map[string]any](t, resp))
}

func TestUnknownRoute(t *testing.T) {
	resp := doRequest(t, bootstrapApp(&fetcherMock{}), http.MethodGet, "/nope")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assertCORS(t, resp)

	body := decode[models.ErrorResponse](t, resp)
	assert.NotEmpty(t, body.Error)
}
