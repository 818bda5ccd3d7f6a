package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/masthead/internal/content"
	"github.com/abdul-hamid-achik/masthead/internal/query"
)

type stubFetcher struct {
	mu       sync.Mutex
	sections map[string][]content.Item
	searches map[string][]content.Item
	failing  map[string]bool
	pingErr  error
	queries  []string
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		sections: map[string][]content.Item{},
		searches: map[string][]content.Item{},
		failing:  map[string]bool{},
	}
}

func (f *stubFetcher) Fetch(_ context.Context, d query.Descriptor) ([]content.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, d.GROQ())

	if s, ok := d.Params[query.ParamSection].(string); ok {
		if f.failing[s] {
			return nil, errors.New("cms: fetch: unavailable")
		}
		return f.sections[s], nil
	}
	q := d.Params[query.ParamSearch].(string)
	if f.failing[q] {
		return nil, errors.New("cms: fetch: unavailable")
	}
	return f.searches[q], nil
}

func (f *stubFetcher) Ping(context.Context) error { return f.pingErr }

func entry(title, slug string) content.Item {
	return content.Item{
		Title:   title,
		Slug:    content.Slug{Current: slug},
		Authors: []content.Author{{Name: "June Hale"}},
		MainImage: &content.Image{Asset: &content.Asset{
			ID: "image-" + slug, URL: "https://cdn.example/" + slug + ".png",
		}},
	}
}

func newTestServer(f *stubFetcher) *Server {
	return NewServer(ServerConfig{
		Host:     "localhost",
		Port:     8080,
		Fetcher:  f,
		Debounce: 250 * time.Millisecond,
		Logger:   zerolog.Nop(),
	})
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestIndex_Redirects(t *testing.T) {
	rec := get(t, newTestServer(newStubFetcher()), "/")

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/sections", rec.Header().Get("Location"))
}

func TestOverview_BrowseRendersAllSections(t *testing.T) {
	f := newStubFetcher()
	f.sections["Art"] = []content.Item{entry("Still Life", "still-life")}
	f.sections["Fiction"] = []content.Item{entry("Night Train", "night-train")}
	f.sections["Features"] = []content.Item{entry("On Margins", "on-margins")}
	f.sections["Poetry"] = []content.Item{entry("Lull", "lull")}

	rec := get(t, newTestServer(f), "/sections")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	for _, s := range content.All() {
		assert.Contains(t, body, `href="/sections/`+s.String()+`"`)
	}
	assert.Contains(t, body, "Still Life")
	assert.Contains(t, body, "Lull")
	assert.Equal(t, 1, strings.Count(body, `class="imageGrid"`))
	assert.Contains(t, body, `hx-trigger="input changed delay:250ms, search"`)
	assert.Len(t, f.queries, 4)
}

func TestOverview_SearchWithMatches(t *testing.T) {
	f := newStubFetcher()
	f.searches["Moon"] = []content.Item{entry("Moon River", "moon-river"), entry("Blue Moon", "blue-moon")}

	rec := get(t, newTestServer(f), "/sections?q=Moon")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, "Search Results")
	assert.Equal(t, 2, strings.Count(body, `class="gridItem"`))
	assert.NotContains(t, body, `class="sectionHeader"`)
	// Sections are not fetched for a search page.
	assert.Len(t, f.queries, 1)
}

func TestResults_ClearingSearchFetchesSections(t *testing.T) {
	f := newStubFetcher()
	f.searches["Moon"] = []content.Item{entry("Moon River", "moon-river")}
	f.sections["Art"] = []content.Item{entry("Still Life", "still-life")}
	s := newTestServer(f)

	rec := get(t, s, "/sections?q=Moon")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.queries, 1)

	rec = get(t, s, "/sections/results?q=")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Len(t, f.queries, 5)
	assert.Equal(t, len(content.All()), strings.Count(body, `class="sectionHeader"`))
	assert.Contains(t, body, "Still Life")
	assert.NotContains(t, body, "Search Results")
}

func TestResults_SearchWithoutMatches(t *testing.T) {
	rec := get(t, newTestServer(newStubFetcher()), "/sections/results?q=Zzzznomatch")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, "No results found.")
	assert.NotContains(t, body, "<html")
}

func TestResults_FailingSectionStillRendersOthers(t *testing.T) {
	f := newStubFetcher()
	f.sections["Art"] = []content.Item{entry("Still Life", "still-life")}
	f.sections["Poetry"] = []content.Item{entry("Lull", "lull")}
	f.failing["Fiction"] = true

	rec := get(t, newTestServer(f), "/sections/results")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, "Still Life")
	assert.Contains(t, body, "Lull")
	assert.Contains(t, body, "<h2>Fiction</h2>")
}

func TestResults_QueryNotInterpolated(t *testing.T) {
	f := newStubFetcher()
	rec := get(t, newTestServer(f), `/sections/results?q=%22%5D%20%7C%20*%5B`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, f.queries, 1)
	assert.NotContains(t, f.queries[0], `"] | *[`)
	assert.Contains(t, f.queries[0], "$searchQuery")
}

func TestAPISections(t *testing.T) {
	f := newStubFetcher()
	f.sections["Art"] = []content.Item{entry("Still Life", "still-life")}
	f.failing["Poetry"] = true

	rec := get(t, newTestServer(f), "/api/sections")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Sections map[string][]content.Item `json:"sections"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Sections, 4)
	assert.Equal(t, "Still Life", resp.Sections["Art"][0].Title)
	assert.Nil(t, resp.Sections["Poetry"])
}

func TestAPISearch(t *testing.T) {
	f := newStubFetcher()
	f.searches["Moon"] = []content.Item{
		entry("a", "a"), entry("b", "b"), entry("c", "c"), entry("d", "d"),
	}
	s := newTestServer(f)

	rec := get(t, s, "/api/search?q=Moon")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Query   string         `json:"query"`
		Count   int            `json:"count"`
		Results []content.Item `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Moon", resp.Query)
	assert.Equal(t, query.Limit, resp.Count)
	assert.Len(t, resp.Results, query.Limit)
}

func TestAPISearch_Errors(t *testing.T) {
	f := newStubFetcher()
	f.failing["down"] = true
	s := newTestServer(f)

	rec := get(t, s, "/api/search?q=%20%20")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "required")

	rec = get(t, s, "/api/search?q=down")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "unavailable")
}

func TestHealth(t *testing.T) {
	f := newStubFetcher()
	s := newTestServer(f)

	rec := get(t, s, "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Empty(t, f.queries)

	rec = get(t, s, "/api/health?deep=1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"cms":"ok"`)

	f.pingErr = errors.New("cms: ping: unavailable")
	rec = get(t, s, "/api/health?deep=1")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
}

func TestStaticAssets(t *testing.T) {
	rec := get(t, newTestServer(newStubFetcher()), "/static/right-arrow.svg")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReconfigure(t *testing.T) {
	first := newStubFetcher()
	second := newStubFetcher()
	second.searches["Moon"] = []content.Item{entry("Moon River", "moon-river")}

	s := newTestServer(first)
	s.Handler().Reconfigure(second, 0)

	rec := get(t, s, "/sections?q=Moon")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Moon River")
	assert.Contains(t, rec.Body.String(), `hx-trigger="input changed, search"`)
	assert.Empty(t, first.queries)
}

func TestServerAddr(t *testing.T) {
	s := NewServer(ServerConfig{Host: "::1", Port: 9000, Fetcher: newStubFetcher(), Logger: zerolog.Nop()})
	assert.Equal(t, "[::1]:9000", s.Addr())
}

func TestHTML_RenderFailureShowsError(t *testing.T) {
	h := NewHandler(newStubFetcher(), 0)
	broken := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, _ = io.WriteString(w, "<div>partial")
		return errors.New("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/sections", nil)
	rec := httptest.NewRecorder()
	h.html(rec, req, http.StatusOK, broken)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `role="alert"`)
	assert.NotContains(t, rec.Body.String(), "partial")
}
