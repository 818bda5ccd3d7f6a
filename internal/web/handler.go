package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/rs/zerolog/hlog"

	"github.com/abdul-hamid-achik/masthead/internal/cms"
	"github.com/abdul-hamid-achik/masthead/internal/content"
	"github.com/abdul-hamid-achik/masthead/internal/overview"
	"github.com/abdul-hamid-achik/masthead/internal/query"
	"github.com/abdul-hamid-achik/masthead/internal/version"
	"github.com/abdul-hamid-achik/masthead/internal/web/templates"
)

const pageTimeout = 30 * time.Second

// Pinger is implemented by fetchers that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler handles HTTP requests for the sections page.
type Handler struct {
	mu       sync.RWMutex
	fetcher  cms.Fetcher
	debounce time.Duration
}

// NewHandler creates a new Handler.
func NewHandler(fetcher cms.Fetcher, debounce time.Duration) *Handler {
	return &Handler{
		fetcher:  fetcher,
		debounce: debounce,
	}
}

// Reconfigure swaps the content source and search debounce. Requests in
// flight keep the values they started with.
func (h *Handler) Reconfigure(fetcher cms.Fetcher, debounce time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fetcher = fetcher
	h.debounce = debounce
}

func (h *Handler) settings() (cms.Fetcher, time.Duration) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.fetcher, h.debounce
}

// load runs one page lifetime: sections are fetched only for the browse
// view, the search only for a non-blank query.
func (h *Handler) load(r *http.Request, q string) overview.View {
	fetcher, _ := h.settings()

	ctx, cancel := context.WithTimeout(r.Context(), pageTimeout)
	defer cancel()

	c := overview.New(fetcher, overview.WithLogger(*hlog.FromRequest(r)))
	defer c.Unmount()

	if strings.TrimSpace(q) == "" {
		c.Mount(ctx)
	}
	c.SetSearch(ctx, q)
	c.Wait()

	return c.View()
}

// Index redirects to the sections page.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/sections", http.StatusFound)
}

// Overview renders the full sections page.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	_, debounce := h.settings()
	view := h.load(r, r.URL.Query().Get("q"))

	h.html(w, r, http.StatusOK, templates.Page(templates.PageData{
		View:           view,
		DebounceMillis: debounce.Milliseconds(),
	}))
}

// Results renders the results container (for HTMX live search).
func (h *Handler) Results(w http.ResponseWriter, r *http.Request) {
	view := h.load(r, r.URL.Query().Get("q"))
	h.html(w, r, http.StatusOK, templates.Results(view))
}

// APISections returns every section's results as JSON. Sections whose
// fetch failed are null.
func (h *Handler) APISections(w http.ResponseWriter, r *http.Request) {
	view := h.load(r, "")

	sections := make(map[string]any, len(view.Sections))
	for _, sv := range view.Sections {
		if sv.Results.Loaded {
			sections[sv.Section.String()] = sv.Results.Items
		} else {
			sections[sv.Section.String()] = nil
		}
	}

	h.jsonResponse(w, map[string]any{
		"sections": sections,
	})
}

// APISearch handles JSON search requests.
func (h *Handler) APISearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		h.jsonError(w, "query parameter 'q' is required", http.StatusBadRequest)
		return
	}

	fetcher, _ := h.settings()

	ctx, cancel := context.WithTimeout(r.Context(), pageTimeout)
	defer cancel()

	items, err := fetcher.Fetch(ctx, query.BuildSearch(q))
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("query", q).Msg("search fetch failed")
		h.jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	if len(items) > query.Limit {
		items = items[:query.Limit]
	}

	h.jsonResponse(w, map[string]any{
		"query":   q,
		"count":   len(items),
		"results": items,
	})
}

// Health returns a health check response. With deep=1 the content source
// is pinged as well.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":   "ok",
		"version":  version.Version,
		"sections": content.All(),
	}

	if r.URL.Query().Get("deep") == "1" {
		fetcher, _ := h.settings()
		if p, ok := fetcher.(Pinger); ok {
			ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				resp["status"] = "degraded"
				resp["error"] = err.Error()
				h.jsonStatus(w, http.StatusServiceUnavailable, resp)
				return
			}
			resp["cms"] = "ok"
		}
	}

	h.jsonResponse(w, resp)
}

// html renders a component as an HTML response. A component that fails to
// render is replaced by an error message with status 500.
func (h *Handler) html(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("render failed")
		status = http.StatusInternalServerError
		buf.Reset()
		_ = templates.Error("Something went wrong rendering this page.").Render(r.Context(), &buf)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// jsonResponse writes a JSON response.
func (h *Handler) jsonResponse(w http.ResponseWriter, data any) {
	h.jsonStatus(w, http.StatusOK, data)
}

func (h *Handler) jsonStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// jsonError writes a JSON error response.
func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	h.jsonStatus(w, status, map[string]string{
		"error": message,
	})
}
