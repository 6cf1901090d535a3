package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/maltedev/wholesale-crawler/internal/browser"
	"github.com/maltedev/wholesale-crawler/internal/crawler"
	"github.com/maltedev/wholesale-crawler/internal/models"
)

// Crawler is the service surface the handlers need.
type Crawler interface {
	Search(ctx context.Context, req crawler.SearchRequest) (crawler.SearchResult, error)
	Enrich(ctx context.Context, c models.SearchCandidate) (models.EnrichedProduct, error)
	EnrichBatch(ctx context.Context, products []models.SearchCandidate, site string, limit int) ([]models.Record, error)
	ActiveResults() *crawler.ResultSetSnapshot
	BrowserActive() bool
	CacheEntries(ctx context.Context) (int, error)
}

type Handlers struct {
	crawler Crawler
	logger  *slog.Logger
}

func NewHandlers(c Crawler, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		crawler: c,
		logger:  logger.With("component", "api"),
	}
}

// envelope is the response shape every endpoint shares.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ProductInput accepts a candidate, tolerating "url" as an alias of sourceUrl.
type ProductInput struct {
	models.SearchCandidate
	URL string `json:"url,omitempty"`
}

func (p ProductInput) Candidate() models.SearchCandidate {
	c := p.SearchCandidate
	if strings.TrimSpace(c.SourceURL) == "" {
		c.SourceURL = strings.TrimSpace(p.URL)
	}
	return c
}

type MergeRequest struct {
	Products []ProductInput `json:"products"`
	Site     string         `json:"site"`
	Limit    int            `json:"limit"`
}

// Search handles keyword searches across sites
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	var req crawler.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Keyword) == "" {
		h.respondError(w, http.StatusBadRequest, "keyword is required")
		return
	}

	if err := req.Validate(); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.crawler.Search(r.Context(), req)
	if err != nil {
		h.logger.Error("search failed", "error", err, "keyword", req.Keyword)
		h.respondFailure(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, envelope{Success: true, Data: result})
}

// Detail enriches a single product from its detail page
func (h *Handlers) Detail(w http.ResponseWriter, r *http.Request) {
	var in ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c := in.Candidate()
	if c.SourceURL == "" {
		h.respondError(w, http.StatusBadRequest, "sourceUrl is required")
		return
	}

	product, err := h.crawler.Enrich(r.Context(), c)
	if err != nil {
		h.logger.Error("detail failed", "error", err, "url", c.SourceURL)
		h.respondFailure(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, envelope{Success: true, Data: product})
}

// Merge enriches the first limit products of a list
func (h *Handlers) Merge(w http.ResponseWriter, r *http.Request) {
	var req MergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Products) == 0 {
		h.respondError(w, http.StatusBadRequest, "products required")
		return
	}

	products := make([]models.SearchCandidate, len(req.Products))
	for i, p := range req.Products {
		products[i] = p.Candidate()
	}

	records, err := h.crawler.EnrichBatch(r.Context(), products, req.Site, req.Limit)
	if err != nil {
		h.logger.Error("merge failed", "error", err, "products", len(products))
		h.respondFailure(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, envelope{Success: true, Data: records})
}

// Results returns the latest search with whatever prefetch has finished
func (h *Handlers) Results(w http.ResponseWriter, r *http.Request) {
	snapshot := h.crawler.ActiveResults()
	if snapshot == nil {
		h.respondError(w, http.StatusNotFound, "no active search")
		return
	}
	h.respondJSON(w, http.StatusOK, envelope{Success: true, Data: snapshot})
}

// Health reports browser and cache state
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":  "ok",
		"browser": map[string]interface{}{"active": h.crawler.BrowserActive()},
	}

	entries, err := h.crawler.CacheEntries(r.Context())
	if err != nil {
		h.logger.Warn("cache health check failed", "error", err)
		health["status"] = "degraded"
		health["cache"] = map[string]interface{}{"error": err.Error()}
	} else {
		health["cache"] = map[string]interface{}{"entries": entries}
	}
	h.respondJSON(w, http.StatusOK, health)
}

func (h *Handlers) respondFailure(w http.ResponseWriter, err error) {
	switch {
	case browser.IsLaunchError(err):
		h.respondError(w, http.StatusServiceUnavailable, "browser unavailable: "+err.Error())
	case errors.Is(err, crawler.ErrUnsupportedSite), errors.Is(err, crawler.ErrInvalidPriceRange):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		h.respondError(w, http.StatusGatewayTimeout, "crawl timed out")
	default:
		h.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, envelope{Success: false, Error: message})
}
