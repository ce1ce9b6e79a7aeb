// Package api exposes the search over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"snow-search/internal/common/logger"
	"snow-search/internal/common/validation"
	"snow-search/internal/search"
)

const (
	searchPath = "/api/search_snow"
	healthPath = "/health"
	readyPath  = "/ready"
	metricPath = "/metrics"
)

var searchSchema = validation.MustCompile(validation.SearchRequestSchema)

// Searcher is satisfied by *search.Service.
type Searcher interface {
	Search(ctx context.Context, req search.Request) *search.Result
}

// ReadinessCheck reports whether a dependency can take traffic.
type ReadinessCheck func(ctx context.Context) error

type statusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type Handler struct {
	searcher Searcher
	checks   []ReadinessCheck
	logger   logger.Logger
}

func NewHandler(searcher Searcher, log logger.Logger, checks ...ReadinessCheck) *Handler {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Handler{
		searcher: searcher,
		checks:   checks,
		logger:   log,
	}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc(searchPath, h.handleSearch).Methods(http.MethodGet)
	router.HandleFunc(healthPath, h.handleHealth).Methods(http.MethodGet)
	router.HandleFunc(readyPath, h.handleReady).Methods(http.MethodGet)
	router.Handle(metricPath, promhttp.Handler()).Methods(http.MethodGet)
}

// handleSearch answers 200 with the result envelope for every search
// outcome. Only parameters that do not fit the request schema get a 400.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	doc := searchDocument(r)

	if res := searchSchema.Validate(doc); !res.Valid {
		h.logger.Warn("rejected search request", map[string]interface{}{
			"errors": res.GetErrorMessages(),
		})
		h.writeJSON(w, http.StatusBadRequest, &search.Result{Success: false, Error: res.Error()})
		return
	}

	req := search.Request{Query: doc["search_query"].(string)}
	if n, ok := doc["max_results"].(int); ok {
		req.MaxResults = n
	}

	h.writeJSON(w, http.StatusOK, h.searcher.Search(r.Context(), req))
}

// searchDocument collects the query parameters into a document for schema
// validation. A max_results that is not an integer stays a string so the
// schema reports it.
func searchDocument(r *http.Request) map[string]interface{} {
	q := r.URL.Query()
	doc := make(map[string]interface{}, 2)
	if q.Has("search_query") {
		doc["search_query"] = q.Get("search_query")
	}
	if q.Has("max_results") {
		raw := q.Get("max_results")
		if n, err := strconv.Atoi(raw); err == nil {
			doc["max_results"] = n
		} else {
			doc["max_results"] = raw
		}
	}
	return doc
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, statusResponse{Status: "healthy"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	for _, check := range h.checks {
		if err := check(r.Context()); err != nil {
			h.writeJSON(w, http.StatusServiceUnavailable, statusResponse{Status: "not ready", Error: err.Error()})
			return
		}
	}
	h.writeJSON(w, http.StatusOK, statusResponse{Status: "ready"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to write response", map[string]interface{}{"error": err.Error()})
	}
}
