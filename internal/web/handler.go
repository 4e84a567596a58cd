// Package web serves a read-only preview of upcoming services.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"whitkirk-services/internal/airtable"
	"whitkirk-services/internal/cache"
	"whitkirk-services/internal/service"
	"whitkirk-services/internal/tasks"
)

//go:embed templates/index.html
var templates embed.FS

var page = template.Must(template.ParseFS(templates, "templates/index.html"))

const cacheName = "upcoming"

// Lister derives service summaries.
type Lister interface {
	List(ctx context.Context, q airtable.Query) ([]service.Summary, []tasks.Outcome, error)
}

// Handler holds the HTTP handlers and their dependencies.
type Handler struct {
	lister Lister
	cache  *cache.Cache[[]service.Summary]
	logger *log.Logger
}

// New creates a new Handler. c may be nil to disable caching.
func New(lister Lister, c *cache.Cache[[]service.Summary], logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		lister: lister,
		cache:  c,
		logger: logger,
	}
}

// Routes returns the router for all endpoints.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.GetHead)
	r.Use(middleware.Timeout(3 * time.Minute))

	r.With(noCache).Get("/", h.handleIndex)
	r.With(noCache).Get("/services", h.handleServices)
	r.Get("/health", h.handleHealth)
	return r
}

func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.summaries(r)
	if err != nil {
		h.logger.Error("listing services", "err", err)
		http.Error(w, "could not list services", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Execute(w, summaries); err != nil {
		h.logger.Error("rendering index", "err", err)
	}
}

func (h *Handler) handleServices(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.summaries(r)
	if err != nil {
		h.logger.Error("listing services", "err", err)
		http.Error(w, "could not list services", http.StatusBadGateway)
		return
	}
	if summaries == nil {
		summaries = []service.Summary{}
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(summaries)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// summaries serves from the cache unless it is cold or ?refresh=1 is given.
func (h *Handler) summaries(r *http.Request) ([]service.Summary, error) {
	refresh := r.URL.Query().Get("refresh") == "1"
	if h.cache != nil && !refresh {
		if cached, ok := h.cache.Get(cacheName); ok {
			return cached, nil
		}
	}

	summaries, failed, err := h.lister.List(r.Context(), airtable.UpcomingStreaming)
	if err != nil {
		return nil, err
	}
	for _, o := range failed {
		h.logger.Warn("skipping record", "record", o.RecordID, "err", o.Err)
	}

	if h.cache != nil {
		if err := h.cache.Set(cacheName, summaries); err != nil {
			h.logger.Warn("caching services", "err", err)
		}
	}
	return summaries, nil
}
