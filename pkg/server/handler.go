package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/thepwagner/madison/pkg/cache"
	"github.com/thepwagner/madison/pkg/madison"
)

const (
	textNamespace cache.Namespace = "text"
	htmlNamespace cache.Namespace = "html"
)

type Handler struct {
	mux *chi.Mux

	store     *madison.Store
	responses *cache.ResponseCache
	metrics   *Metrics
	index     []byte
}

// NewHandler serves reports from store. metrics may be nil, which disables /metrics.
func NewHandler(store *madison.Store, responses *cache.ResponseCache, metrics *Metrics) (*Handler, error) {
	index, err := renderTemplate("index", nil)
	if err != nil {
		return nil, err
	}
	h := &Handler{
		mux:       chi.NewRouter(),
		store:     store,
		responses: responses,
		metrics:   metrics,
		index:     index,
	}
	h.mux.Use(middleware.RequestID)
	h.mux.Use(middleware.RealIP)
	h.mux.Use(RequestLog(slog.Default()))

	h.mux.Get("/", h.Madison)
	h.mux.Get("/healthz", h.Health)
	if metrics != nil {
		h.mux.Handle("/metrics", metrics.Handler())
	}
	return h, nil
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Madison answers ?package=a+b[&s=key][&text=on]. Without a package it serves the search form.
func (h Handler) Madison(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	packages := madison.SplitPackages(q.Get("package"))
	if len(packages) == 0 {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(h.index)
		return
	}
	filter := q.Get("s")
	text := q.Get("text") == "on"

	snap := h.store.Load()
	keyParts := append([]string{filter}, packages...)

	if text {
		h.metrics.observeRequest("text")
		key := textNamespace.Key(keyParts...)
		body := h.responses.Get(snap.Generation, key, func() []byte {
			return []byte(madison.RenderTable(madison.Query(snap.Mapping, packages, filter)))
		})
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write(body)
		return
	}

	h.metrics.observeRequest("html")
	key := htmlNamespace.Key(keyParts...)
	body := h.responses.Get(snap.Generation, key, func() []byte {
		page := packagePage{
			Query:  strings.Join(packages, " "),
			Groups: madison.QueryGroups(snap.Mapping, packages, filter),
		}
		b, err := renderTemplate("package", page)
		if err != nil {
			slog.Error("rendering package page", slog.Any("error", err))
		}
		return b
	})
	if body == nil {
		http.Error(w, "error rendering page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}

// Health is 200 once a mapping has been published.
func (h Handler) Health(w http.ResponseWriter, _ *http.Request) {
	if !h.store.Ready() {
		http.Error(w, "initialising", http.StatusServiceUnavailable)
		return
	}
	snap := h.store.Load()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok " + snap.BuiltAt.UTC().Format(time.RFC3339) + "\n"))
}
