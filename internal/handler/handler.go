// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the HTTP request router of the edge worker:
// static assets, the JSON API, the sitemap and the page pipeline.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/edgepress/internal/content"
	"github.com/olegiv/edgepress/internal/metrics"
	"github.com/olegiv/edgepress/internal/middleware"
	"github.com/olegiv/edgepress/internal/render"
	"github.com/olegiv/edgepress/internal/store"
)

// Store is the persistence used by the API. *store.Store satisfies it.
type Store interface {
	Subscribe(ctx context.Context, email, name string) error
	Unsubscribe(ctx context.Context, email string) error
	SaveContact(ctx context.Context, name, email, message string) (int64, error)
	SubscriberCount(ctx context.Context) (int64, error)
	ViewStats(ctx context.Context, now time.Time) (store.ViewStats, error)
	Ping(ctx context.Context) error
}

// Fetcher retrieves upstream documents. *fetcher.Fetcher satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, route string) (string, error)
	FetchPath(ctx context.Context, pathAndQuery string) (body, contentType string, err error)
}

// Extractor turns an upstream document into page content.
// *extract.Extractor satisfies it.
type Extractor interface {
	Extract(raw, route string) (content.Page, error)
}

// Tracker records page views without blocking. *analytics.Tracker satisfies it.
type Tracker interface {
	Track(r *http.Request, path string)
}

// Config holds handler dependencies and settings.
type Config struct {
	Store     Store
	Fetcher   Fetcher
	Extractor Extractor
	Tracker   Tracker
	Table     *content.Table
	Renderer  *render.Renderer
	Logger    *slog.Logger

	SiteURL          string
	PassthroughPaths []string
	FaviconURL       string
	LogoURL          string
	TrustedOrigins   []string
	IsDevelopment    bool
	MetricsEnabled   bool
	AccessLog        bool
}

// Handler serves every request of the edge worker.
type Handler struct {
	store     Store
	fetcher   Fetcher
	extractor Extractor
	tracker   Tracker
	table     *content.Table
	renderer  *render.Renderer
	logger    *slog.Logger

	siteURL        string
	passthrough    []string
	faviconURL     string
	logoURL        string
	trustedOrigins []string
	isDev          bool
	metrics        bool
	accessLog      bool
	now            func() time.Time
}

// New creates a Handler.
func New(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:          cfg.Store,
		fetcher:        cfg.Fetcher,
		extractor:      cfg.Extractor,
		tracker:        cfg.Tracker,
		table:          cfg.Table,
		renderer:       cfg.Renderer,
		logger:         logger,
		siteURL:        strings.TrimSuffix(cfg.SiteURL, "/"),
		passthrough:    cfg.PassthroughPaths,
		faviconURL:     cfg.FaviconURL,
		logoURL:        cfg.LogoURL,
		trustedOrigins: cfg.TrustedOrigins,
		isDev:          cfg.IsDevelopment,
		metrics:        cfg.MetricsEnabled,
		accessLog:      cfg.AccessLog,
		now:            time.Now,
	}
}

// Router returns the complete routing tree with its middleware stack.
// Paths are classified in this order: static assets, API, newsletter
// form post, sitemap, passthrough prefixes, then page routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.GetHead)
	if h.accessLog {
		r.Use(chimw.Logger)
	}
	r.Use(middleware.Recover(h.renderer, h.logger))
	if h.metrics {
		r.Use(metrics.Middleware)
	}
	r.Use(chimw.Compress(5))
	r.Use(middleware.StripTrailingSlash(h.passthrough...))

	secCfg := middleware.DefaultSecurityHeadersConfig(h.isDev)
	secCfg.ExcludePaths = h.passthrough
	r.Use(middleware.SecurityHeaders(secCfg))

	csrfCfg := middleware.DefaultCSRFConfig(h.trustedOrigins, h.isDev)
	csrfCfg.Logger = h.logger
	r.Use(middleware.CSRF(csrfCfg))

	// 1. Static assets
	r.Get("/static/*", h.Static)
	r.Get("/favicon.ico", h.Favicon)
	r.Get("/logo.png", h.Logo)
	r.Get("/robots.txt", h.Robots)

	// 2. API
	r.Route("/api", func(r chi.Router) {
		r.NotFound(h.apiNotFound)
		r.MethodNotAllowed(h.apiMethodNotAllowed)

		r.Post("/newsletter", h.Newsletter)
		r.Post("/newsletter/unsubscribe", h.Unsubscribe)
		r.Post("/contact", h.Contact)
		r.Get("/analytics", h.Analytics)
		r.Get("/health", h.Health)
	})
	r.Get("/health", h.Health)
	if h.metrics {
		r.Handle("/metrics", metrics.Handler())
	}

	// 3. Newsletter form post
	r.Post("/newsletter", h.Newsletter)
	r.Get("/newsletter", h.Page)

	// 4. Sitemap
	r.Get("/sitemap.xml", h.Sitemap)

	// 5 and 6. Passthrough prefixes and page routes
	r.Get("/*", h.Page)

	r.NotFound(h.notFound)
	r.MethodNotAllowed(h.methodNotAllowed)

	return r
}

// isPassthrough reports whether path is served through the minimal template.
func (h *Handler) isPassthrough(path string) bool {
	for _, prefix := range h.passthrough {
		if path == prefix || strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/") {
			return true
		}
	}
	return false
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	h.errorPage(w, r, http.StatusNotFound, "The page you are looking for does not exist.", "")
}

func (h *Handler) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.errorPage(w, r, http.StatusMethodNotAllowed, "This address does not accept that kind of request.", "")
}

func (h *Handler) apiNotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSONError(w, http.StatusNotFound, "Not found")
}

func (h *Handler) apiMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// errorPage writes the branded error page.
func (h *Handler) errorPage(w http.ResponseWriter, _ *http.Request, status int, message, ref string) {
	middleware.WriteErrorPage(w, h.renderer, status, message, ref)
}
