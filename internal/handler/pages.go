// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/olegiv/edgepress/internal/content"
	"github.com/olegiv/edgepress/internal/metrics"
)

// staticOnlyPrefixes belong to the static asset class even though no
// asset is served for them.
var staticOnlyPrefixes = []string{
	"/static/",
	"/favicon",
	"/apple-touch-icon",
	"/wp-content/",
	"/wp-includes/",
}

// Page handles GET requests for page routes. Unmapped paths render the
// home route under the requested URL rather than a 404.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if isStaticOnly(path) {
		h.notFound(w, r)
		return
	}
	if h.isPassthrough(path) {
		h.Passthrough(w, r)
		return
	}

	route, known := h.table.Lookup(path)
	if !known {
		h.logger.Debug("unmapped path served as home", "path", path)
	}

	if r.Method == http.MethodGet && h.tracker != nil {
		h.tracker.Track(r, path)
	}

	page := h.loadPage(r.Context(), route)
	resp, err := h.renderer.Page(page, path)
	if err != nil {
		h.logger.Error("rendering page failed", "category", "http", "route", route, "error", err)
		h.errorPage(w, r, http.StatusInternalServerError, "", "")
		return
	}
	resp.Write(w)
}

// loadPage returns live content for route, or its fallback when the
// upstream fails or yields too little content.
func (h *Handler) loadPage(ctx context.Context, route string) content.Page {
	raw, err := h.fetcher.Fetch(ctx, route)
	if err == nil {
		page, err := h.extractor.Extract(raw, route)
		if err == nil {
			metrics.ObserveContentSource(route, metrics.SourceUpstream)
			return page
		}
		h.logger.Info("extraction insufficient, serving fallback", "category", "extract", "route", route, "error", err)
	} else {
		h.logger.Info("serving fallback content", "category", "extract", "route", route)
	}

	metrics.ObserveContentSource(route, metrics.SourceFallback)
	return h.table.Fallback(route)
}

// Passthrough serves an administrative upstream page without the site
// chrome. Non-HTML responses are relayed as-is.
func (h *Handler) Passthrough(w http.ResponseWriter, r *http.Request) {
	body, contentType, err := h.fetcher.FetchPath(r.Context(), r.URL.RequestURI())
	if err != nil {
		h.errorPage(w, r, http.StatusBadGateway, "This page is temporarily unavailable. Please try again shortly.", "")
		return
	}

	if contentType != "" && !strings.Contains(contentType, "html") {
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		_, _ = w.Write([]byte(body))
		return
	}

	resp, err := h.renderer.Minimal(body)
	if err != nil {
		h.logger.Error("rendering passthrough page failed", "category", "http", "path", r.URL.Path, "error", err)
		h.errorPage(w, r, http.StatusBadGateway, "", "")
		return
	}
	resp.Write(w)
}

func isStaticOnly(path string) bool {
	for _, prefix := range staticOnlyPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
