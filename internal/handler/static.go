// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/olegiv/edgepress/internal/seo"
	"github.com/olegiv/edgepress/web"
)

// staticCache is the Cache-Control value for embedded assets.
const staticCache = "public, max-age=86400"

// Static serves embedded assets under /static/. Anything else under the
// prefix, directories included, gets the branded 404 page.
func (h *Handler) Static(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	info, err := fs.Stat(web.Static, name)
	if err != nil || info.IsDir() {
		h.notFound(w, r)
		return
	}

	w.Header().Set("Cache-Control", staticCache)
	http.ServeFileFS(w, r, web.Static, name)
}

// Favicon redirects to the configured favicon.
func (h *Handler) Favicon(w http.ResponseWriter, r *http.Request) {
	if h.faviconURL == "" {
		h.notFound(w, r)
		return
	}
	http.Redirect(w, r, h.faviconURL, http.StatusFound)
}

// Logo redirects to the configured logo, or serves the embedded one.
func (h *Handler) Logo(w http.ResponseWriter, r *http.Request) {
	if h.logoURL != "" {
		http.Redirect(w, r, h.logoURL, http.StatusFound)
		return
	}
	data, err := fs.ReadFile(web.Static, "static/logo.svg")
	if err != nil {
		h.notFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", staticCache)
	_, _ = w.Write(data)
}

// Robots serves robots.txt.
func (h *Handler) Robots(w http.ResponseWriter, _ *http.Request) {
	body := seo.NewRobotsBuilder(seo.RobotsConfig{
		SiteURL:       h.siteURL,
		DisallowPaths: h.passthrough,
	}).Build()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write([]byte(body))
}

// Sitemap serves an XML sitemap of every public route except the
// newsletter and the sitemap itself.
func (h *Handler) Sitemap(w http.ResponseWriter, r *http.Request) {
	data, err := seo.GenerateSitemap(h.siteURL, h.table.SitemapPaths(), h.now())
	if err != nil {
		h.logger.Error("building sitemap failed", "category", "http", "error", err)
		h.errorPage(w, r, http.StatusInternalServerError, "", "")
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(data)
}
