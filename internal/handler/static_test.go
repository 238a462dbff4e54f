// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/static/site.css")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
	assert.Equal(t, staticCache, rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), "--color-accent")

	rec = env.get(t, "/static/site.js")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/newsletter")
	assert.Contains(t, rec.Body.String(), "status.hidden = false")
}

func TestStatic_NotFound(t *testing.T) {
	env := newTestEnv(t)

	for _, target := range []string{
		"/static/missing.js",
		"/static/../go.mod",
		"/wp-content/uploads/2024/05/photo.jpg",
		"/wp-includes/js/jquery.js",
		"/apple-touch-icon.png",
	} {
		rec := env.get(t, target)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
		assert.Contains(t, rec.Body.String(), "Page not found", target)
	}
	assert.Empty(t, env.fetcher.fetchedRoutes(), "static misses must not reach the upstream")
	assert.Empty(t, env.tracker.tracked(), "static misses are not page views")
}

func TestFavicon(t *testing.T) {
	env := newTestEnv(t)
	rec := env.get(t, "/favicon.ico")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	env = newTestEnv(t, withFavicon("https://cdn.acme.test/favicon.ico"))
	rec = env.get(t, "/favicon.ico")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://cdn.acme.test/favicon.ico", rec.Header().Get("Location"))
}

func TestLogo(t *testing.T) {
	env := newTestEnv(t)
	rec := env.get(t, "/logo.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")

	env = newTestEnv(t, withLogo("https://cdn.acme.test/logo.png"))
	rec = env.get(t, "/logo.png")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://cdn.acme.test/logo.png", rec.Header().Get("Location"))
}

func TestRobots(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/robots.txt")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "User-agent: *\n"))
	assert.Contains(t, body, "Disallow: /api/\n")
	assert.Contains(t, body, "Disallow: /wp-admin\n")
	assert.Contains(t, body, "Disallow: /wp-login.php\n")
	assert.Contains(t, body, "Sitemap: https://acme.test/sitemap.xml\n")
}

func TestSitemap(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/sitemap.xml")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/xml")

	body := rec.Body.String()
	for _, p := range env.table.SitemapPaths() {
		assert.Contains(t, body, "<loc>https://acme.test"+p+"</loc>")
	}
	assert.NotContains(t, body, "/newsletter<")
	assert.NotContains(t, body, "/sitemap.xml<")
	assert.Empty(t, env.fetcher.fetchedRoutes())
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	rec := env.get(t, "/metrics")
	assert.NotContains(t, rec.Body.String(), "edgepress_http_requests_total", "metrics disabled by default")

	env = newTestEnv(t, withMetrics(true))
	env.get(t, "/about")
	rec = env.get(t, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "edgepress_http_requests_total")
	assert.Contains(t, rec.Body.String(), "edgepress_content_source_total")
}
