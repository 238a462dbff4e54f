// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/edgepress/internal/fetcher"
)

func TestPage_UpstreamContent(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.bodies["about"] = upstreamArticle

	rec := env.get(t, "/about")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Live from upstream")
	assert.Contains(t, body, "<title>About | Acme Notes</title>")
	assert.Contains(t, body, `href="/blog/"`)
	assert.Contains(t, body, "themes/pub/style.css")
	assert.NotContains(t, body, "wpadminbar")
	assert.NotContains(t, body, "admin-bar.min.css")
	assert.NotContains(t, body, "Powered by WordPress.com")
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=300, s-maxage=3600", rec.Header().Get("Cache-Control"))

	assert.Equal(t, []string{"about"}, env.fetcher.fetchedRoutes())
	assert.Equal(t, []string{"/about"}, env.tracker.tracked())
}

func TestPage_Head(t *testing.T) {
	for _, p := range []string{"/", "/about"} {
		t.Run(p, func(t *testing.T) {
			env := newTestEnv(t)
			env.fetcher.bodies["about"] = upstreamArticle

			rec := env.do(t, http.MethodHead, p, "", "")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
			assert.Empty(t, env.tracker.tracked())
		})
	}
}

// Paths outside the route table are not 404s: they render the home
// route's content under the requested URL.
func TestPage_UnknownPathRendersHome(t *testing.T) {
	paths := []string{"/no-such-page", "/2024/05/some-post", "/about/team"}

	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			env := newTestEnv(t)

			rec := env.get(t, p)
			require.Equal(t, http.StatusOK, rec.Code)

			body := rec.Body.String()
			assert.Contains(t, body, "Welcome to Acme Notes")
			assert.Contains(t, body, `<link rel="canonical" href="https://acme.test`+p+`">`)
			assert.Equal(t, []string{"home"}, env.fetcher.fetchedRoutes())
			assert.Equal(t, []string{p}, env.tracker.tracked())
		})
	}
}

func TestPage_FetchTimeoutServesFallback(t *testing.T) {
	var calls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
		_, _ = io.WriteString(w, upstreamArticle)
	}))
	defer upstream.Close()

	f := fetcher.New(fetcher.Options{
		BaseURL: upstream.URL,
		Timeout: 50 * time.Millisecond,
		Backoff: time.Millisecond,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	env := newTestEnv(t, withFetcher(f))

	rec := env.get(t, "/about")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "About Acme Notes")
	assert.Contains(t, body, "independent studio and publication")
	assert.NotContains(t, body, "Live from upstream")
	assert.NotContains(t, body, "Page not found")
	assert.Equal(t, int32(fetcher.Attempts), calls.Load())
}

func TestPage_FetchErrorServesFallback(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.err = errors.New("connection refused")

	rec := env.get(t, "/services")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<title>Services | Acme Notes</title>")
}

func TestPage_InsufficientContentServesFallback(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.bodies["about"] = `<html><head><title>About</title></head>
<body><header>Site header with navigation</header><main><p>Too short.</p></main></body></html>`

	rec := env.get(t, "/about")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "independent studio and publication")
	assert.NotContains(t, body, "Too short.")
}

func TestPage_NewsletterPageIsRendered(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/newsletter")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"newsletter"}, env.fetcher.fetchedRoutes())
}

func TestPage_PostNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/about", "x=1", "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Empty(t, env.tracker.tracked())
}

func TestPage_TrailingSlashRedirects(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get(t, "/about/")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/about", rec.Header().Get("Location"))
}

func TestPage_PanicBecomesErrorPage(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.panicMsg = "kaboom-internal-detail"

	rec := env.get(t, "/about")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Something went wrong")
	assert.Contains(t, body, "Reference:")
	assert.NotContains(t, body, "kaboom-internal-detail")
	assert.NotContains(t, body, "goroutine")
}

func TestPassthrough(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.pathType = "text/html; charset=UTF-8"
	env.fetcher.pathBody = `<html><head><title>Log In</title>
<link rel="stylesheet" href="https://acme.wordpress.com/wp-admin/css/login.min.css"></head>
<body class="login"><form name="loginform" id="loginform"><input type="hidden" name="_wpnonce" value="abc"></form></body></html>`

	rec := env.get(t, "/wp-login.php?redirect_to=%2Fwp-admin")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `id="loginform"`)
	assert.Contains(t, body, `value="abc"`)
	assert.Contains(t, body, "login.min.css")
	assert.NotContains(t, body, `class="site-header"`)
	assert.NotContains(t, body, `<section class="newsletter"`)
	assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))
	assert.Empty(t, rec.Header().Get("X-Frame-Options"))
	assert.Empty(t, rec.Header().Get("X-Content-Type-Options"))

	assert.Equal(t, []string{"/wp-login.php?redirect_to=%2Fwp-admin"}, env.fetcher.paths)
	assert.Empty(t, env.fetcher.fetchedRoutes())
	assert.Empty(t, env.tracker.tracked())
}

func TestPassthrough_NestedPathAndAssets(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.pathType = "text/css"
	env.fetcher.pathBody = "body{color:#000}"

	rec := env.get(t, "/wp-admin/css/extra.css")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/css", rec.Header().Get("Content-Type"))
	assert.Equal(t, "body{color:#000}", rec.Body.String())
}

func TestPassthrough_UpstreamFailure(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.pathErr = errors.New("timeout")

	rec := env.get(t, "/wp-login.php")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Temporarily unavailable")
}

func TestIsPassthrough(t *testing.T) {
	h := New(Config{PassthroughPaths: []string{"/wp-login.php", "/wp-admin"}})

	tests := map[string]bool{
		"/wp-login.php":       true,
		"/wp-admin":           true,
		"/wp-admin/edit.php":  true,
		"/wp-administrator":   false,
		"/about":              false,
		"/wp-login.php/extra": true,
	}
	for p, want := range tests {
		if got := h.isPassthrough(p); got != want {
			t.Errorf("isPassthrough(%q) = %v, want %v", p, got, want)
		}
	}
}

func TestIsStaticOnly(t *testing.T) {
	for _, p := range []string{"/favicon-32x32.png", "/apple-touch-icon.png", "/wp-content/uploads/a.jpg"} {
		if !isStaticOnly(p) {
			t.Errorf("isStaticOnly(%q) = false", p)
		}
	}
	if isStaticOnly("/about") {
		t.Error("isStaticOnly(/about) = true")
	}
}
