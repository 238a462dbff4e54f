// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/olegiv/edgepress/internal/content"
	"github.com/olegiv/edgepress/internal/extract"
	"github.com/olegiv/edgepress/internal/render"
	"github.com/olegiv/edgepress/internal/store"
	"github.com/olegiv/edgepress/internal/testutil"
)

var testSite = content.Site{
	Name:         "Acme Notes",
	Tagline:      "Field notes from Acme",
	ContactEmail: "hello@acme.test",
}

// fakeFetcher serves canned upstream documents.
type fakeFetcher struct {
	mu       sync.Mutex
	bodies   map[string]string // by route
	err      error
	panicMsg string
	routes   []string

	pathBody string
	pathType string
	pathErr  error
	paths    []string
}

func (f *fakeFetcher) Fetch(_ context.Context, route string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes = append(f.routes, route)
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.err != nil {
		return "", f.err
	}
	body, ok := f.bodies[route]
	if !ok {
		return "", errors.New("upstream returned an error status: 404")
	}
	return body, nil
}

func (f *fakeFetcher) FetchPath(_ context.Context, pathAndQuery string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, pathAndQuery)
	return f.pathBody, f.pathType, f.pathErr
}

func (f *fakeFetcher) fetchedRoutes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.routes...)
}

// recordingTracker remembers tracked paths.
type recordingTracker struct {
	mu    sync.Mutex
	paths []string
}

func (t *recordingTracker) Track(_ *http.Request, path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paths = append(t.paths, path)
}

func (t *recordingTracker) tracked() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.paths...)
}

// failingStore fails every operation with err, or panics when panicMsg is set.
type failingStore struct {
	err      error
	panicMsg string
}

func (s failingStore) fail() error {
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	return s.err
}

func (s failingStore) Subscribe(context.Context, string, string) error { return s.fail() }
func (s failingStore) Unsubscribe(context.Context, string) error       { return s.fail() }
func (s failingStore) SaveContact(context.Context, string, string, string) (int64, error) {
	return 0, s.fail()
}
func (s failingStore) SubscriberCount(context.Context) (int64, error) { return 0, s.fail() }
func (s failingStore) ViewStats(context.Context, time.Time) (store.ViewStats, error) {
	return store.ViewStats{}, s.fail()
}
func (s failingStore) Ping(context.Context) error { return s.fail() }

type testEnv struct {
	handler *Handler
	router  http.Handler
	fetcher *fakeFetcher
	tracker *recordingTracker
	store   *store.Store
	table   *content.Table
}

type envOption func(*Config)

func withStore(s Store) envOption        { return func(c *Config) { c.Store = s } }
func withFetcher(f Fetcher) envOption    { return func(c *Config) { c.Fetcher = f } }
func withFavicon(u string) envOption     { return func(c *Config) { c.FaviconURL = u } }
func withLogo(u string) envOption        { return func(c *Config) { c.LogoURL = u } }
func withMetrics(enabled bool) envOption { return func(c *Config) { c.MetricsEnabled = enabled } }

// newTestEnv wires a Handler with a real SQLite store, renderer and
// extractor, and a fake upstream.
func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	table, err := content.NewTable(testSite)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	renderer, err := render.New(render.Config{
		Site:    testSite,
		SiteURL: "https://acme.test",
		Nav:     table.NavRoutes(),
	})
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	st := testutil.TestStore(t)
	fetcher := &fakeFetcher{bodies: map[string]string{}}
	tracker := &recordingTracker{}

	cfg := Config{
		Store:            st,
		Fetcher:          fetcher,
		Extractor:        extract.New(extract.DefaultRules("acme.test", nil, "acme.wordpress.com"), table),
		Tracker:          tracker,
		Table:            table,
		Renderer:         renderer,
		Logger:           testutil.TestLoggerSilent(),
		SiteURL:          "https://acme.test",
		PassthroughPaths: []string{"/wp-login.php", "/wp-admin"},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	h := New(cfg)
	return &testEnv{
		handler: h,
		router:  h.Router(),
		fetcher: fetcher,
		tracker: tracker,
		store:   st,
		table:   table,
	}
}

func (e *testEnv) do(t *testing.T, method, target string, body string, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, http.MethodGet, target, "", "")
}

func (e *testEnv) postJSON(t *testing.T, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, http.MethodPost, target, body, "application/json")
}

// upstreamArticle is a WordPress-style document with enough content to
// pass extraction.
const upstreamArticle = `<!DOCTYPE html>
<html><head>
<title>About the studio &#8211; WordPress.com</title>
<meta name="description" content="Upstream description">
<link rel="stylesheet" id="theme-css" href="https://acme.wordpress.com/wp-content/themes/pub/style.css">
<link rel="stylesheet" id="admin-bar-css" href="https://acme.wordpress.com/wp-includes/css/admin-bar.min.css">
</head>
<body>
<div id="wpadminbar">Admin toolbar</div>
<header><nav><a href="https://acme.wordpress.com/">Home</a></nav></header>
<main>
<h1>Live from upstream</h1>
<p>This paragraph comes straight from the upstream site and is long enough to be treated as real page content by the extractor.</p>
<p>Read <a href="https://acme.wordpress.com/blog/">the blog</a> for more.</p>
</main>
<footer>Powered by WordPress.com</footer>
</body></html>`
