// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware(t *testing.T) {
	Init()
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/ok", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/teapot", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "418"))
	for _, path := range []string{"/ok", "/teapot"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "418")); got != before+1 {
		t.Errorf("418 counter = %v, want %v", got, before+1)
	}
	if testutil.CollectAndCount(httpRequestDurationSeconds) == 0 {
		t.Error("expected duration observations")
	}
}

func TestObserveFetchAndSource(t *testing.T) {
	Init()
	okBefore := testutil.ToFloat64(upstreamFetchTotal.WithLabelValues("ok"))
	errBefore := testutil.ToFloat64(upstreamFetchTotal.WithLabelValues("error"))

	ObserveFetch(nil)
	ObserveFetch(errors.New("timeout"))
	ObserveContentSource("about", SourceFallback)

	if got := testutil.ToFloat64(upstreamFetchTotal.WithLabelValues("ok")); got != okBefore+1 {
		t.Errorf("ok = %v", got)
	}
	if got := testutil.ToFloat64(upstreamFetchTotal.WithLabelValues("error")); got != errBefore+1 {
		t.Errorf("error = %v", got)
	}
	if got := testutil.ToFloat64(contentSourceTotal.WithLabelValues("about", SourceFallback)); got < 1 {
		t.Errorf("content source = %v", got)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	ObservePageView("ok")
	ObserveCleanup("page_views", 3)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	for _, name := range []string{
		"edgepress_page_views_recorded_total",
		"edgepress_cleanup_rows_deleted_total",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("scrape output missing %s", name)
		}
	}
}
