// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package metrics exposes Prometheus collectors for the edge worker.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Content sources reported by ObserveContentSource.
const (
	SourceUpstream = "upstream"
	SourceFallback = "fallback"
)

var (
	upstreamFetchTotal         *prometheus.CounterVec
	contentSourceTotal         *prometheus.CounterVec
	pageViewsRecordedTotal     *prometheus.CounterVec
	cleanupRowsDeletedTotal    *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init registers the collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		upstreamFetchTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgepress_upstream_fetch_total",
				Help: "Upstream page fetches, labeled by result (ok, error).",
			},
			[]string{"result"},
		)

		contentSourceTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgepress_content_source_total",
				Help: "Rendered pages, labeled by logical route and content source.",
			},
			[]string{"route", "source"},
		)

		pageViewsRecordedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgepress_page_views_recorded_total",
				Help: "Background page view writes, labeled by result (ok, error, skipped).",
			},
			[]string{"result"},
		)

		cleanupRowsDeletedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgepress_cleanup_rows_deleted_total",
				Help: "Rows removed by retention cleanup, labeled by table.",
			},
			[]string{"table"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgepress_http_requests_total",
				Help: "HTTP requests, labeled by method and status code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "edgepress_http_request_duration_seconds",
				Help:    "HTTP request latencies, labeled by method and route pattern.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 30},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObserveFetch counts an upstream fetch outcome.
func ObserveFetch(err error) {
	Init()
	result := "ok"
	if err != nil {
		result = "error"
	}
	upstreamFetchTotal.WithLabelValues(result).Inc()
}

// ObserveContentSource counts which source served a route.
func ObserveContentSource(route, source string) {
	Init()
	contentSourceTotal.WithLabelValues(route, source).Inc()
}

// ObservePageView counts a page view write outcome.
func ObservePageView(result string) {
	Init()
	pageViewsRecordedTotal.WithLabelValues(result).Inc()
}

// ObserveCleanup counts rows removed from a table.
func ObserveCleanup(table string, rows int64) {
	Init()
	if rows > 0 {
		cleanupRowsDeletedTotal.WithLabelValues(table).Add(float64(rows))
	}
}

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Middleware records request count and latency for every request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}

		ObserveHTTPRequest(r.Method, route, status, time.Since(start))
	})
}
