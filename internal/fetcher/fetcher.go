// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package fetcher retrieves raw HTML from the upstream origin.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/olegiv/edgepress/internal/metrics"
)

// Attempts is the total number of tries per fetch.
const Attempts = 2

var (
	// ErrEmptyBody means the upstream answered with nothing but whitespace.
	ErrEmptyBody = errors.New("upstream returned an empty body")
	// ErrStatus means the upstream answered with a non-2xx status.
	ErrStatus = errors.New("upstream returned an error status")
)

// HomeRoute is the logical route served from the origin root.
const HomeRoute = "home"

// Options configures a Fetcher.
type Options struct {
	BaseURL   string
	Timeout   time.Duration // per attempt
	Backoff   time.Duration // wait before attempt n is Backoff*(n-1)
	UserAgent string
	Logger    *slog.Logger
}

// Fetcher performs GETs against the upstream origin with a bounded retry.
type Fetcher struct {
	client *resty.Client
	logger *slog.Logger
}

// New builds a Fetcher.
func New(opts Options) *Fetcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimSuffix(opts.BaseURL, "/"))
	client.SetTimeout(opts.Timeout)
	client.SetLogger(restyLogger{logger})
	client.SetHeader("Accept", "text/html,application/xhtml+xml")
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}

	client.SetRetryCount(Attempts - 1)
	client.SetRetryWaitTime(opts.Backoff)
	client.SetRetryMaxWaitTime(opts.Backoff * (Attempts - 1))
	client.SetRetryAfter(func(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
		return opts.Backoff * time.Duration(resp.Request.Attempt), nil
	})
	client.AddRetryCondition(shouldRetry)

	return &Fetcher{client: client, logger: logger}
}

// shouldRetry retries transport errors, timeouts, non-2xx answers and
// blank bodies.
func shouldRetry(resp *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if resp == nil || !resp.IsSuccess() {
		return true
	}
	return strings.TrimSpace(resp.String()) == ""
}

// RoutePath maps a logical route to its upstream path.
func RoutePath(route string) string {
	if route == "" || route == HomeRoute {
		return "/"
	}
	return "/" + strings.Trim(route, "/") + "/"
}

// Fetch returns the raw HTML of a logical route.
func (f *Fetcher) Fetch(ctx context.Context, route string) (string, error) {
	body, _, err := f.get(ctx, RoutePath(route))
	metrics.ObserveFetch(err)
	if err != nil {
		f.logger.Warn("upstream fetch failed", "category", "fetch", "route", route, "error", err)
		return "", err
	}
	return body, nil
}

// FetchPath returns the raw body and content type of an arbitrary
// upstream path, query included.
func (f *Fetcher) FetchPath(ctx context.Context, pathAndQuery string) (string, string, error) {
	body, contentType, err := f.get(ctx, pathAndQuery)
	metrics.ObserveFetch(err)
	if err != nil {
		f.logger.Warn("upstream fetch failed", "category", "fetch", "path", pathAndQuery, "error", err)
	}
	return body, contentType, err
}

func (f *Fetcher) get(ctx context.Context, path string) (string, string, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		Get(path)
	if err != nil {
		return "", "", fmt.Errorf("fetching %s: %w", path, err)
	}
	if !resp.IsSuccess() {
		return "", "", fmt.Errorf("fetching %s: %w: %d", path, ErrStatus, resp.StatusCode())
	}

	body := resp.String()
	if strings.TrimSpace(body) == "" {
		return "", "", fmt.Errorf("fetching %s: %w", path, ErrEmptyBody)
	}
	return body, resp.Header().Get("Content-Type"), nil
}

// restyLogger routes resty's internal messages through slog.
type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), "category", "fetch")
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), "category", "fetch")
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), "category", "fetch")
}
