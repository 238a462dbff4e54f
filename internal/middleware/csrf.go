// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"filippo.io/csrf/gorilla"
)

// CSRFConfig holds configuration for cross-origin POST protection.
// filippo.io/csrf/gorilla checks Fetch metadata and Origin headers, so no
// token or cookie is involved and the newsletter and contact scripts need
// no extra wiring.
type CSRFConfig struct {
	// ErrorHandler is called when validation fails.
	ErrorHandler http.Handler

	// TrustedOrigins lists hosts (host or host:port, not URLs) allowed to
	// post cross-origin.
	TrustedOrigins []string

	Logger *slog.Logger
}

// DefaultCSRFConfig returns a CSRFConfig trusting the given hosts. In
// development the local server address is trusted too.
func DefaultCSRFConfig(trusted []string, isDev bool) CSRFConfig {
	cfg := CSRFConfig{}
	for _, origin := range trusted {
		origin = strings.TrimSpace(origin)
		origin = strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://")
		if origin = strings.TrimSuffix(origin, "/"); origin != "" {
			cfg.TrustedOrigins = append(cfg.TrustedOrigins, origin)
		}
	}
	if isDev {
		cfg.TrustedOrigins = append(cfg.TrustedOrigins, "localhost:8080", "127.0.0.1:8080")
	}
	return cfg
}

// CSRF returns a middleware that rejects cross-origin state-changing requests.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var opts []csrf.Option
	if cfg.ErrorHandler != nil {
		opts = append(opts, csrf.ErrorHandler(cfg.ErrorHandler))
	} else {
		opts = append(opts, csrf.ErrorHandler(csrfErrorHandler(logger)))
	}
	if len(cfg.TrustedOrigins) > 0 {
		opts = append(opts, csrf.TrustedOrigins(cfg.TrustedOrigins))
	}

	// The auth key is unused by the Fetch metadata implementation.
	return csrf.Protect(nil, opts...)
}

// csrfErrorHandler answers API calls with JSON and forms with plain text.
func csrfErrorHandler(logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reason := "unknown"
		if err := csrf.FailureReason(r); err != nil {
			reason = err.Error()
		}
		logger.Warn("cross-origin request rejected",
			"category", "http",
			"reason", reason,
			"method", r.Method,
			"path", r.URL.Path,
			"origin", r.Header.Get("Origin"),
			"sec_fetch_site", r.Header.Get("Sec-Fetch-Site"),
		)

		if IsAPIPath(r.URL.Path) {
			WriteJSONError(w, http.StatusForbidden, "Cross-origin request rejected")
			return
		}
		http.Error(w, "Forbidden - cross-origin request rejected", http.StatusForbidden)
	})
}
