// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"strings"
)

// StripTrailingSlash redirects GET and HEAD requests for paths with a
// trailing slash to their canonical form (HTTP 301). The root path and any
// path under one of skipPrefixes are left alone.
func StripTrailingSlash(skipPrefixes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			// "//host/" would become a protocol-relative redirect.
			if path == "/" || !strings.HasSuffix(path, "/") || strings.HasPrefix(path, "//") ||
				(r.Method != http.MethodGet && r.Method != http.MethodHead) {
				next.ServeHTTP(w, r)
				return
			}
			for _, prefix := range skipPrefixes {
				if strings.HasPrefix(path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			newURL := strings.TrimRight(path, "/")
			if newURL == "" {
				newURL = "/"
			}
			if r.URL.RawQuery != "" {
				newURL += "?" + r.URL.RawQuery
			}
			http.Redirect(w, r, newURL, http.StatusMovedPermanently)
		})
	}
}
