// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/google/uuid"

	"github.com/olegiv/edgepress/internal/render"
)

// ErrorPages renders the branded error page.
type ErrorPages interface {
	Error(status int, message, ref string) (*render.Response, error)
}

// Recover turns a panic into a 500 response: JSON under /api/, the error
// page elsewhere. Every recovered panic is logged with a reference id that
// is also shown to the visitor.
func Recover(pages ErrorPages, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				ref := uuid.NewString()
				logger.Error("panic recovered in request",
					"category", "http",
					"ref", ref,
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)

				if IsAPIPath(r.URL.Path) {
					WriteJSONError(w, http.StatusInternalServerError, "Internal server error")
					return
				}
				WriteErrorPage(w, pages, http.StatusInternalServerError,
					"An unexpected error occurred. Please try again shortly.", ref)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// WriteErrorPage renders the branded error page, degrading to plain text
// when the page itself cannot be rendered.
func WriteErrorPage(w http.ResponseWriter, pages ErrorPages, status int, message, ref string) {
	if pages != nil {
		if resp, err := pages.Error(status, message, ref); err == nil {
			resp.Write(w)
			return
		}
	}
	http.Error(w, http.StatusText(status), status)
}
