// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
)

// APIError is the JSON body of a failed API call.
type APIError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// WriteJSONError writes {"success":false,"error":message}.
func WriteJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(APIError{Success: false, Error: message})
}

// IsAPIPath reports whether p belongs to the JSON API.
func IsAPIPath(p string) bool {
	return p == "/api" || strings.HasPrefix(p, "/api/")
}
