// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
)

// maxBodyBytes caps newsletter and contact request bodies.
const maxBodyBytes = 64 << 10

// writeJSON writes v with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]any{
		"success": false,
		"error":   message,
	})
}

// writeJSONSuccess writes a JSON success response.
func writeJSONSuccess(w http.ResponseWriter, data map[string]any) {
	if data == nil {
		data = make(map[string]any)
	}
	data["success"] = true
	writeJSON(w, http.StatusOK, data)
}

// submission is the body of a newsletter or contact request.
type submission struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// errBadBody reports an unreadable request body.
var errBadBody = errors.New("invalid request body")

// decodeSubmission reads a JSON or URL-encoded body.
func decodeSubmission(w http.ResponseWriter, r *http.Request) (submission, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var s submission
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			return submission{}, fmt.Errorf("%w: %v", errBadBody, err)
		}
		return s, nil
	}

	if err := r.ParseForm(); err != nil {
		return submission{}, fmt.Errorf("%w: %v", errBadBody, err)
	}
	return submission{
		Email:   r.PostForm.Get("email"),
		Name:    r.PostForm.Get("name"),
		Message: r.PostForm.Get("message"),
	}, nil
}
