// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"net/http"

	"github.com/olegiv/edgepress/internal/store"
)

// AnalyticsSummary is the body of GET /api/analytics.
type AnalyticsSummary struct {
	Success      bool                 `json:"success"`
	Subscribers  int64                `json:"subscribers"`
	ViewsTotal   int64                `json:"views_total"`
	Views24h     int64                `json:"views_24h"`
	Views7d      int64                `json:"views_7d"`
	Sessions7d   int64                `json:"sessions_7d"`
	TopPaths     []store.PathCount    `json:"top_paths"`
	TopCountries []store.CountryCount `json:"top_countries"`
}

// Newsletter handles POST /api/newsletter and the /newsletter form post.
func (h *Handler) Newsletter(w http.ResponseWriter, r *http.Request) {
	in, err := decodeSubmission(w, r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	email, msg := validateEmail(in.Email)
	if msg != "" {
		writeJSONError(w, http.StatusBadRequest, msg)
		return
	}
	name := capText(in.Name, MaxNameLength)

	if err := h.store.Subscribe(r.Context(), email, name); err != nil {
		h.logger.Error("saving subscriber failed", "category", "store", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "We couldn't save your subscription. Please try again later.")
		return
	}

	writeJSONSuccess(w, map[string]any{
		"message": "Thanks for subscribing!",
	})
}

// Unsubscribe handles POST /api/newsletter/unsubscribe.
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	in, err := decodeSubmission(w, r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	email, msg := validateEmail(in.Email)
	if msg != "" {
		writeJSONError(w, http.StatusBadRequest, msg)
		return
	}

	err = h.store.Unsubscribe(r.Context(), email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "That email address is not subscribed")
		return
	case err != nil:
		h.logger.Error("unsubscribing subscriber failed", "category", "store", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "We couldn't process your request. Please try again later.")
		return
	}

	writeJSONSuccess(w, map[string]any{
		"message": "You have been unsubscribed.",
	})
}

// Contact handles POST /api/contact.
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	in, err := decodeSubmission(w, r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	name := capText(in.Name, MaxNameLength)
	message := capText(in.Message, MaxMessageLength)
	if name == "" || message == "" {
		writeJSONError(w, http.StatusBadRequest, "Name, email and message are required")
		return
	}
	email, msg := validateEmail(in.Email)
	if msg != "" {
		writeJSONError(w, http.StatusBadRequest, msg)
		return
	}

	if _, err := h.store.SaveContact(r.Context(), name, email, message); err != nil {
		h.logger.Error("saving contact submission failed", "category", "store", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "We couldn't send your message. Please try again later.")
		return
	}

	writeJSONSuccess(w, map[string]any{
		"message": "Thanks for your message! We'll be in touch soon.",
	})
}

// Analytics handles GET /api/analytics. Store failures yield zeros.
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	summary := AnalyticsSummary{
		Success:      true,
		TopPaths:     []store.PathCount{},
		TopCountries: []store.CountryCount{},
	}

	if n, err := h.store.SubscriberCount(ctx); err == nil {
		summary.Subscribers = n
	} else if !errors.Is(err, store.ErrUnavailable) {
		h.logger.Warn("reading subscriber count failed", "category", "store", "error", err)
	}

	stats, err := h.store.ViewStats(ctx, h.now())
	if err == nil {
		summary.ViewsTotal = stats.Total
		summary.Views24h = stats.Last24h
		summary.Views7d = stats.Last7d
		summary.Sessions7d = stats.Sessions7d
		if stats.TopPaths != nil {
			summary.TopPaths = stats.TopPaths
		}
		if stats.TopCountries != nil {
			summary.TopCountries = stats.TopCountries
		}
	} else if !errors.Is(err, store.ErrUnavailable) {
		h.logger.Warn("reading page view stats failed", "category", "analytics", "error", err)
	}

	writeJSON(w, http.StatusOK, summary)
}
