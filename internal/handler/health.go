// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"time"
)

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status string `json:"status"`
}

// healthTimeout bounds the database ping.
const healthTimeout = 2 * time.Second

// Health reports "healthy" when the database answers, "degraded" otherwise.
// Pages keep working without a database, so a degraded instance still
// serves traffic.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Debug("health check: database unavailable", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, HealthStatus{Status: "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, HealthStatus{Status: "healthy"})
}
