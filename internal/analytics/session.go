// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package analytics records page views without cookies. A visitor's
// session is a daily bucket derived from network address and user agent.
package analytics

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"
)

// SessionID derives the daily session identifier for a visitor. Two
// visitors sharing address and user agent on the same UTC day collapse
// into one session; the same visitor gets a new id each day.
func SessionID(ip, userAgent string, at time.Time) string {
	day := at.UTC().Format(time.DateOnly)
	sum := sha256.Sum256([]byte(ip + "|" + userAgent + "|" + day))
	return hex.EncodeToString(sum[:])[:32]
}

// ClientIP returns the visitor address, honouring proxy headers.
func ClientIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx > 0 {
		ip = ip[:idx]
	}
	ip = strings.TrimPrefix(ip, "[")
	ip = strings.TrimSuffix(ip, "]")

	return ip
}
