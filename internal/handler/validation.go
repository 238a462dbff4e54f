// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"strings"
	"unicode/utf8"

	"github.com/olegiv/edgepress/internal/store"
)

// Input limits. Longer names and messages are cut, longer emails rejected.
const (
	MaxEmailLength   = 255
	MaxNameLength    = 100
	MaxMessageLength = 1000
)

// validateEmail trims email and returns it with an error message, empty
// when valid. The length limit applies to the stored, case-folded form.
func validateEmail(email string) (string, string) {
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		return email, "Email is required"
	case !strings.Contains(email, "@"):
		return email, "Please enter a valid email address"
	case utf8.RuneCountInString(store.NormalizeEmail(email)) > MaxEmailLength:
		return email, "Email address is too long"
	}
	return email, ""
}

// capText trims s and keeps at most n characters.
func capText(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
