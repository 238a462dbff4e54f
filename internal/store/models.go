// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

// Subscriber is a newsletter subscriber keyed by normalized email.
type Subscriber struct {
	ID             int64
	Email          string
	Name           string
	SubscribedAt   time.Time
	Confirmed      bool
	Unsubscribed   bool
	UnsubscribedAt sql.NullTime
}

// ContactSubmission is one contact form post. Rows are never updated here.
type ContactSubmission struct {
	ID          int64
	Name        string
	Email       string
	Message     string
	SubmittedAt time.Time
	Status      string
}

// PageView is a single recorded page hit.
type PageView struct {
	Path      string
	UserAgent string
	Country   string
	Referrer  string
	Timestamp time.Time
	SessionID string
}

// PathCount is a path with its view count.
type PathCount struct {
	Path  string `json:"path"`
	Views int64  `json:"views"`
}

// CountryCount is a country code with its view count.
type CountryCount struct {
	Country string `json:"country"`
	Views   int64  `json:"views"`
}

// ViewStats summarizes recent traffic.
type ViewStats struct {
	Total        int64
	Last24h      int64
	Last7d       int64
	Sessions7d   int64
	TopPaths     []PathCount
	TopCountries []CountryCount
}

// CleanupResult reports how many rows a retention sweep removed.
type CleanupResult struct {
	PageViews int64
	Sessions  int64
}

// Event is a row of the event log.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	Metadata  string
	CreatedAt time.Time
}
