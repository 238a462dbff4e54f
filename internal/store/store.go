// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package store is the persistence layer for subscribers, contact
// submissions, page views, sessions and the event log.
//
// Every operation degrades when the database is missing: writes return
// ErrUnavailable, reads return zero values alongside ErrUnavailable.
package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

var (
	// ErrUnavailable is returned when no database is configured or reachable.
	ErrUnavailable = errors.New("store unavailable")
	// ErrNotFound is returned when an update matched no row.
	ErrNotFound = errors.New("not found")
)

// RetentionWindow is how long page views and sessions are kept.
const RetentionWindow = 90 * 24 * time.Hour

// Store wraps a database handle with the queries the site needs.
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// New returns a Store. A nil db yields a Store whose operations all
// report ErrUnavailable.
func New(db *sql.DB, d Dialect) *Store {
	return &Store{
		db:      db,
		dialect: d,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the clock used for timestamps. Used by tests and
// by the one-shot cleanup command.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = func() time.Time { return now().UTC() }
	return s
}

// Available reports whether a database handle is present.
func (s *Store) Available() bool {
	return s != nil && s.db != nil
}

// DB returns the underlying handle, or nil when unavailable.
func (s *Store) DB() *sql.DB {
	if s == nil {
		return nil
	}
	return s.db
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if !s.Available() {
		return ErrUnavailable
	}
	return s.db.PingContext(ctx)
}

// NormalizeEmail trims and case-folds an address so it can serve as the
// subscriber key.
func NormalizeEmail(email string) string {
	return cases.Fold().String(strings.TrimSpace(email))
}
