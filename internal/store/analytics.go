// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const topListLimit = 10

// RecordPageView upserts the visitor session and appends the page view.
// The two writes run sequentially without a transaction; a failed session
// upsert does not prevent the view insert.
func (s *Store) RecordPageView(ctx context.Context, pv PageView) error {
	if !s.Available() {
		return ErrUnavailable
	}
	if pv.Timestamp.IsZero() {
		pv.Timestamp = s.now()
	}
	ts := pv.Timestamp.UTC()

	var errs []error
	if _, err := s.db.ExecContext(ctx, s.dialect.upsertSession,
		pv.SessionID, ts, ts, pv.Country, pv.UserAgent); err != nil {
		errs = append(errs, fmt.Errorf("upserting session: %w", err))
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO page_views (path, user_agent, country, referrer, timestamp, session_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		pv.Path, pv.UserAgent, pv.Country, pv.Referrer, ts, pv.SessionID); err != nil {
		errs = append(errs, fmt.Errorf("inserting page view: %w", err))
	}

	return errors.Join(errs...)
}

// SessionPageCount returns the running page count of a session.
func (s *Store) SessionPageCount(ctx context.Context, sessionID string) (int64, error) {
	if !s.Available() {
		return 0, ErrUnavailable
	}
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT page_count FROM user_sessions WHERE session_id = ?`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("getting session: %w", err)
	}
	return n, nil
}

// ViewStats summarizes traffic relative to now. Top lists cover the last
// seven days.
func (s *Store) ViewStats(ctx context.Context, now time.Time) (ViewStats, error) {
	if !s.Available() {
		return ViewStats{}, ErrUnavailable
	}
	now = now.UTC()
	dayAgo := now.Add(-24 * time.Hour)
	weekAgo := now.Add(-7 * 24 * time.Hour)

	var st ViewStats
	counts := []struct {
		dest  *int64
		query string
		args  []any
	}{
		{&st.Total, `SELECT COUNT(*) FROM page_views`, nil},
		{&st.Last24h, `SELECT COUNT(*) FROM page_views WHERE timestamp >= ?`, []any{dayAgo}},
		{&st.Last7d, `SELECT COUNT(*) FROM page_views WHERE timestamp >= ?`, []any{weekAgo}},
		{&st.Sessions7d, `SELECT COUNT(*) FROM user_sessions WHERE last_activity >= ?`, []any{weekAgo}},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dest); err != nil {
			return ViewStats{}, fmt.Errorf("counting views: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT path, COUNT(*) AS views FROM page_views
		WHERE timestamp >= ?
		GROUP BY path ORDER BY views DESC, path ASC
		LIMIT ?`, weekAgo, topListLimit)
	if err != nil {
		return ViewStats{}, fmt.Errorf("top paths: %w", err)
	}
	for rows.Next() {
		var pc PathCount
		if err := rows.Scan(&pc.Path, &pc.Views); err != nil {
			_ = rows.Close()
			return ViewStats{}, fmt.Errorf("scanning top paths: %w", err)
		}
		st.TopPaths = append(st.TopPaths, pc)
	}
	_ = rows.Close()

	rows, err = s.db.QueryContext(ctx, `
		SELECT country, COUNT(*) AS views FROM page_views
		WHERE timestamp >= ? AND country <> ''
		GROUP BY country ORDER BY views DESC, country ASC
		LIMIT ?`, weekAgo, topListLimit)
	if err != nil {
		return ViewStats{}, fmt.Errorf("top countries: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var cc CountryCount
		if err := rows.Scan(&cc.Country, &cc.Views); err != nil {
			return ViewStats{}, fmt.Errorf("scanning top countries: %w", err)
		}
		st.TopCountries = append(st.TopCountries, cc)
	}

	return st, rows.Err()
}
