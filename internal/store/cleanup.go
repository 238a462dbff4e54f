// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"time"
)

// CleanupOldRows deletes page views and sessions older than the retention
// window relative to now. Other tables are left alone.
func (s *Store) CleanupOldRows(ctx context.Context, now time.Time) (CleanupResult, error) {
	if !s.Available() {
		return CleanupResult{}, ErrUnavailable
	}
	cutoff := now.UTC().Add(-RetentionWindow)

	var out CleanupResult
	res, err := s.db.ExecContext(ctx, `DELETE FROM page_views WHERE timestamp < ?`, cutoff)
	if err != nil {
		return out, fmt.Errorf("deleting old page views: %w", err)
	}
	out.PageViews, _ = res.RowsAffected()

	res, err = s.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE last_activity < ?`, cutoff)
	if err != nil {
		return out, fmt.Errorf("deleting old sessions: %w", err)
	}
	out.Sessions, _ = res.RowsAffected()

	return out, nil
}
