// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
)

// LogEvent appends an entry to the event log.
func (s *Store) LogEvent(ctx context.Context, level, category, message, metadata string) error {
	if !s.Available() {
		return ErrUnavailable
	}
	if metadata == "" {
		metadata = "{}"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO event_log (level, category, message, metadata, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		level, category, message, metadata, s.now())
	if err != nil {
		return fmt.Errorf("logging event: %w", err)
	}
	return nil
}

// RecentEvents returns the latest event log entries, newest first.
func (s *Store) RecentEvents(ctx context.Context, limit int) ([]Event, error) {
	if !s.Available() {
		return nil, ErrUnavailable
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, level, category, message, metadata, created_at
		FROM event_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
