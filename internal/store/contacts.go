// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
)

// ContactStatusNew is the status every submission starts with.
const ContactStatusNew = "new"

// SaveContact appends a contact submission and returns its id.
func (s *Store) SaveContact(ctx context.Context, name, email, message string) (int64, error) {
	if !s.Available() {
		return 0, ErrUnavailable
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO contact_submissions (name, email, message, submitted_at, status)
		VALUES (?, ?, ?, ?, ?)`,
		name, email, message, s.now(), ContactStatusNew)
	if err != nil {
		return 0, fmt.Errorf("saving contact submission: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("saving contact submission: %w", err)
	}
	return id, nil
}

// ListContacts returns the most recent submissions, newest first.
func (s *Store) ListContacts(ctx context.Context, limit int) ([]ContactSubmission, error) {
	if !s.Available() {
		return nil, ErrUnavailable
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, message, submitted_at, status
		FROM contact_submissions
		ORDER BY submitted_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing contact submissions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ContactSubmission
	for rows.Next() {
		var c ContactSubmission
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Message, &c.SubmittedAt, &c.Status); err != nil {
			return nil, fmt.Errorf("scanning contact submission: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
