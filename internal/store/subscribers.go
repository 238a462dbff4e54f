// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Subscribe inserts or overwrites the subscriber row for email.
// Resubscribing clears the unsubscribed flag.
func (s *Store) Subscribe(ctx context.Context, email, name string) error {
	if !s.Available() {
		return ErrUnavailable
	}
	email = NormalizeEmail(email)
	if _, err := s.db.ExecContext(ctx, s.dialect.upsertSubscriber, email, name, s.now()); err != nil {
		return fmt.Errorf("upserting subscriber: %w", err)
	}
	return nil
}

// Unsubscribe marks the subscriber as unsubscribed. Returns ErrNotFound
// for unknown addresses.
func (s *Store) Unsubscribe(ctx context.Context, email string) error {
	if !s.Available() {
		return ErrUnavailable
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE subscribers SET unsubscribed = 1, unsubscribed_at = ? WHERE email = ?`,
		s.now(), NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("unsubscribing: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("unsubscribing: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetSubscriber returns the subscriber for email.
func (s *Store) GetSubscriber(ctx context.Context, email string) (Subscriber, error) {
	if !s.Available() {
		return Subscriber{}, ErrUnavailable
	}
	var sub Subscriber
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, subscribed_at, confirmed, unsubscribed, unsubscribed_at
		FROM subscribers WHERE email = ?`, NormalizeEmail(email)).Scan(
		&sub.ID, &sub.Email, &sub.Name, &sub.SubscribedAt,
		&sub.Confirmed, &sub.Unsubscribed, &sub.UnsubscribedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Subscriber{}, ErrNotFound
	}
	if err != nil {
		return Subscriber{}, fmt.Errorf("getting subscriber: %w", err)
	}
	return sub, nil
}

// SubscriberCount returns the number of active subscribers, or zero when
// the store is unavailable.
func (s *Store) SubscriberCount(ctx context.Context) (int64, error) {
	if !s.Available() {
		return 0, ErrUnavailable
	}
	var n int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscribers WHERE unsubscribed = 0`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting subscribers: %w", err)
	}
	return n, nil
}
