// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance: retention cleanup of
// analytics rows and any extra jobs registered by the caller.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/edgepress/internal/metrics"
	"github.com/olegiv/edgepress/internal/store"
)

// DefaultCleanupSchedule runs the retention cleanup daily at 03:30.
const DefaultCleanupSchedule = "30 3 * * *"

// jobTimeout bounds a single run of any job.
const jobTimeout = 5 * time.Minute

// Cleaner deletes expired analytics rows. *store.Store satisfies it.
type Cleaner interface {
	CleanupOldRows(ctx context.Context, now time.Time) (store.CleanupResult, error)
}

// Scheduler handles periodic maintenance jobs.
type Scheduler struct {
	cleaner  Cleaner
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a new scheduler instance. An empty schedule selects
// DefaultCleanupSchedule.
func New(cleaner Cleaner, schedule string, logger *slog.Logger) *Scheduler {
	if schedule == "" {
		schedule = DefaultCleanupSchedule
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cleaner:  cleaner,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// Schedule returns the cron expression of the cleanup job.
func (s *Scheduler) Schedule() string {
	return s.schedule
}

// AddFunc registers an extra job. It must be called before Start.
func (s *Scheduler) AddFunc(spec, name string, fn func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.logger.Error("scheduled job failed", "category", "system", "job", name, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling %s (%q): %w", name, spec, err)
	}
	return nil
}

// Start registers the cleanup job and starts the cron loop.
func (s *Scheduler) Start() error {
	err := s.AddFunc(s.schedule, "retention cleanup", func(ctx context.Context) error {
		_, err := s.RunCleanup(ctx)
		return err
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()), "cleanup_schedule", s.schedule)
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// RunCleanup deletes page views and sessions older than the retention
// window. A missing database is not an error; there is nothing to clean.
func (s *Scheduler) RunCleanup(ctx context.Context) (store.CleanupResult, error) {
	res, err := s.cleaner.CleanupOldRows(ctx, s.now())
	if errors.Is(err, store.ErrUnavailable) {
		s.logger.Debug("retention cleanup skipped: database unavailable")
		return res, nil
	}
	metrics.ObserveCleanup("page_views", res.PageViews)
	metrics.ObserveCleanup("user_sessions", res.Sessions)
	if err != nil {
		return res, fmt.Errorf("retention cleanup: %w", err)
	}

	s.logger.Info("retention cleanup finished",
		"category", "store",
		"page_views_deleted", res.PageViews,
		"sessions_deleted", res.Sessions,
		"retention", store.RetentionWindow,
	)
	return res, nil
}
