// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/olegiv/edgepress/internal/store"
	"github.com/olegiv/edgepress/internal/testutil"
)

type fakeCleaner struct {
	res   store.CleanupResult
	err   error
	calls int
	at    time.Time
}

func (f *fakeCleaner) CleanupOldRows(_ context.Context, now time.Time) (store.CleanupResult, error) {
	f.calls++
	f.at = now
	return f.res, f.err
}

func TestNew(t *testing.T) {
	logger := testutil.TestLoggerSilent()

	s := New(&fakeCleaner{}, "", logger)
	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.cron == nil {
		t.Error("New() scheduler has nil cron")
	}
	if s.logger != logger {
		t.Error("New() scheduler has wrong logger")
	}
	if s.Schedule() != DefaultCleanupSchedule {
		t.Errorf("Schedule() = %q, want %q", s.Schedule(), DefaultCleanupSchedule)
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(&fakeCleaner{}, "0 4 * * *", testutil.TestLoggerSilent())

	if err := s.AddFunc("@weekly", "noop", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("AddFunc() error = %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := len(s.cron.Entries()); got != 2 {
		t.Errorf("entries = %d, want 2", got)
	}
	s.Stop()
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := New(&fakeCleaner{}, "every now and then", testutil.TestLoggerSilent())
	if err := s.Start(); err == nil {
		t.Fatal("Start() accepted an invalid cron expression")
	}
}

func TestRunCleanup(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cleaner := &fakeCleaner{res: store.CleanupResult{PageViews: 3, Sessions: 1}}
	s := New(cleaner, "", testutil.TestLoggerSilent())
	s.now = func() time.Time { return now }

	res, err := s.RunCleanup(context.Background())
	if err != nil {
		t.Fatalf("RunCleanup() error = %v", err)
	}
	if res.PageViews != 3 || res.Sessions != 1 {
		t.Errorf("result = %+v", res)
	}
	if !cleaner.at.Equal(now) {
		t.Errorf("cleaner called with %v, want %v", cleaner.at, now)
	}
}

func TestRunCleanup_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"unavailable store is skipped", store.ErrUnavailable, false},
		{"delete failure is reported", errors.New("database is locked"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(&fakeCleaner{err: tt.err}, "", testutil.TestLoggerSilent())
			_, err := s.RunCleanup(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("RunCleanup() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRunCleanup_AgainstStore(t *testing.T) {
	st := testutil.TestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	views := []store.PageView{
		{Path: "/old", SessionID: "old", Timestamp: now.Add(-store.RetentionWindow - 24*time.Hour)},
		{Path: "/recent", SessionID: "recent", Timestamp: now.Add(-time.Hour)},
	}
	for _, pv := range views {
		if err := st.RecordPageView(ctx, pv); err != nil {
			t.Fatalf("RecordPageView: %v", err)
		}
	}
	if err := st.Subscribe(ctx, "keep@example.com", ""); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	s := New(st, "", testutil.TestLoggerSilent())
	res, err := s.RunCleanup(ctx)
	if err != nil {
		t.Fatalf("RunCleanup() error = %v", err)
	}
	if res.PageViews != 1 || res.Sessions != 1 {
		t.Errorf("result = %+v, want one view and one session", res)
	}

	if n := testutil.CountRows(t, st.DB(), "page_views"); n != 1 {
		t.Errorf("page_views = %d, want 1", n)
	}
	if n := testutil.CountRows(t, st.DB(), "user_sessions"); n != 1 {
		t.Errorf("user_sessions = %d, want 1", n)
	}
	if n := testutil.CountRows(t, st.DB(), "subscribers"); n != 1 {
		t.Errorf("subscribers = %d, want 1", n)
	}
}
