// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Background runs tasks detached from the request that started them.
// Task errors and panics are logged and discarded.
type Background struct {
	wg      sync.WaitGroup
	logger  *slog.Logger
	timeout time.Duration
}

// NewBackground returns a runner whose tasks get timeout to complete.
func NewBackground(logger *slog.Logger, timeout time.Duration) *Background {
	return &Background{logger: logger, timeout: timeout}
}

// Go starts fn in its own goroutine with a fresh context.
func (b *Background) Go(name string, fn func(ctx context.Context) error) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				b.logger.Error("background task panicked",
					"category", "analytics", "task", name, "panic", fmt.Sprint(rec))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			b.logger.Warn("background task failed",
				"category", "analytics", "task", name, "error", err)
		}
	}()
}

// Wait blocks until all started tasks finish or ctx is done.
func (b *Background) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
