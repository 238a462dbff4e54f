// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that mirrors warnings and errors
// into the event_log table.
package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
)

// Event levels as stored in the event log.
const (
	EventLevelInfo    = "INFO"
	EventLevelWarning = "WARN"
	EventLevelError   = "ERROR"
)

// Event categories.
const (
	CategoryFetch     = "fetch"
	CategoryExtract   = "extract"
	CategoryStore     = "store"
	CategoryAnalytics = "analytics"
	CategoryHTTP      = "http"
	CategorySystem    = "system"
)

// EventWriter persists event log entries. *store.Store satisfies it.
type EventWriter interface {
	LogEvent(ctx context.Context, level, category, message, metadata string) error
}

// EventLogHandler is a slog.Handler that wraps another handler and also
// writes records at or above its level to an EventWriter.
type EventLogHandler struct {
	inner  slog.Handler
	events EventWriter
	level  slog.Level
	attrs  []slog.Attr
}

// NewEventLogHandler wraps inner, writing WARN and above to events.
func NewEventLogHandler(inner slog.Handler, events EventWriter) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, events, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel wraps inner with a custom minimum level.
func NewEventLogHandlerWithLevel(inner slog.Handler, events EventWriter, level slog.Level) *EventLogHandler {
	return &EventLogHandler{
		inner:  inner,
		events: events,
		level:  level,
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}

	if r.Level >= h.level && h.events != nil {
		h.writeToEventLog(r)
	}

	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &EventLogHandler{
		inner:  h.inner.WithAttrs(attrs),
		events: h.events,
		level:  h.level,
		attrs:  merged,
	}
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	return &EventLogHandler{
		inner:  h.inner.WithGroup(name),
		events: h.events,
		level:  h.level,
		attrs:  h.attrs,
	}
}

// writeToEventLog persists the record. Failures are dropped: logging must
// never fail the caller.
func (h *EventLogHandler) writeToEventLog(r slog.Record) {
	attrs := h.collectAttrs(r)
	_ = h.events.LogEvent(context.Background(),
		slogLevelToEventLevel(r.Level),
		extractCategory(r.Message, attrs),
		r.Message,
		extractMetadata(attrs),
	)
}

func (h *EventLogHandler) collectAttrs(r slog.Record) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	return attrs
}

func slogLevelToEventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return EventLevelError
	case level >= slog.LevelWarn:
		return EventLevelWarning
	default:
		return EventLevelInfo
	}
}

// extractCategory returns the "category" attribute, or infers one from the message.
func extractCategory(message string, attrs []slog.Attr) string {
	for _, a := range attrs {
		if a.Key == "category" {
			return a.Value.String()
		}
	}

	msg := strings.ToLower(message)
	switch {
	case strings.Contains(msg, "upstream") || strings.Contains(msg, "fetch"):
		return CategoryFetch
	case strings.Contains(msg, "extract") || strings.Contains(msg, "fallback"):
		return CategoryExtract
	case strings.Contains(msg, "page view") || strings.Contains(msg, "analytics") || strings.Contains(msg, "session"):
		return CategoryAnalytics
	case strings.Contains(msg, "database") || strings.Contains(msg, "store") ||
		strings.Contains(msg, "subscriber") || strings.Contains(msg, "contact"):
		return CategoryStore
	case strings.Contains(msg, "request") || strings.Contains(msg, "panic") || strings.Contains(msg, "http"):
		return CategoryHTTP
	default:
		return CategorySystem
	}
}

// extractMetadata encodes all attributes except category as a JSON object.
func extractMetadata(attrs []slog.Attr) string {
	meta := make(map[string]string, len(attrs))
	for _, a := range attrs {
		if a.Key == "category" {
			continue
		}
		meta[a.Key] = a.Value.Resolve().String()
	}
	if len(meta) == 0 {
		return "{}"
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return "{}"
	}
	return string(b)
}
