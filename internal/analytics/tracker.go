// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mileusna/useragent"

	"github.com/olegiv/edgepress/internal/metrics"
	"github.com/olegiv/edgepress/internal/store"
)

// Column limits of the page_views table.
const (
	maxPathLen      = 2048
	maxUserAgentLen = 512
)

// Recorder persists page views. *store.Store satisfies it.
type Recorder interface {
	RecordPageView(ctx context.Context, pv store.PageView) error
}

// CountryResolver maps a visitor to a country code. *geoip.Lookup satisfies it.
type CountryResolver interface {
	Country(ip string, h http.Header) string
}

// Tracker records page views in the background.
type Tracker struct {
	recorder Recorder
	geo      CountryResolver
	bg       *Background
	now      func() time.Time
}

// NewTracker returns a Tracker. geo may be nil.
func NewTracker(recorder Recorder, geo CountryResolver, bg *Background) *Tracker {
	return &Tracker{
		recorder: recorder,
		geo:      geo,
		bg:       bg,
		now:      time.Now,
	}
}

// IsBot reports whether the user agent belongs to a crawler.
func IsBot(userAgent string) bool {
	return useragent.Parse(userAgent).Bot
}

// Track schedules a page view for r under path. It copies what it needs
// from the request and returns immediately; the write happens later and
// its outcome never reaches the caller.
func (t *Tracker) Track(r *http.Request, path string) {
	if t == nil || t.recorder == nil {
		return
	}

	ua := r.UserAgent()
	if IsBot(ua) {
		metrics.ObservePageView("skipped")
		return
	}

	ip := ClientIP(r)
	now := t.now().UTC()
	country := ""
	if t.geo != nil {
		country = t.geo.Country(ip, r.Header)
	}

	pv := store.PageView{
		Path:      truncate(path, maxPathLen),
		UserAgent: truncate(ua, maxUserAgentLen),
		Country:   country,
		Referrer:  truncate(r.Referer(), maxPathLen),
		Timestamp: now,
		SessionID: SessionID(ip, ua, now),
	}

	t.bg.Go("page_view", func(ctx context.Context) error {
		err := t.recorder.RecordPageView(ctx, pv)
		if errors.Is(err, store.ErrUnavailable) {
			metrics.ObservePageView("skipped")
			return nil
		}
		if err != nil {
			metrics.ObservePageView("error")
			return err
		}
		metrics.ObservePageView("ok")
		return nil
	})
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
