// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package geoip

import (
	"net/http"
	"path/filepath"
	"testing"
)

func TestCountry_Headers(t *testing.T) {
	g, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tests := []struct {
		name   string
		header http.Header
		ip     string
		want   string
	}{
		{"cloudflare", http.Header{"Cf-Ipcountry": {"de"}}, "8.8.8.8", "DE"},
		{"cloudfront", http.Header{"Cloudfront-Viewer-Country": {"FR"}}, "8.8.8.8", "FR"},
		{"unknown marker ignored", http.Header{"Cf-Ipcountry": {"XX"}}, "127.0.0.1", Local},
		{"no header, no db", http.Header{}, "8.8.8.8", ""},
		{"private ip", http.Header{}, "192.168.1.10", Local},
		{"ipv6 loopback", http.Header{}, "::1", Local},
		{"invalid ip", http.Header{}, "not-an-ip", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.Country(tt.ip, tt.header); got != tt.want {
				t.Errorf("Country(%q) = %q, want %q", tt.ip, got, tt.want)
			}
		})
	}
}

func TestNew_MissingDatabase(t *testing.T) {
	g, err := New(filepath.Join(t.TempDir(), "missing.mmdb"))
	if err == nil {
		t.Fatal("New() should fail for a missing database")
	}
	if g == nil || g.Enabled() {
		t.Error("lookup should be usable and disabled after a failed load")
	}
	if err := g.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestZeroValue(t *testing.T) {
	var g Lookup
	if got := g.LookupIP("10.0.0.1"); got != Local {
		t.Errorf("LookupIP = %q, want %q", got, Local)
	}
	if err := g.Reload(); err != nil {
		t.Errorf("Reload() error = %v", err)
	}
}
