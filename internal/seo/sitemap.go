// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package seo builds sitemaps, robots.txt and page metadata.
package seo

import (
	"encoding/xml"
	"strings"
	"time"
)

// XMLNamespace is the sitemap XML namespace.
const XMLNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// ChangeFreq represents the change frequency of a URL.
type ChangeFreq string

// Change frequencies used by the builder.
const (
	ChangeFreqDaily  ChangeFreq = "daily"
	ChangeFreqWeekly ChangeFreq = "weekly"
)

// SitemapURL represents a single URL entry in the sitemap.
type SitemapURL struct {
	Loc        string     `xml:"loc"`
	LastMod    string     `xml:"lastmod,omitempty"`
	ChangeFreq ChangeFreq `xml:"changefreq,omitempty"`
	Priority   string     `xml:"priority,omitempty"`
}

// Sitemap represents the complete sitemap document.
type Sitemap struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []SitemapURL `xml:"url"`
}

// SitemapBuilder builds sitemap XML from site paths.
type SitemapBuilder struct {
	siteURL string
	lastMod string
	urls    []SitemapURL
}

// NewSitemapBuilder creates a builder for siteURL. A non-zero lastMod is
// stamped on every entry.
func NewSitemapBuilder(siteURL string, lastMod time.Time) *SitemapBuilder {
	b := &SitemapBuilder{siteURL: strings.TrimSuffix(siteURL, "/")}
	if !lastMod.IsZero() {
		b.lastMod = lastMod.UTC().Format(time.DateOnly)
	}
	return b
}

// AddPath adds a site path. The root gets top priority and a daily
// change frequency.
func (b *SitemapBuilder) AddPath(path string) {
	u := SitemapURL{
		Loc:        b.siteURL + path,
		LastMod:    b.lastMod,
		ChangeFreq: ChangeFreqWeekly,
		Priority:   "0.8",
	}
	if path == "/" {
		u.ChangeFreq = ChangeFreqDaily
		u.Priority = "1.0"
	}
	b.urls = append(b.urls, u)
}

// AddPaths adds multiple paths in order.
func (b *SitemapBuilder) AddPaths(paths []string) {
	for _, p := range paths {
		b.AddPath(p)
	}
}

// Build generates the sitemap XML.
func (b *SitemapBuilder) Build() ([]byte, error) {
	sitemap := Sitemap{
		XMLNS: XMLNamespace,
		URLs:  b.urls,
	}

	output := []byte(xml.Header)
	xmlBytes, err := xml.MarshalIndent(sitemap, "", "  ")
	if err != nil {
		return nil, err
	}

	return append(output, xmlBytes...), nil
}

// GenerateSitemap builds a sitemap for paths under siteURL.
func GenerateSitemap(siteURL string, paths []string, lastMod time.Time) ([]byte, error) {
	builder := NewSitemapBuilder(siteURL, lastMod)
	builder.AddPaths(paths)
	return builder.Build()
}
