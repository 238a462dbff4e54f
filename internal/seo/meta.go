// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package seo

import (
	"encoding/json"
	"html/template"
	"strings"
)

// Meta holds the SEO tags rendered into a page head. Values are plain
// text; html/template escapes them on output.
type Meta struct {
	Title         string
	Description   string
	Canonical     string
	OGTitle       string
	OGDescription string
	OGType        string
	OGSiteName    string
	OGURL         string
	OGImage       string
	Robots        string
	TwitterCard   string
	JSONLD        template.JS
}

// SiteConfig contains site-wide settings for SEO.
type SiteConfig struct {
	SiteName string
	SiteURL  string
	LogoURL  string // absolute or site-relative
}

// BuildMeta creates the tags for a page served at path.
func BuildMeta(title, description, path string, site SiteConfig) Meta {
	canonical := strings.TrimSuffix(site.SiteURL, "/") + path
	ogType := "article"
	if path == "/" {
		ogType = "website"
	}

	m := Meta{
		Title:         title,
		Description:   truncateText(description, 300),
		Canonical:     canonical,
		OGTitle:       title,
		OGDescription: truncateText(description, 300),
		OGType:        ogType,
		OGSiteName:    site.SiteName,
		OGURL:         canonical,
		OGImage:       makeAbsoluteURL(site.LogoURL, site.SiteURL),
		Robots:        "index,follow",
		TwitterCard:   "summary",
	}
	m.JSONLD = buildPageSchema(m, site)
	return m
}

// WebPageSchema is JSON-LD WebPage structured data.
type WebPageSchema struct {
	Context     string         `json:"@context"`
	Type        string         `json:"@type"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	URL         string         `json:"url"`
	IsPartOf    *WebSiteSchema `json:"isPartOf,omitempty"`
}

// WebSiteSchema is JSON-LD WebSite structured data.
type WebSiteSchema struct {
	Type      string     `json:"@type"`
	Name      string     `json:"name"`
	URL       string     `json:"url"`
	Publisher *OrgSchema `json:"publisher,omitempty"`
}

// OrgSchema represents JSON-LD Organization structured data.
type OrgSchema struct {
	Type string       `json:"@type"`
	Name string       `json:"name"`
	Logo *ImageSchema `json:"logo,omitempty"`
}

// ImageSchema represents JSON-LD ImageObject structured data.
type ImageSchema struct {
	Type string `json:"@type"`
	URL  string `json:"url"`
}

func buildPageSchema(m Meta, site SiteConfig) template.JS {
	org := &OrgSchema{Type: "Organization", Name: site.SiteName}
	if m.OGImage != "" {
		org.Logo = &ImageSchema{Type: "ImageObject", URL: m.OGImage}
	}

	return marshalJSONLD(WebPageSchema{
		Context:     "https://schema.org",
		Type:        "WebPage",
		Name:        m.Title,
		Description: m.Description,
		URL:         m.Canonical,
		IsPartOf: &WebSiteSchema{
			Type:      "WebSite",
			Name:      site.SiteName,
			URL:       strings.TrimSuffix(site.SiteURL, "/") + "/",
			Publisher: org,
		},
	})
}

// marshalJSONLD marshals structured data for a script tag. encoding/json
// escapes <, > and & so the result cannot close the tag.
func marshalJSONLD(v any) template.JS {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return template.JS(data)
}

// truncateText truncates text to maxLen characters at a word boundary.
func truncateText(text string, maxLen int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}

	truncated := string(runes[:maxLen])
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > len(truncated)/2 {
		truncated = truncated[:lastSpace]
	}

	return strings.TrimSpace(truncated) + "..."
}

// makeAbsoluteURL ensures a URL is absolute by prepending site URL if needed.
func makeAbsoluteURL(url, siteURL string) string {
	if url == "" {
		return ""
	}
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	siteURL = strings.TrimSuffix(siteURL, "/")
	if !strings.HasPrefix(url, "/") {
		url = "/" + url
	}
	return siteURL + url
}
