// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package content holds the fixed route table, the per-route title and
// description overrides, and the static fallback pages.
//
// All tables are built once by NewTable and never modified afterwards.
package content

import (
	"bytes"
	"embed"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

//go:embed fallback/*.md
var fallbackFS embed.FS

// Logical routes.
const (
	RouteHome       = "home"
	RouteAbout      = "about"
	RouteServices   = "services"
	RouteBlog       = "blog"
	RouteContact    = "contact"
	RouteNewsletter = "newsletter"
	RoutePrivacy    = "privacy-policy"
	RouteSitemap    = "sitemap"
)

// Page is rendered page content with its metadata.
type Page struct {
	Content     string // sanitized HTML
	Title       string
	Description string
}

// Route maps a public path to a logical route.
type Route struct {
	Path  string
	Name  string
	Label string // navigation label, empty when not in the nav
}

// Site carries the values substituted into titles and fallback pages.
type Site struct {
	Name         string
	Tagline      string
	ContactEmail string
}

// Table is the immutable set of routes, overrides and fallbacks. Routes
// without a title override (the blog) keep the upstream document title.
type Table struct {
	routes       []Route
	byPath       map[string]Route
	titles       map[string]string
	descriptions map[string]string
	fallbacks    map[string]Page

	defaultTitle       string
	defaultDescription string
}

var routes = []Route{
	{Path: "/", Name: RouteHome, Label: "Home"},
	{Path: "/about", Name: RouteAbout, Label: "About"},
	{Path: "/services", Name: RouteServices, Label: "Services"},
	{Path: "/blog", Name: RouteBlog, Label: "Blog"},
	{Path: "/contact", Name: RouteContact, Label: "Contact"},
	{Path: "/newsletter", Name: RouteNewsletter},
	{Path: "/privacy-policy", Name: RoutePrivacy},
	{Path: "/sitemap.xml", Name: RouteSitemap},
}

// NewTable builds the tables for site, compiling the Markdown fallbacks.
func NewTable(site Site) (*Table, error) {
	if site.Name == "" {
		site.Name = "My Site"
	}

	t := &Table{
		routes:    routes,
		byPath:    make(map[string]Route, len(routes)),
		fallbacks: make(map[string]Page),
		titles: map[string]string{
			RouteHome:       site.Name + " | " + site.Tagline,
			RouteAbout:      "About | " + site.Name,
			RouteServices:   "Services | " + site.Name,
			RouteContact:    "Contact | " + site.Name,
			RouteNewsletter: "Newsletter | " + site.Name,
			RoutePrivacy:    "Privacy Policy | " + site.Name,
		},
		descriptions: map[string]string{
			RouteHome:       site.Tagline + ".",
			RouteAbout:      "Who we are and what " + site.Name + " is about.",
			RouteServices:   "Consulting, development and support from " + site.Name + ".",
			RouteContact:    "Get in touch with " + site.Name + ".",
			RouteNewsletter: "Subscribe to the " + site.Name + " newsletter.",
			RoutePrivacy:    "How " + site.Name + " handles your data.",
		},
		defaultTitle:       site.Name,
		defaultDescription: site.Name + ": " + site.Tagline + ".",
	}
	if site.Tagline == "" {
		t.titles[RouteHome] = site.Name
		t.descriptions[RouteHome] = site.Name + "."
		t.defaultDescription = site.Name + "."
	}

	for _, r := range routes {
		t.byPath[r.Path] = r
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	vars := strings.NewReplacer(
		"{site_name}", site.Name,
		"{site_tagline}", site.Tagline,
		"{contact_email}", site.ContactEmail,
	)

	for _, r := range routes {
		if r.Name == RouteSitemap {
			continue
		}
		src, err := fallbackFS.ReadFile("fallback/" + r.Name + ".md")
		if err != nil {
			return nil, fmt.Errorf("reading fallback for %s: %w", r.Name, err)
		}
		var buf bytes.Buffer
		if err := md.Convert([]byte(vars.Replace(string(src))), &buf); err != nil {
			return nil, fmt.Errorf("rendering fallback for %s: %w", r.Name, err)
		}
		page := Page{
			Content:     buf.String(),
			Title:       t.titles[r.Name],
			Description: t.descriptions[r.Name],
		}
		if page.Title == "" {
			page.Title = r.Label + " | " + site.Name
		}
		if page.Description == "" {
			page.Description = t.defaultDescription
		}
		t.fallbacks[r.Name] = page
	}

	return t, nil
}

// Lookup maps a request path to its logical route. Unknown paths map to
// the home route with known=false; they are rendered, not rejected.
func (t *Table) Lookup(path string) (route string, known bool) {
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	if r, ok := t.byPath[path]; ok {
		return r.Name, true
	}
	return RouteHome, false
}

// Routes returns the route table in declaration order.
func (t *Table) Routes() []Route {
	return append([]Route(nil), t.routes...)
}

// NavRoutes returns the routes shown in the site navigation.
func (t *Table) NavRoutes() []Route {
	var out []Route
	for _, r := range t.routes {
		if r.Label != "" {
			out = append(out, r)
		}
	}
	return out
}

// SitemapPaths returns every public path except the newsletter and the
// sitemap itself.
func (t *Table) SitemapPaths() []string {
	var out []string
	for _, r := range t.routes {
		if r.Name == RouteNewsletter || r.Name == RouteSitemap {
			continue
		}
		out = append(out, r.Path)
	}
	return out
}

// Fallback returns the static page for route, or the home page for
// unknown routes.
func (t *Table) Fallback(route string) Page {
	if p, ok := t.fallbacks[route]; ok {
		return p
	}
	return t.fallbacks[RouteHome]
}

// Title returns the override title for route, if any.
func (t *Table) Title(route string) (string, bool) {
	s, ok := t.titles[route]
	return s, ok
}

// Description returns the override description for route, if any.
func (t *Table) Description(route string) (string, bool) {
	s, ok := t.descriptions[route]
	return s, ok
}

// DefaultTitle is used when neither an override nor a source title exists.
func (t *Table) DefaultTitle() string { return t.defaultTitle }

// DefaultDescription is used when neither an override nor a source
// description exists.
func (t *Table) DefaultDescription() string { return t.defaultDescription }
