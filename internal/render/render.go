// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render wraps page content in the site templates.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/olegiv/edgepress/internal/content"
	"github.com/olegiv/edgepress/internal/seo"
	"github.com/olegiv/edgepress/web"
)

// Cache-Control values.
const (
	CachePublic  = "public, max-age=300, s-maxage=3600"
	CacheNoStore = "no-cache, no-store, must-revalidate"
)

// Renderer produces complete HTML documents from page content.
type Renderer struct {
	templates map[string]*template.Template
	site      content.Site
	seo       seo.SiteConfig
	nav       []content.Route
	footer    []FooterGroup
	css       template.CSS
	js        template.JS
	now       func() time.Time
}

// Config holds renderer configuration.
type Config struct {
	TemplatesFS fs.FS // defaults to web.Templates
	StaticFS    fs.FS // defaults to web.Static
	Site        content.Site
	SiteURL     string
	LogoURL     string
	Nav         []content.Route
	Footer      []FooterGroup // defaults to DefaultFooter(Nav)
}

// Link is a footer link.
type Link struct {
	Label string
	Href  string
}

// FooterGroup is a titled column of footer links.
type FooterGroup struct {
	Title string
	Links []Link
}

// NavLink is a header navigation entry.
type NavLink struct {
	Path   string
	Label  string
	Active bool
}

// ErrorData describes an error page.
type ErrorData struct {
	Status    int
	Title     string
	Message   string
	Reference string
}

// TemplateData holds data passed to the page and error templates.
type TemplateData struct {
	Site           content.Site
	Meta           seo.Meta
	Nav            []NavLink
	FooterGroups   []FooterGroup
	Content        template.HTML
	Error          *ErrorData
	ShowNewsletter bool
	CSS            template.CSS
	JS             template.JS
	Year           int
}

type minimalData struct {
	Title     string
	Head      template.HTML
	Body      template.HTML
	BodyClass string
}

// Response is a rendered document ready to be written.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Write sends the response.
func (resp *Response) Write(w http.ResponseWriter) {
	for k, v := range resp.Header {
		w.Header()[k] = v
	}
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}

// New creates a new Renderer with parsed templates and inlined assets.
func New(cfg Config) (*Renderer, error) {
	if cfg.TemplatesFS == nil {
		sub, err := fs.Sub(web.Templates, "templates")
		if err != nil {
			return nil, fmt.Errorf("opening embedded templates: %w", err)
		}
		cfg.TemplatesFS = sub
	}
	if cfg.StaticFS == nil {
		cfg.StaticFS = web.Static
	}
	if cfg.Footer == nil {
		cfg.Footer = DefaultFooter(cfg.Nav)
	}

	r := &Renderer{
		templates: make(map[string]*template.Template),
		site:      cfg.Site,
		seo: seo.SiteConfig{
			SiteName: cfg.Site.Name,
			SiteURL:  cfg.SiteURL,
			LogoURL:  cfg.LogoURL,
		},
		nav:    cfg.Nav,
		footer: cfg.Footer,
		now:    time.Now,
	}

	if err := r.parseTemplates(cfg.TemplatesFS); err != nil {
		return nil, err
	}

	css, err := fs.ReadFile(cfg.StaticFS, "static/site.css")
	if err != nil {
		return nil, fmt.Errorf("reading stylesheet: %w", err)
	}
	js, err := fs.ReadFile(cfg.StaticFS, "static/site.js")
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	r.css = template.CSS(css)
	r.js = template.JS(js)

	return r, nil
}

// DefaultFooter returns the footer link groups for a navigation table.
func DefaultFooter(nav []content.Route) []FooterGroup {
	explore := FooterGroup{Title: "Explore"}
	for _, rt := range nav {
		explore.Links = append(explore.Links, Link{Label: rt.Label, Href: rt.Path})
	}
	return []FooterGroup{
		explore,
		{
			Title: "More",
			Links: []Link{
				{Label: "Newsletter", Href: "/newsletter"},
				{Label: "Privacy Policy", Href: "/privacy-policy"},
				{Label: "Sitemap", Href: "/sitemap.xml"},
			},
		},
	}
}

// parseTemplates parses the layout, partials and page templates.
func (r *Renderer) parseTemplates(templatesFS fs.FS) error {
	partials, err := r.getTemplateFiles(templatesFS, "partials")
	if err != nil {
		return fmt.Errorf("getting partials: %w", err)
	}

	baseLayout := "layouts/base.html"

	pages, err := r.getTemplateFiles(templatesFS, "pages")
	if err != nil {
		return fmt.Errorf("getting pages: %w", err)
	}

	for _, tmplPath := range pages {
		name := strings.TrimSuffix(path.Base(tmplPath), ".html")

		// Parse in order: base layout, partials, page template
		files := []string{baseLayout}
		files = append(files, partials...)
		files = append(files, tmplPath)

		tmpl, err := template.New("").Funcs(r.templateFuncs()).ParseFS(templatesFS, files...)
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}

	tmpl, err := template.New("").Funcs(r.templateFuncs()).ParseFS(templatesFS, "minimal.html")
	if err != nil {
		return fmt.Errorf("parsing template minimal: %w", err)
	}
	r.templates["minimal"] = tmpl

	for _, name := range []string{"page", "error"} {
		if _, ok := r.templates[name]; !ok {
			return fmt.Errorf("template %s not found", name)
		}
	}
	return nil
}

// getTemplateFiles returns all .html files in a directory.
func (r *Renderer) getTemplateFiles(templatesFS fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(templatesFS, dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".html") {
			files = append(files, path.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

// templateFuncs returns custom template functions.
func (r *Renderer) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"lower": strings.ToLower,
	}
}

// Page renders content served at requestPath inside the full site layout.
func (r *Renderer) Page(p content.Page, requestPath string) (*Response, error) {
	data := r.baseData(p.Title, p.Description, requestPath)
	data.Content = template.HTML(p.Content) //nolint:gosec // sanitized by the extractor or authored locally
	data.ShowNewsletter = true

	body, err := r.execute("page", "base", data)
	if err != nil {
		return nil, err
	}

	h := htmlHeader()
	h.Set("Cache-Control", CachePublic)
	return &Response{Status: http.StatusOK, Header: h, Body: body}, nil
}

// Error renders the branded error page. ref is shown when non-empty.
func (r *Renderer) Error(status int, message, ref string) (*Response, error) {
	title := errorTitle(status)
	if message == "" {
		message = http.StatusText(status)
	}

	data := r.baseData(title+" | "+r.site.Name, message, "")
	// Error pages are not indexed and have no canonical address.
	data.Meta.Robots = "noindex,nofollow"
	data.Meta.Canonical = ""
	data.Meta.OGURL = ""
	data.Meta.OGType = "website"
	data.Meta.JSONLD = ""
	data.Error = &ErrorData{
		Status:    status,
		Title:     title,
		Message:   message,
		Reference: ref,
	}

	body, err := r.execute("error", "base", data)
	if err != nil {
		return nil, err
	}

	h := htmlHeader()
	h.Set("Cache-Control", CacheNoStore)
	return &Response{Status: status, Header: h, Body: body}, nil
}

// Minimal renders an upstream document without the site chrome, keeping
// only its own title, stylesheets, scripts and body.
func (r *Renderer) Minimal(upstreamHTML string) (*Response, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(upstreamHTML))
	if err != nil {
		return nil, fmt.Errorf("parsing upstream document: %w", err)
	}

	var head strings.Builder
	doc.Find(`head link[rel="stylesheet"], head style, head script`).Each(func(_ int, s *goquery.Selection) {
		if h, err := goquery.OuterHtml(s); err == nil {
			head.WriteString(h)
			head.WriteByte('\n')
		}
	})

	body, err := doc.Find("body").Html()
	if err != nil {
		return nil, fmt.Errorf("reading upstream body: %w", err)
	}
	bodyClass, _ := doc.Find("body").Attr("class")

	data := minimalData{
		Title:     strings.TrimSpace(doc.Find("title").First().Text()),
		Head:      template.HTML(head.String()), //nolint:gosec // upstream passthrough
		Body:      template.HTML(body),          //nolint:gosec // upstream passthrough
		BodyClass: bodyClass,
	}
	if data.Title == "" {
		data.Title = r.site.Name
	}

	out, err := r.execute("minimal", "minimal", data)
	if err != nil {
		return nil, err
	}

	// Upstream admin pages keep their own framing and sniffing policy.
	h := make(http.Header)
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Cache-Control", CacheNoStore)
	h.Set("Pragma", "no-cache")
	h.Set("X-Robots-Tag", "noindex, nofollow")
	return &Response{Status: http.StatusOK, Header: h, Body: out}, nil
}

func (r *Renderer) baseData(title, description, requestPath string) TemplateData {
	return TemplateData{
		Site:         r.site,
		Meta:         seo.BuildMeta(title, description, requestPath, r.seo),
		Nav:          r.navLinks(requestPath),
		FooterGroups: r.footer,
		CSS:          r.css,
		JS:           r.js,
		Year:         r.now().Year(),
	}
}

// navLinks marks the entry matching requestPath as active.
func (r *Renderer) navLinks(requestPath string) []NavLink {
	current := normalizePath(requestPath)
	links := make([]NavLink, 0, len(r.nav))
	for _, rt := range r.nav {
		links = append(links, NavLink{
			Path:   rt.Path,
			Label:  rt.Label,
			Active: current != "" && normalizePath(rt.Path) == current,
		})
	}
	return links
}

// execute renders a template to a buffer first to catch errors.
func (r *Renderer) execute(name, entry string, data any) ([]byte, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return nil, fmt.Errorf("template %s not found", name)
	}

	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, entry, data); err != nil {
		return nil, fmt.Errorf("executing template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func normalizePath(p string) string {
	if p == "" {
		return ""
	}
	if p != "/" {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

func htmlHeader() http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "SAMEORIGIN")
	h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	return h
}

func errorTitle(status int) string {
	switch status {
	case http.StatusNotFound:
		return "Page not found"
	case http.StatusMethodNotAllowed:
		return "Method not allowed"
	case http.StatusBadGateway:
		return "Temporarily unavailable"
	case http.StatusInternalServerError:
		return "Something went wrong"
	default:
		return http.StatusText(status)
	}
}
