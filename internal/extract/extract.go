// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package extract turns an upstream WordPress page into clean page
// content: it strips platform branding, selects the main content region,
// sanitizes it and derives the title and description.
package extract

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/olegiv/edgepress/internal/content"
)

// ErrInsufficientContent means too little text survived cleanup.
var ErrInsufficientContent = errors.New("extracted content below minimum length")

// Length thresholds, in characters of visible text.
const (
	MinContainerText = 100 // structural containers, taken as-is
	MinStrippedText  = 50  // generic body after removing header/footer/nav
	MinContentText   = 50  // final sanitized content
)

// containerSelectors are tried in order; the first one with enough text wins.
var containerSelectors = []string{
	"main",
	"article",
	"[role=main]",
	".entry-content",
	".site-content",
	"#content",
	".content",
}

// chromeSelector is removed from the generic body candidate.
const chromeSelector = "header, footer, nav, script, noscript, aside"

var titleSuffix = regexp.MustCompile(`(?i)\s*[-–—|·:]\s*(?:wordpress\.com|wordpress)\s*$`)

// Overrides supplies per-route titles and descriptions. *content.Table
// satisfies it.
type Overrides interface {
	Title(route string) (string, bool)
	Description(route string) (string, bool)
	DefaultTitle() string
	DefaultDescription() string
}

// Extractor is safe for concurrent use.
type Extractor struct {
	rules     []Rule
	policy    *bluemonday.Policy
	overrides Overrides
}

// New returns an Extractor applying rules in order.
func New(rules []Rule, overrides Overrides) *Extractor {
	return &Extractor{
		rules:     rules,
		policy:    contentPolicy(),
		overrides: overrides,
	}
}

// Rules returns the cleanup rules in application order.
func (e *Extractor) Rules() []Rule {
	return append([]Rule(nil), e.rules...)
}

// Extract produces the page for route from raw upstream HTML. Malformed
// markup degrades to less content; the only error is
// ErrInsufficientContent.
func (e *Extractor) Extract(raw, route string) (content.Page, error) {
	original, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return content.Page{}, ErrInsufficientContent
	}

	styles := Styles(original)
	page := content.Page{
		Title:       e.title(original, route),
		Description: e.description(original, route),
	}

	cleaned := ApplyRules(raw, e.rules)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(cleaned))
	if err != nil {
		return page, ErrInsufficientContent
	}

	body, ok := MainContent(doc)
	if !ok {
		return page, ErrInsufficientContent
	}

	sanitized := strings.TrimSpace(e.policy.Sanitize(body))
	if textLength(sanitized) < MinContentText {
		return page, ErrInsufficientContent
	}

	if styles != "" {
		sanitized = styles + "\n" + sanitized
	}
	page.Content = sanitized
	return page, nil
}

// MainContent returns the inner HTML of the first container with enough
// text. Structural containers need more than MinContainerText characters;
// the body, once header/footer/nav are removed, needs more than
// MinStrippedText.
func MainContent(doc *goquery.Document) (string, bool) {
	for _, selector := range containerSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if runeCount(sel.Text()) > MinContainerText {
			html, err := sel.Html()
			if err == nil {
				return html, true
			}
		}
	}

	body := doc.Find("body").First()
	if body.Length() == 0 {
		return "", false
	}
	candidate := body.Clone()
	candidate.Find(chromeSelector).Remove()
	if runeCount(candidate.Text()) <= MinStrippedText {
		return "", false
	}
	html, err := candidate.Html()
	if err != nil {
		return "", false
	}
	return html, true
}

// Styles collects stylesheet links and inline style blocks, skipping
// admin and login styling.
func Styles(doc *goquery.Document) string {
	var parts []string
	doc.Find(`link[rel~="stylesheet"], style`).Each(func(_ int, s *goquery.Selection) {
		marker := strings.ToLower(s.AttrOr("id", "") + " " + s.AttrOr("href", ""))
		if isAdminStyle(marker) {
			return
		}
		if goquery.NodeName(s) == "style" && strings.Contains(strings.ToLower(s.Text()), "#wpadminbar") {
			return
		}
		html, err := goquery.OuterHtml(s)
		if err != nil {
			return
		}
		parts = append(parts, html)
	})
	return strings.Join(parts, "\n")
}

func isAdminStyle(s string) bool {
	for _, marker := range []string{"admin-bar", "wp-admin", "login", "wpcom-masterbar"} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

func (e *Extractor) title(doc *goquery.Document, route string) string {
	if t, ok := e.overrides.Title(route); ok && t != "" {
		return t
	}
	if t := CleanTitle(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return e.overrides.DefaultTitle()
}

func (e *Extractor) description(doc *goquery.Document, route string) string {
	if d, ok := e.overrides.Description(route); ok && d != "" {
		return d
	}
	for _, selector := range []string{`meta[name="description"]`, `meta[property="og:description"]`} {
		if d := strings.TrimSpace(doc.Find(selector).First().AttrOr("content", "")); d != "" {
			return d
		}
	}
	return e.overrides.DefaultDescription()
}

// CleanTitle trims whitespace and platform suffixes from a document title.
func CleanTitle(title string) string {
	title = strings.Join(strings.Fields(title), " ")
	for {
		next := titleSuffix.ReplaceAllString(title, "")
		if next == title {
			return strings.TrimSpace(title)
		}
		title = next
	}
}

func textLength(html string) int {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0
	}
	return runeCount(doc.Text())
}

func runeCount(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}
