// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Rule is one cleanup step applied to a whole HTML document.
type Rule interface {
	Name() string
	Apply(html string) string
}

// ReplaceRule substitutes every match of a pattern.
type ReplaceRule struct {
	name        string
	pattern     *regexp.Regexp
	replacement string
}

// NewReplaceRule compiles pattern into a rule. It panics on a bad pattern,
// like regexp.MustCompile.
func NewReplaceRule(name, pattern, replacement string) ReplaceRule {
	return ReplaceRule{name: name, pattern: regexp.MustCompile(pattern), replacement: replacement}
}

// Name implements Rule.
func (r ReplaceRule) Name() string { return r.name }

// Apply implements Rule.
func (r ReplaceRule) Apply(html string) string {
	return r.pattern.ReplaceAllString(html, r.replacement)
}

// assetPrefixes are upstream paths the site does not serve itself. Links
// to them keep pointing at the upstream.
var assetPrefixes = []string{"/wp-content/", "/wp-includes/"}

// UpstreamLinkRule makes anchors that point at the upstream host
// site-relative, except links to upstream media and assets.
type UpstreamLinkRule struct {
	name    string
	pattern *regexp.Regexp
}

// NewUpstreamLinkRule returns a rule rewriting anchors on host.
func NewUpstreamLinkRule(name, host string) UpstreamLinkRule {
	return UpstreamLinkRule{
		name: name,
		pattern: regexp.MustCompile(`(?i)(<a\b[^>]*?\bhref=)(["'])https?://(?:www\.)?` +
			regexp.QuoteMeta(host) + `(/[^"']*)?(["'])`),
	}
}

// Name implements Rule.
func (r UpstreamLinkRule) Name() string { return r.name }

// Apply implements Rule.
func (r UpstreamLinkRule) Apply(html string) string {
	return r.pattern.ReplaceAllStringFunc(html, func(match string) string {
		m := r.pattern.FindStringSubmatch(match)
		if m == nil {
			return match
		}
		p := m[3]
		for _, prefix := range assetPrefixes {
			if strings.HasPrefix(strings.ToLower(p), prefix) {
				return match
			}
		}
		if p == "" {
			p = "/"
		}
		return m[1] + m[2] + p + m[4]
	})
}

// StripRule removes every element matching a CSS selector.
type StripRule struct {
	name     string
	selector string
}

// NewStripRule returns a rule removing elements matched by selector.
func NewStripRule(name, selector string) StripRule {
	return StripRule{name: name, selector: selector}
}

// Name implements Rule.
func (r StripRule) Name() string { return r.name }

// Apply implements Rule. The input is returned untouched when nothing
// matches or it cannot be parsed.
func (r StripRule) Apply(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	sel := doc.Find(r.selector)
	if sel.Length() == 0 {
		return html
	}
	sel.Remove()
	out, err := doc.Html()
	if err != nil {
		return html
	}
	return out
}

// Selectors for WordPress.com chrome.
const (
	adminBarSelector = "#wpadminbar, #wpcom-admin-bar, .wpcom-masterbar"

	promoSelector = "#actionbar, .actnbr-hidden, .marketing-bar, #marketing-bar, " +
		".wpcom-site-banner, .wordads-ad-wrapper, .wpcnt, #wpcom-launch-banner, " +
		".launch-banner, .jp-relatedposts-i2"

	subscriptionSelector = ".wp-block-jetpack-subscriptions, .jetpack_subscription_widget, " +
		".widget_blog_subscription, .wp-block-jetpack-subscriptions__container, " +
		"form[action*=\"subscribe.wordpress.com\"], #subscribe-blog"

	poweredBySelector = ".powered-by-wpcom, .wp-block-site-credit, .site-info, " +
		"a[href*=\"wordpress.com/?ref=footer\"], a[href*=\"wordpress.com/?ref=\"]"
)

// DefaultRules returns the cleanup rules in the order they are applied.
// siteDomain replaces every alias; anchors pointing at upstreamHost become
// site-relative.
func DefaultRules(siteDomain string, aliases []string, upstreamHost string) []Rule {
	rules := []Rule{
		NewStripRule("promotional-banners", promoSelector),
		NewStripRule("admin-toolbar", adminBarSelector),
		NewReplaceRule("admin-stylesheets",
			`(?i)<link\b[^>]*(?:admin-bar|wp-admin|wpcom-masterbar)[^>]*>`, ""),
		NewReplaceRule("admin-inline-styles",
			`(?is)<style\b[^>]*(?:admin-bar|wpcom-masterbar)[^>]*>.*?</style>`, ""),
		NewReplaceRule("admin-scripts",
			`(?is)<script\b[^>]*(?:admin-bar|wpcom-masterbar|wp-admin)[^>]*>.*?</script>`, ""),
		NewReplaceRule("admin-bar-margin",
			`(?is)<style\b[^>]*media=["']screen["'][^>]*>\s*html\s*\{\s*margin-top:\s*32px\s*!important;\s*\}.*?</style>`, ""),
		NewStripRule("subscription-widgets", subscriptionSelector),
		NewStripRule("powered-by-footer", poweredBySelector),
		NewReplaceRule("powered-by-text",
			`(?i)(?:proudly\s+)?powered\s+by\s+(?:<a\b[^>]*>\s*)?wordpress(?:\.com)?(?:\s*</a>)?\.?`, ""),
		NewReplaceRule("blog-at-text",
			`(?i)(?:<a\b[^>]*>\s*)?(?:blog|website)\s+(?:at|powered\s+by)\s+wordpress\.com\.?(?:\s*</a>)?`, ""),
	}

	for _, alias := range aliases {
		if alias == "" || strings.EqualFold(alias, siteDomain) {
			continue
		}
		rules = append(rules, NewReplaceRule("domain-alias:"+alias,
			`(?i)\b(?:www\.)?`+regexp.QuoteMeta(alias)+`\b`, siteDomain))
	}

	if upstreamHost != "" {
		rules = append(rules, NewUpstreamLinkRule("upstream-links", upstreamHost))
	}

	return rules
}

// ApplyRules runs rules over html in order.
func ApplyRules(html string, rules []Rule) string {
	for _, r := range rules {
		html = r.Apply(html)
	}
	return html
}
