// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package extract

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var embedSrc = regexp.MustCompile(`^https://(?:www\.youtube(?:-nocookie)?\.com/embed/|player\.vimeo\.com/video/|w\.soundcloud\.com/player/|open\.spotify\.com/embed/)`)

// contentPolicy is the allow-list applied to extracted page bodies.
func contentPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	p.AllowAttrs("class", "id").Globally()
	p.AllowElements("figure", "figcaption", "section", "header", "footer", "picture", "source", "time", "mark")
	p.AllowAttrs("srcset", "sizes", "loading", "decoding", "width", "height").OnElements("img")
	p.AllowAttrs("srcset", "type", "media", "sizes").OnElements("source")
	p.AllowAttrs("datetime").OnElements("time")

	p.AllowElements("iframe")
	p.AllowAttrs("src").Matching(embedSrc).OnElements("iframe")
	p.AllowAttrs("width", "height", "title", "loading", "allowfullscreen", "frameborder", "allow").OnElements("iframe")

	p.RequireNoFollowOnLinks(false)
	p.RequireNoFollowOnFullyQualifiedLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)

	return p
}
