// Package markup sanitizes user supplied rich text and detects bodies that
// render as nothing.
package markup

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	bodyPolicy  = newBodyPolicy()
	stripPolicy = bluemonday.StrictPolicy()
	markdown    = goldmark.New(goldmark.WithExtensions(extension.GFM))
)

func newBodyPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "strong", "i", "em", "u", "s", "del")
	p.AllowElements("p", "br", "hr", "ul", "ol", "li", "blockquote", "code", "pre")
	p.AllowElements("table", "thead", "tbody", "tr", "th", "td")
	p.AllowElements("a")
	p.AllowAttrs("href").OnElements("a")
	p.AllowElements("img")
	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowURLSchemes("http", "https", "mailto")
	p.RequireParseableURLs(true)
	p.RequireNoFollowOnLinks(true)
	return p
}

// Sanitize cleans a message body down to the allowed formatting elements.
func Sanitize(body string) string {
	return strings.TrimSpace(bodyPolicy.Sanitize(body))
}

// StripHTML removes all markup and decodes entities.
func StripHTML(body string) string {
	text := html.UnescapeString(stripPolicy.Sanitize(body))
	return strings.ReplaceAll(text, "\u00a0", " ")
}

// IsEmpty reports bodies that are blank once markup is removed, such as
// "<p><br></p>", "<br/>" or "&nbsp;". Bodies carrying an image are not empty.
func IsEmpty(body string) bool {
	if strings.TrimSpace(body) == "" {
		return true
	}
	if strings.Contains(strings.ToLower(Sanitize(body)), "<img") {
		return false
	}
	return strings.TrimSpace(StripHTML(body)) == ""
}

// MarkdownToHTML renders Markdown and sanitizes the result. Rendering failures
// fall back to the escaped source.
func MarkdownToHTML(source string) string {
	var buf strings.Builder
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return html.EscapeString(source)
	}
	return bodyPolicy.Sanitize(buf.String())
}
