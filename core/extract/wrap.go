package extract

import (
	"fmt"
	"html"
	"net/url"
	"strings"
)

// Wrap returns text with every citation replaced by replace(m).
// Text outside citations is copied unchanged.
func (e *Extractor) Wrap(text string, replace func(Match) string) string {
	return e.wrap(text, replace, func(s string) string { return s })
}

// WrapHTML escapes text for HTML and wraps each citation in a
// scripture-ref span.
func (e *Extractor) WrapHTML(text string) string {
	return e.wrap(text, HTMLSpan, html.EscapeString)
}

func (e *Extractor) wrap(text string, replace func(Match) string, between func(string) string) string {
	matches := e.Annotate(text)
	if len(matches) == 0 {
		return between(text)
	}

	var sb strings.Builder
	sb.Grow(len(text) + len(matches)*48)
	last := 0
	for _, m := range matches {
		sb.WriteString(between(text[last:m.Start]))
		sb.WriteString(replace(m))
		last = m.End
	}
	sb.WriteString(between(text[last:]))
	return sb.String()
}

// HTMLSpan renders m as
// <span class="scripture-ref" data-ref="John 3:16">Jn 3:16</span>.
func HTMLSpan(m Match) string {
	return fmt.Sprintf(`<span class="scripture-ref" data-ref="%s">%s</span>`,
		html.EscapeString(m.Reference.Reference), html.EscapeString(m.Text))
}

// MarkdownLink returns a replacement that links each citation to base
// followed by the path-escaped canonical reference.
func MarkdownLink(base string) func(Match) string {
	return func(m Match) string {
		return fmt.Sprintf("[%s](%s%s)", m.Text, base, url.PathEscape(m.Reference.Reference))
	}
}
