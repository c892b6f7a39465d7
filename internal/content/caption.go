package content

import (
	"html"
	"regexp"
	"strings"

	xhtml "golang.org/x/net/html"
)

var (
	captionOpen = regexp.MustCompile(`(?is)^\[caption([^\]]*)\]`)
	captionAttr = regexp.MustCompile(`(?is)\bcaption\s*=\s*"([^"]*)"`)
)

const figureClass = "kg-card kg-image-card kg-card-hascaption"

// convertCaption turns a [caption]...[/caption] shortcode into a figure.
// Shortcodes without an image source are returned unchanged.
func convertCaption(block string) string {
	open := captionOpen.FindStringSubmatchIndex(block)
	if open == nil {
		return block
	}
	inner := block[open[1] : len(block)-len("[/caption]")]

	src, alt, rest, ok := firstImage(inner)
	if !ok {
		return block
	}

	desc := textOf(rest)
	if desc == "" {
		if m := captionAttr.FindStringSubmatch(block[open[2]:open[3]]); m != nil {
			desc = strings.TrimSpace(m[1])
		}
	}

	var b strings.Builder
	b.WriteString(`<figure class="` + figureClass + `">`)
	b.WriteString(`<img src="` + html.EscapeString(src) + `" alt="` + html.EscapeString(alt) + `" class="kg-image">`)
	if desc != "" {
		b.WriteString("<figcaption>" + desc + "</figcaption>")
	}
	b.WriteString("</figure>")
	return b.String()
}

// firstImage finds the first <img> with a non-empty src and returns its src, alt and the markup after it.
func firstImage(fragment string) (src, alt, rest string, ok bool) {
	z := xhtml.NewTokenizer(strings.NewReader(fragment))
	offset := 0
	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			return "", "", "", false
		}
		offset += len(z.Raw())

		if tt != xhtml.StartTagToken && tt != xhtml.SelfClosingTagToken {
			continue
		}
		tok := z.Token()
		if tok.Data != "img" {
			continue
		}
		for _, a := range tok.Attr {
			switch a.Key {
			case "src":
				src = strings.TrimSpace(a.Val)
			case "alt":
				alt = a.Val
			}
		}
		if src != "" {
			return src, alt, fragment[offset:], true
		}
		alt = ""
	}
}

// textOf returns the text of fragment with tags removed, trimmed.
// Entities are left as written.
func textOf(fragment string) string {
	var b strings.Builder
	z := xhtml.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			return strings.TrimSpace(b.String())
		case xhtml.TextToken:
			b.Write(z.Raw())
		}
	}
}
