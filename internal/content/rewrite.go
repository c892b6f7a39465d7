package content

import (
	"html"
	"strings"

	xhtml "golang.org/x/net/html"
)

// rewriteURLs rewrites img sources and legacy upload links in doc.
// Tokens it does not touch are copied byte for byte.
func (t *Transformer) rewriteURLs(doc string) (string, []string) {
	var (
		b      strings.Builder
		assets []string
		seen   = make(map[string]bool)
	)

	track := func(raw string) {
		raw = strings.TrimSpace(raw)
		if seen[raw] {
			return
		}
		if _, ok := t.rw.UploadsPath(raw); ok {
			seen[raw] = true
			assets = append(assets, raw)
		}
	}

	z := xhtml.NewTokenizer(strings.NewReader(doc))
	offset := 0
	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			// A tag cut off by the end of doc is never emitted; keep it as written.
			b.WriteString(doc[offset:])
			break
		}
		raw := string(z.Raw())
		offset += len(raw)

		if tt != xhtml.StartTagToken && tt != xhtml.SelfClosingTagToken {
			b.WriteString(raw)
			continue
		}

		tok := z.Token()
		key := ""
		switch tok.Data {
		case "img":
			key = "src"
		case "a":
			key = "href"
		default:
			b.WriteString(raw)
			continue
		}

		changed := false
		for i, a := range tok.Attr {
			if a.Key != key || strings.TrimSpace(a.Val) == "" {
				continue
			}
			if key == "href" && !strings.Contains(t.rw.Canonical(a.Val), t.opts.Marker) {
				continue
			}
			track(a.Val)
			if next := t.rw.Rewrite(a.Val); next != a.Val {
				tok.Attr[i].Val = next
				changed = true
			}
		}

		if !changed {
			b.WriteString(raw)
			continue
		}
		b.WriteString(renderTag(tok, tt == xhtml.SelfClosingTagToken))
	}

	return b.String(), assets
}

func renderTag(tok xhtml.Token, selfClosing bool) string {
	var b strings.Builder
	b.WriteString("<" + tok.Data)
	for _, a := range tok.Attr {
		b.WriteString(" " + a.Key + `="` + html.EscapeString(a.Val) + `"`)
	}
	if selfClosing {
		b.WriteString(" /")
	}
	b.WriteString(">")
	return b.String()
}
