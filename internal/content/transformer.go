package content

import (
	"math/rand/v2"
	"regexp"
	"strings"

	"github.com/desertthunder/wpx/internal/rewriter"
	"github.com/microcosm-cc/bluemonday"
	xhtml "golang.org/x/net/html"
)

const DefaultPromoThreshold = 3

// blockPattern matches, leftmost first, every construct that must not be wrapped in a paragraph.
// Pre-formed blocks match only their opening tag; [blockEnd] finds where they close.
var blockPattern = regexp.MustCompile(`(?is)` +
	`(\[caption[^\]]*\].*?\[/caption\])` +
	`|(<h[1-6]\b[^>]*>.*?</h[1-6]\s*>)` +
	`|(<a\b[^>]*>\s*<img\b[^>]*>\s*</a\s*>)` +
	`|(<img\b[^>]*>)` +
	`|(<(p|blockquote|ul|ol|figure|table|iframe)\b[^>]*>)`)

const (
	groupCaption = 1 + iota
	groupHeading
	groupLinkedImage
	groupImage
	groupBlock
	groupBlockTag
)

var blankLine = regexp.MustCompile(`\n\s*\n`)

type Options struct {
	// PromoThreshold is the paragraph count after which a promo is injected.
	// Zero disables injection; negative values select the default.
	PromoThreshold int
	Promos         []string
	// Pick chooses a promo index in [0, n). Defaults to [rand.IntN].
	Pick func(n int) int
	// Marker identifies anchor targets that live in the legacy uploads directory.
	// Defaults to the rewriter's marker.
	Marker string
}

// Result is the output of one transformation.
type Result struct {
	HTML string
	// Assets lists the legacy URLs referenced by the body that resolve to the uploads directory,
	// deduplicated in document order.
	Assets        []string
	Paragraphs    int
	PromoInjected bool
}

// Transformer is safe for concurrent use.
type Transformer struct {
	rw     *rewriter.Rewriter
	opts   Options
	policy *bluemonday.Policy
}

func NewTransformer(rw *rewriter.Rewriter, opts Options) *Transformer {
	if rw == nil {
		rw = rewriter.New(rewriter.Config{})
	}
	if opts.PromoThreshold < 0 {
		opts.PromoThreshold = DefaultPromoThreshold
	}
	if opts.Pick == nil {
		opts.Pick = rand.IntN
	}
	if opts.Marker == "" {
		opts.Marker = rw.Marker()
	}
	return &Transformer{rw: rw, opts: opts, policy: Policy()}
}

// Transform renders body and sanitises the result.
func (t *Transformer) Transform(body string) Result {
	res := t.Render(body)
	res.HTML = t.policy.Sanitize(res.HTML)
	return res
}

// Render runs the pipeline without the sanitiser.
func (t *Transformer) Render(body string) Result {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	body = strings.ReplaceAll(body, "\r", "\n")

	var (
		b   strings.Builder
		res Result
	)

	emitParagraph := func(html string) {
		b.WriteString(html)
		res.Paragraphs++
		if t.shouldInject(res) {
			b.WriteString(t.pickPromo())
			res.PromoInjected = true
		}
	}

	emitText := func(text string) {
		for _, para := range paragraphs(text) {
			emitParagraph("<p>" + para + "</p>")
		}
	}

	pos := 0
	for pos < len(body) {
		m := blockPattern.FindStringSubmatchIndex(body[pos:])
		if m == nil {
			break
		}
		start, end := pos+m[0], pos+m[1]
		emitText(body[pos:start])

		segment := body[start:end]
		switch {
		case m[2*groupCaption] >= 0:
			b.WriteString(convertCaption(segment))
		case m[2*groupBlock] >= 0:
			tag := strings.ToLower(body[pos+m[2*groupBlockTag] : pos+m[2*groupBlockTag+1]])
			end = start + blockEnd(body[start:], tag)
			segment = body[start:end]
			if tag == "p" {
				emitParagraph(segment)
			} else {
				b.WriteString(segment)
			}
		default:
			b.WriteString(segment)
		}
		pos = end
	}
	emitText(body[pos:])

	res.HTML, res.Assets = t.rewriteURLs(b.String())
	return res
}

func (t *Transformer) shouldInject(res Result) bool {
	return !res.PromoInjected &&
		t.opts.PromoThreshold > 0 &&
		len(t.opts.Promos) > 0 &&
		res.Paragraphs == t.opts.PromoThreshold
}

func (t *Transformer) pickPromo() string {
	n := len(t.opts.Promos)
	i := t.opts.Pick(n)
	if i < 0 || i >= n {
		i = 0
	}
	return t.opts.Promos[i]
}

// paragraphs splits free text on blank lines, dropping empty chunks.
// Single newlines inside a chunk become line breaks.
func paragraphs(text string) []string {
	var out []string
	for _, chunk := range blankLine.Split(text, -1) {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		lines := strings.Split(chunk, "\n")
		for i, line := range lines {
			lines[i] = strings.TrimSpace(line)
		}
		out = append(out, strings.Join(lines, "<br>"))
	}
	return out
}

// blockEnd returns the length of the element opened at the start of s, up to and including
// the close tag that balances it. An element that never closes runs to the end of s.
func blockEnd(s, tag string) int {
	z := xhtml.NewTokenizer(strings.NewReader(s))
	depth, offset := 0, 0
	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			return len(s)
		}
		offset += len(z.Raw())
		if tt != xhtml.StartTagToken && tt != xhtml.EndTagToken && tt != xhtml.SelfClosingTagToken {
			continue
		}
		if name, _ := z.TagName(); string(name) != tag {
			continue
		}
		switch tt {
		case xhtml.SelfClosingTagToken:
			if depth == 0 {
				return offset
			}
		case xhtml.StartTagToken:
			depth++
		case xhtml.EndTagToken:
			if depth--; depth == 0 {
				return offset
			}
		}
	}
}
