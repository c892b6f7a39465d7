package content

import "github.com/microcosm-cc/bluemonday"

// Policy returns the allow-list applied to transformed bodies.
func Policy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.RequireParseableURLs(true)
	p.AllowRelativeURLs(true)
	p.AllowURLSchemes("mailto", "http", "https")

	p.AllowElements(
		"p", "br", "h1", "h2", "h3", "h4", "h5", "h6",
		"strong", "em", "b", "i", "u", "s",
		"figure", "figcaption", "aside", "blockquote", "ul", "ol", "li",
		"table", "thead", "tbody", "tfoot", "tr", "th", "td", "caption",
		"code", "pre",
	)

	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowAttrs("src", "alt", "class").OnElements("img")
	p.AllowAttrs("width", "height").Matching(bluemonday.NumberOrPercent).OnElements("img")
	p.AllowAttrs("class").OnElements("figure", "aside")
	p.AllowAttrs("colspan", "rowspan").Matching(bluemonday.Integer).OnElements("td", "th")

	return p
}
