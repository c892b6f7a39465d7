// Package rewriter maps legacy WordPress asset URLs onto the destination's image namespace.
//
// A [Rewriter] is immutable once built and safe for concurrent use.
package rewriter

import (
	"net/url"
	"strings"
)

const (
	DefaultMarker    = "/wp-content/uploads/"
	DefaultImageRoot = "/content/images"
)

// Substitution replaces the first occurrence of Pattern with Replacement.
type Substitution struct {
	Pattern     string
	Replacement string
}

type Config struct {
	// BaseURL is the canonical address of the legacy site, e.g. http://www.pstu.org.br
	BaseURL       string
	Substitutions []Substitution
	Marker        string
	ImageRoot     string
}

type Rewriter struct {
	host          string
	substitutions []Substitution
	marker        string
	bareMarker    string
	imageRoot     string
}

// New builds a Rewriter, filling in the default marker and image root.
func New(c Config) *Rewriter {
	r := &Rewriter{
		marker:    c.Marker,
		imageRoot: strings.TrimRight(c.ImageRoot, "/"),
	}
	if r.marker == "" {
		r.marker = DefaultMarker
	}
	if c.ImageRoot == "" {
		r.imageRoot = DefaultImageRoot
	}
	r.bareMarker = strings.TrimLeft(r.marker, "/")

	for _, s := range c.Substitutions {
		if s.Pattern != "" {
			r.substitutions = append(r.substitutions, s)
		}
	}

	if u, err := url.Parse(strings.TrimSpace(c.BaseURL)); err == nil {
		r.host = strings.ToLower(u.Hostname())
	}
	return r
}

// Marker returns the path segment that identifies legacy uploads.
func (r *Rewriter) Marker() string { return r.marker }

// ImageRoot returns the destination namespace that rewritten paths live under.
func (r *Rewriter) ImageRoot() string { return r.imageRoot }

// Canonical trims raw and applies the substitutions in order.
// Each substitution replaces at most its first occurrence.
func (r *Rewriter) Canonical(raw string) string {
	s := strings.TrimSpace(raw)
	for _, sub := range r.substitutions {
		s = strings.Replace(s, sub.Pattern, sub.Replacement, 1)
	}
	return s
}

// Rewrite returns the destination path for a legacy asset URL.
//
// URLs containing the uploads marker map to ImageRoot plus the suffix after the
// marker whatever their host. Absolute URLs without the marker are returned
// unchanged. Anything else is taken as a path relative to the uploads directory.
func (r *Rewriter) Rewrite(raw string) string {
	s := r.Canonical(raw)
	if s == "" {
		return ""
	}
	if suffix, ok := r.afterMarker(s); ok {
		return r.imageRoot + "/" + suffix
	}
	if isAbsolute(s) {
		return s
	}
	return r.imageRoot + "/" + strings.TrimLeft(s, "/")
}

// UploadsPath returns the path of raw relative to the uploads directory, without
// query or fragment. It reports false for absolute URLs without the marker and for empty input.
func (r *Rewriter) UploadsPath(raw string) (string, bool) {
	s := r.Canonical(raw)
	if s == "" {
		return "", false
	}

	suffix, ok := r.afterMarker(s)
	if !ok {
		if isAbsolute(s) {
			return "", false
		}
		suffix = strings.TrimLeft(s, "/")
	}

	if i := strings.IndexAny(suffix, "?#"); i >= 0 {
		suffix = suffix[:i]
	}
	if suffix == "" {
		return "", false
	}
	return suffix, true
}

// SameHost reports whether raw, after substitution, lives on the legacy site.
// Relative URLs are always on the legacy site.
func (r *Rewriter) SameHost(raw string) bool {
	s := r.Canonical(raw)
	if !isAbsolute(s) {
		return true
	}
	if strings.HasPrefix(s, "//") {
		s = "http:" + s
	}
	u, err := url.Parse(s)
	if err != nil || r.host == "" {
		return false
	}
	return strings.EqualFold(u.Hostname(), r.host)
}

func (r *Rewriter) afterMarker(s string) (string, bool) {
	if i := strings.Index(s, r.marker); i >= 0 {
		return s[i+len(r.marker):], true
	}
	if r.bareMarker != "" && strings.HasPrefix(s, r.bareMarker) {
		return s[len(r.bareMarker):], true
	}
	return "", false
}

func isAbsolute(s string) bool {
	return strings.HasPrefix(s, "//") || strings.Contains(s, "://")
}
