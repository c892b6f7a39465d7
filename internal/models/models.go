package models

import (
	"strings"
	"time"
)

// Author is a WordPress user that published at least one post.
type Author struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Login        string `json:"login"`
	PasswordHash string `json:"-"`
	CreatedAt    string `json:"created_at"`
	ImageURL     string `json:"image_url,omitempty"` // ImageURL is empty when the author has no avatar
}

// Label returns a short human readable identifier used in logs and reports.
func (a Author) Label() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Login
}

// Tag is a term of the configured taxonomy.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (t Tag) Label() string { return t.Slug }

// Post is a published WordPress post.
type Post struct {
	ID        int64    `json:"id"`
	Title     string   `json:"title"`
	Slug      string   `json:"slug"`
	Body      string   `json:"-"`
	Excerpt   string   `json:"excerpt"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
	AuthorID  int64    `json:"author_id"`
	ImageURL  string   `json:"image_url,omitempty"` // ImageURL is the _wp_attached_file value of the thumbnail
	Tags      []string `json:"tags"`
}

func (p Post) Label() string {
	if p.Slug != "" {
		return p.Slug
	}
	return p.Title
}

// SplitTags parses a comma-joined list of term names, dropping empty names.
func SplitTags(joined string) []string {
	tags := []string{}
	for name := range strings.SplitSeq(joined, ",") {
		if name = strings.TrimSpace(name); name != "" {
			tags = append(tags, name)
		}
	}
	return tags
}

// wordpressTime is the layout of WordPress datetime columns.
const wordpressTime = "2006-01-02 15:04:05"

// NormalizeTimestamp converts a WordPress datetime to RFC3339 in UTC.
// Values in any other shape are returned unchanged.
func NormalizeTimestamp(s string) string {
	t, err := time.ParseInLocation(wordpressTime, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return s
	}
	return t.UTC().Format(time.RFC3339)
}
