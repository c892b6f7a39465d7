package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/desertthunder/wpx/internal/models"
	"github.com/desertthunder/wpx/internal/shared"
)

// SourceOpts describes the layout of the WordPress schema.
type SourceOpts struct {
	TablePrefix        string // default wp_
	TagTaxonomy        string // default category
	AuthorImageMetaKey string // default molongui_author_image_url
}

var validPrefix = regexp.MustCompile(`^[A-Za-z0-9_]*$`)

const authorsQuery = `
	SELECT
		u.ID,
		u.display_name,
		u.user_email,
		u.user_login,
		u.user_pass,
		u.user_registered,
		COALESCE((
			SELECT um.meta_value FROM {p}usermeta um
			WHERE um.user_id = u.ID AND um.meta_key = ?
			LIMIT 1
		), '')
	FROM {p}users u
	WHERE u.user_email IS NOT NULL
		AND u.user_email <> ''
		AND EXISTS (
			SELECT 1 FROM {p}posts p
			WHERE p.post_author = u.ID AND p.post_type = 'post' AND p.post_status = 'publish'
		)
	ORDER BY u.ID
`

const tagsQuery = `
	SELECT t.term_id, t.name, t.slug
	FROM {p}terms t
	JOIN {p}term_taxonomy tt ON tt.term_id = t.term_id
	WHERE tt.taxonomy = ?
	ORDER BY t.term_id
`

// postsQuery keeps posts without terms or thumbnails: every join is a LEFT JOIN
// and the taxonomy filter lives in the join condition.
const postsQuery = `
	SELECT
		p.ID,
		p.post_title,
		p.post_name,
		p.post_content,
		p.post_excerpt,
		p.post_date,
		p.post_modified,
		p.post_author,
		COALESCE(MAX(img.meta_value), ''),
		COALESCE(GROUP_CONCAT(DISTINCT t.name), '')
	FROM {p}posts p
	LEFT JOIN {p}postmeta thumb ON thumb.post_id = p.ID AND thumb.meta_key = '_thumbnail_id'
	LEFT JOIN {p}postmeta img ON img.post_id = thumb.meta_value AND img.meta_key = '_wp_attached_file'
	LEFT JOIN {p}term_relationships tr ON tr.object_id = p.ID
	LEFT JOIN {p}term_taxonomy tt ON tt.term_taxonomy_id = tr.term_taxonomy_id AND tt.taxonomy = ?
	LEFT JOIN {p}terms t ON t.term_id = tt.term_id
	WHERE p.post_type = 'post' AND p.post_status = 'publish'
	GROUP BY p.ID
	ORDER BY p.ID
`

// WordPressSource reads authors, tags and published posts from a WordPress database.
type WordPressSource struct {
	db   *sql.DB
	opts SourceOpts

	authors string
	tags    string
	posts   string
}

// NewWordPressSource creates a source over db, filling in defaults for empty options.
func NewWordPressSource(db *sql.DB, opts SourceOpts) (*WordPressSource, error) {
	if opts.TablePrefix == "" {
		opts.TablePrefix = "wp_"
	}
	if opts.TagTaxonomy == "" {
		opts.TagTaxonomy = "category"
	}
	if opts.AuthorImageMetaKey == "" {
		opts.AuthorImageMetaKey = "molongui_author_image_url"
	}
	if !validPrefix.MatchString(opts.TablePrefix) {
		return nil, fmt.Errorf("%w: table prefix %q", shared.ErrInvalidConfig, opts.TablePrefix)
	}

	r := strings.NewReplacer("{p}", opts.TablePrefix)
	return &WordPressSource{
		db:      db,
		opts:    opts,
		authors: r.Replace(authorsQuery),
		tags:    r.Replace(tagsQuery),
		posts:   r.Replace(postsQuery),
	}, nil
}

// Authors returns every user with a non-empty email who published at least one post.
func (s *WordPressSource) Authors(ctx context.Context) ([]models.Author, error) {
	rows, err := s.db.QueryContext(ctx, s.authors, s.opts.AuthorImageMetaKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query authors: %w", err)
	}
	defer rows.Close()

	var authors []models.Author
	for rows.Next() {
		var a models.Author
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.Login, &a.PasswordHash, &a.CreatedAt, &a.ImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan author: %w", err)
		}
		authors = append(authors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate authors: %w", err)
	}
	return authors, nil
}

// Tags returns every term of the configured taxonomy.
func (s *WordPressSource) Tags(ctx context.Context) ([]models.Tag, error) {
	rows, err := s.db.QueryContext(ctx, s.tags, s.opts.TagTaxonomy)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}
	return tags, nil
}

// Posts returns every published post with its thumbnail path and term names.
func (s *WordPressSource) Posts(ctx context.Context) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx, s.posts, s.opts.TagTaxonomy)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		var (
			p    models.Post
			tags string
		)
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Slug, &p.Body, &p.Excerpt,
			&p.CreatedAt, &p.UpdatedAt, &p.AuthorID, &p.ImageURL, &tags,
		); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		p.Tags = models.SplitTags(tags)
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}
	return posts, nil
}

// Ping checks the connection.
func (s *WordPressSource) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrDatabase, err)
	}
	return nil
}
