package models

// AuthorPayload is the body posted to /authors.
type AuthorPayload struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Login     string `json:"login"`
	Password  string `json:"password"`
	CreatedAt string `json:"created_at"`
	ImageURL  string `json:"image_url,omitempty"`
}

// TagPayload is the body posted to /tags.
type TagPayload struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// PostPayload is the body posted to /posts.
type PostPayload struct {
	ID        int64    `json:"id"`
	Title     string   `json:"title"`
	Slug      string   `json:"slug"`
	HTML      string   `json:"html"`
	Excerpt   string   `json:"excerpt"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
	AuthorID  int64    `json:"author_id"`
	ImageURL  string   `json:"image_url,omitempty"`
	Tags      []string `json:"tags"`
}

// AuthorDraft builds an [AuthorPayload]. The zero image means the payload carries no image.
type AuthorDraft struct {
	author Author
	image  Reference
}

func NewAuthorDraft(a Author) AuthorDraft {
	return AuthorDraft{author: a}
}

// WithImage returns a copy of the draft that references an uploaded avatar.
func (d AuthorDraft) WithImage(ref Reference) AuthorDraft {
	d.image = ref
	return d
}

func (d AuthorDraft) Payload() AuthorPayload {
	return AuthorPayload{
		ID:        d.author.ID,
		Name:      d.author.Name,
		Email:     d.author.Email,
		Login:     d.author.Login,
		Password:  d.author.PasswordHash,
		CreatedAt: NormalizeTimestamp(d.author.CreatedAt),
		ImageURL:  d.image.URL,
	}
}

// TagDraft builds a [TagPayload].
type TagDraft struct {
	tag Tag
}

func NewTagDraft(t Tag) TagDraft {
	return TagDraft{tag: t}
}

func (d TagDraft) Payload() TagPayload {
	return TagPayload{ID: d.tag.ID, Name: d.tag.Name, Slug: d.tag.Slug}
}

// PostDraft builds a [PostPayload] from a post, its transformed HTML and an optional featured image.
type PostDraft struct {
	post  Post
	html  string
	image Reference
}

func NewPostDraft(p Post) PostDraft {
	return PostDraft{post: p, html: p.Body}
}

// WithHTML returns a copy of the draft carrying the transformed body.
func (d PostDraft) WithHTML(html string) PostDraft {
	d.html = html
	return d
}

// WithImage returns a copy of the draft that references an uploaded featured image.
func (d PostDraft) WithImage(ref Reference) PostDraft {
	d.image = ref
	return d
}

func (d PostDraft) Payload() PostPayload {
	tags := make([]string, len(d.post.Tags))
	copy(tags, d.post.Tags)

	return PostPayload{
		ID:        d.post.ID,
		Title:     d.post.Title,
		Slug:      d.post.Slug,
		HTML:      d.html,
		Excerpt:   d.post.Excerpt,
		CreatedAt: NormalizeTimestamp(d.post.CreatedAt),
		UpdatedAt: NormalizeTimestamp(d.post.UpdatedAt),
		AuthorID:  d.post.AuthorID,
		ImageURL:  d.image.URL,
		Tags:      tags,
	}
}
