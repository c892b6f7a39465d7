package models

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestSplitTags(t *testing.T) {
	tc := []struct {
		name   string
		joined string
		want   []string
	}{
		{name: "empty", joined: "", want: []string{}},
		{name: "single", joined: "Brasil", want: []string{"Brasil"}},
		{name: "drops empties and trims", joined: "Brasil, ,Mundo,,", want: []string{"Brasil", "Mundo"}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitTags(tt.joined); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitTags(%q) = %v, want %v", tt.joined, got, tt.want)
			}
		})
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	tc := []struct {
		in   string
		want string
	}{
		{in: "2022-05-16 17:08:43", want: "2022-05-16T17:08:43Z"},
		{in: "0000-00-00 00:00:00", want: "0000-00-00 00:00:00"},
		{in: "2022-05-16T17:08:43Z", want: "2022-05-16T17:08:43Z"},
		{in: "", want: ""},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeTimestamp(tt.in); got != tt.want {
				t.Errorf("NormalizeTimestamp(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDrafts(t *testing.T) {
	t.Run("PostDraft is immutable", func(t *testing.T) {
		post := Post{
			ID: 10, Title: "Título", Slug: "titulo", Body: "raw", AuthorID: 3,
			CreatedAt: "2020-01-02 03:04:05", UpdatedAt: "2020-01-03 03:04:05",
			Tags: []string{"Brasil"},
		}

		base := NewPostDraft(post)
		withHTML := base.WithHTML("<p>raw</p>")
		withImage := withHTML.WithImage(Reference{URL: "/content/images/a.jpg"})

		if got := base.Payload(); got.HTML != "raw" || got.ImageURL != "" {
			t.Errorf("base draft changed: %+v", got)
		}
		if got := withHTML.Payload(); got.ImageURL != "" {
			t.Errorf("WithHTML should not set an image: %+v", got)
		}

		p := withImage.Payload()
		if p.HTML != "<p>raw</p>" || p.ImageURL != "/content/images/a.jpg" {
			t.Errorf("unexpected payload %+v", p)
		}
		if p.CreatedAt != "2020-01-02T03:04:05Z" {
			t.Errorf("expected normalised created_at, got %s", p.CreatedAt)
		}

		p.Tags[0] = "changed"
		if post.Tags[0] != "Brasil" {
			t.Error("payload tags must not alias the source row")
		}
	})

	t.Run("AuthorPayload omits empty image", func(t *testing.T) {
		a := Author{ID: 1, Name: "Ana", Email: "ana@example.com", Login: "ana", PasswordHash: "$P$hash"}
		data, err := json.Marshal(NewAuthorDraft(a).Payload())
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if strings.Contains(string(data), "image_url") {
			t.Errorf("expected no image_url, got %s", data)
		}
		if !strings.Contains(string(data), `"password":"$P$hash"`) {
			t.Errorf("expected password hash, got %s", data)
		}

		data, _ = json.Marshal(NewAuthorDraft(a).WithImage(Reference{URL: "/content/images/ana.png"}).Payload())
		if !strings.Contains(string(data), `"image_url":"/content/images/ana.png"`) {
			t.Errorf("expected image_url, got %s", data)
		}
	})

	t.Run("TagPayload", func(t *testing.T) {
		got := NewTagDraft(Tag{ID: 4, Name: "Mundo", Slug: "mundo"}).Payload()
		if got != (TagPayload{ID: 4, Name: "Mundo", Slug: "mundo"}) {
			t.Errorf("unexpected payload %+v", got)
		}
	})
}

func TestReference(t *testing.T) {
	tc := []struct {
		name    string
		body    string
		want    Reference
		wantErr bool
	}{
		{name: "numeric id", body: `{"id": 42}`, want: Reference{ID: "42"}},
		{name: "string id", body: `{"id": "abc"}`, want: Reference{ID: "abc"}},
		{name: "url only", body: `{"url": "/content/images/a.jpg"}`, want: Reference{URL: "/content/images/a.jpg"}},
		{name: "null id", body: `{"id": null}`, want: Reference{}},
		{name: "object id", body: `{"id": {"x": 1}}`, wantErr: true},
		{name: "not an object", body: `[1]`, wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			var got Reference
			err := json.Unmarshal([]byte(tt.body), &got)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewImageUpload(t *testing.T) {
	author := NewImageUpload(AssetRequest{Kind: AssetAuthor, OwnerID: 7}, "/wp-content/uploads/a.png", "QQ==")
	data, _ := json.Marshal(author)
	if string(data) != `{"author_id":7,"path_image":"/wp-content/uploads/a.png","base64":"QQ=="}` {
		t.Errorf("unexpected author upload %s", data)
	}

	inline := NewImageUpload(AssetRequest{Kind: AssetInline, OwnerID: 9}, "/x.png", "")
	data, _ = json.Marshal(inline)
	if string(data) != `{"post_id":9,"path_image":"/x.png","base64":""}` {
		t.Errorf("unexpected inline upload %s", data)
	}
}
