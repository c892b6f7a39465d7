package services

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/desertthunder/wpx/internal/models"
	"github.com/desertthunder/wpx/internal/rewriter"
	"github.com/desertthunder/wpx/internal/shared"
	tu "github.com/desertthunder/wpx/internal/testing"
)

func newTestUploader(t *testing.T, api *tu.FakeAPI) (*AssetUploader, string) {
	t.Helper()
	root := t.TempDir()
	rw := rewriter.New(rewriter.Config{
		BaseURL:       "http://www.pstu.org.br",
		Substitutions: []rewriter.Substitution{{Pattern: "https://www.pstu.org.br", Replacement: "http://www.pstu.org.br"}},
	})
	return NewAssetUploader(NewAPIService(api.URL, nil), rw, root), root
}

func TestAssetUploaderResolve(t *testing.T) {
	u, root := newTestUploader(t, tu.NewFakeAPI(t, nil))

	tc := []struct {
		name    string
		raw     string
		rel     string
		wantErr bool
	}{
		{name: "marker on canonical host", raw: "http://www.pstu.org.br/wp-content/uploads/2020/01/a.jpg", rel: "/wp-content/uploads/2020/01/a.jpg"},
		{name: "marker on mirror", raw: "https://www.option.org/wp-content/uploads/2022/05/b.jpeg", rel: "/wp-content/uploads/2022/05/b.jpeg"},
		{name: "bare attached file", raw: "2015/10/test.jpg", rel: "/wp-content/uploads/2015/10/test.jpg"},
		{name: "escaped name", raw: "2015/10/foto%20ato.jpg", rel: "/wp-content/uploads/2015/10/foto ato.jpg"},
		{name: "same host outside uploads", raw: "https://www.pstu.org.br/wp-includes/images/logo.png", rel: "/wp-includes/images/logo.png"},
		{name: "foreign host", raw: "https://i.ytimg.com/vi/abc/hqdefault.jpg", wantErr: true},
		{name: "escapes root", raw: "../../../../etc/passwd", wantErr: true},
		{name: "empty", raw: "  ", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			file, rel, err := u.Resolve(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %s", file)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rel != tt.rel {
				t.Errorf("rel = %q, want %q", rel, tt.rel)
			}
			if want := filepath.Join(root, filepath.FromSlash(tt.rel[1:])); file != want {
				t.Errorf("file = %q, want %q", file, want)
			}
		})
	}
}

func TestAssetUploaderUpload(t *testing.T) {
	content := []byte("\x89PNG fake image")

	t.Run("Author Image", func(t *testing.T) {
		api := tu.NewFakeAPI(t, func(r tu.Request) tu.Reply {
			return tu.Reply{Status: http.StatusCreated, Body: `{"url": "/content/images/2020/01/ana.png"}`}
		})
		u, root := newTestUploader(t, api)
		tu.WriteFile(t, root, "wp-content/uploads/2020/01/ana.png", content)

		ref, err := u.Upload(context.Background(), models.AssetRequest{
			Kind:    models.AssetAuthor,
			OwnerID: 5,
			URL:     "http://www.pstu.org.br/wp-content/uploads/2020/01/ana.png",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if ref.URL != "/content/images/2020/01/ana.png" {
			t.Errorf("unexpected reference %+v", ref)
		}

		reqs := api.RequestsTo(AuthorImagePath)
		if len(reqs) != 1 {
			t.Fatalf("expected one request to %s, got %+v", AuthorImagePath, api.Requests())
		}

		var body struct {
			AuthorID  *int64 `json:"author_id"`
			PostID    *int64 `json:"post_id"`
			PathImage string `json:"path_image"`
			Base64    string `json:"base64"`
		}
		reqs[0].Decode(t, &body)
		if body.AuthorID == nil || *body.AuthorID != 5 || body.PostID != nil {
			t.Errorf("expected author_id only, got %+v", body)
		}
		if body.PathImage != "/wp-content/uploads/2020/01/ana.png" {
			t.Errorf("unexpected path_image %q", body.PathImage)
		}
		decoded, err := base64.StdEncoding.DecodeString(body.Base64)
		if err != nil || string(decoded) != string(content) {
			t.Errorf("unexpected base64 payload %q", body.Base64)
		}
	})

	t.Run("Endpoints By Kind", func(t *testing.T) {
		api := tu.NewFakeAPI(t, func(tu.Request) tu.Reply {
			return tu.Reply{Status: http.StatusOK, Body: `{"url": "/content/images/x.jpg"}`}
		})
		u, root := newTestUploader(t, api)
		tu.WriteFile(t, root, "wp-content/uploads/x.jpg", content)

		for _, kind := range []models.AssetKind{models.AssetPost, models.AssetInline} {
			if _, err := u.Upload(context.Background(), models.AssetRequest{Kind: kind, OwnerID: 1, URL: "x.jpg"}); err != nil {
				t.Fatalf("%s upload failed: %v", kind, err)
			}
		}

		if len(api.RequestsTo(PostImagePath)) != 1 || len(api.RequestsTo(InlineImagePath)) != 1 {
			t.Errorf("unexpected requests %+v", api.Requests())
		}
	})

	t.Run("Missing File", func(t *testing.T) {
		api := tu.NewFakeAPI(t, nil)
		u, _ := newTestUploader(t, api)

		_, err := u.Upload(context.Background(), models.AssetRequest{Kind: models.AssetPost, OwnerID: 3, URL: "2020/01/missing.jpg"})
		if !errors.Is(err, ErrAssetUnresolvable) || !errors.Is(err, shared.ErrAssetResolution) {
			t.Fatalf("expected unresolvable asset, got %v", err)
		}
		if len(api.Requests()) != 0 {
			t.Error("nothing should be sent for a missing file")
		}
	})

	t.Run("Foreign Host", func(t *testing.T) {
		api := tu.NewFakeAPI(t, nil)
		u, _ := newTestUploader(t, api)

		_, err := u.Upload(context.Background(), models.AssetRequest{Kind: models.AssetPost, OwnerID: 3, URL: "https://example.com/a.jpg"})
		var f *Failure
		if !errors.As(err, &f) || f.Kind != AssetUnresolvable || f.Entity != "post 3 image" {
			t.Fatalf("expected unresolvable failure, got %v", err)
		}
	})

	t.Run("Reply Without URL", func(t *testing.T) {
		api := tu.NewFakeAPI(t, func(tu.Request) tu.Reply { return tu.Reply{Status: http.StatusCreated, Body: `{"id": 1}`} })
		u, root := newTestUploader(t, api)
		tu.WriteFile(t, root, "wp-content/uploads/a.jpg", content)

		_, err := u.Upload(context.Background(), models.AssetRequest{Kind: models.AssetPost, OwnerID: 1, URL: "a.jpg"})
		if !errors.Is(err, ErrMalformedResponse) {
			t.Fatalf("expected malformed response, got %v", err)
		}
	})

	t.Run("Rejected", func(t *testing.T) {
		api := tu.NewFakeAPI(t, func(tu.Request) tu.Reply { return tu.Reply{Status: http.StatusRequestEntityTooLarge} })
		u, root := newTestUploader(t, api)
		tu.WriteFile(t, root, "wp-content/uploads/a.jpg", content)

		_, err := u.Upload(context.Background(), models.AssetRequest{Kind: models.AssetPost, OwnerID: 1, URL: "a.jpg"})
		if !errors.Is(err, ErrClientRejected) {
			t.Fatalf("expected client rejection, got %v", err)
		}
	})
}
