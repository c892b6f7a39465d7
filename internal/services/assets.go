package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/desertthunder/wpx/internal/models"
	"github.com/desertthunder/wpx/internal/rewriter"
)

// AssetUploader reads legacy upload files from disk and sends them to the destination image endpoints.
type AssetUploader struct {
	api         *APIService
	rw          *rewriter.Rewriter
	contentRoot string
	uploadsDir  string
}

// NewAssetUploader creates an uploader resolving files under contentRoot,
// the directory WordPress is installed in.
func NewAssetUploader(api *APIService, rw *rewriter.Rewriter, contentRoot string) *AssetUploader {
	return &AssetUploader{
		api:         api,
		rw:          rw,
		contentRoot: contentRoot,
		uploadsDir:  strings.Trim(rw.Marker(), "/"),
	}
}

// Upload sends the file behind req.URL and returns the destination's reference to it.
func (u *AssetUploader) Upload(ctx context.Context, req models.AssetRequest) (models.Reference, error) {
	endpoint := imageEndpoint(req.Kind)
	entity := fmt.Sprintf("%s %d image", req.Kind, req.OwnerID)

	file, rel, err := u.Resolve(req.URL)
	if err != nil {
		return models.Reference{}, &Failure{Kind: AssetUnresolvable, Endpoint: endpoint, Entity: entity, Err: err}
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return models.Reference{}, &Failure{Kind: AssetUnresolvable, Endpoint: endpoint, Entity: entity, Err: err}
	}

	body := models.NewImageUpload(req, rel, base64.StdEncoding.EncodeToString(data))
	resp, err := u.api.PostJSON(ctx, endpoint, body)
	if err != nil {
		return models.Reference{}, &Failure{Kind: TransportFailed, Endpoint: endpoint, Entity: entity, Err: err}
	}

	if !isSuccess(resp.StatusCode) {
		return models.Reference{}, &Failure{
			Kind:     ClassifyStatus(resp.StatusCode),
			Endpoint: endpoint,
			Entity:   entity,
			Status:   resp.StatusCode,
			Body:     string(resp.Body),
		}
	}

	var ref models.Reference
	if err := json.Unmarshal(resp.Body, &ref); err != nil || ref.URL == "" {
		if err == nil {
			err = fmt.Errorf("reply has no url")
		}
		return models.Reference{}, &Failure{
			Kind:     MalformedResponse,
			Endpoint: endpoint,
			Entity:   entity,
			Status:   resp.StatusCode,
			Body:     string(resp.Body),
			Err:      err,
		}
	}
	return ref, nil
}

// Resolve maps a legacy URL to the file on disk and its path relative to the content root.
//
// URLs carrying the uploads marker, and bare paths, resolve inside the uploads
// directory whatever their host. Other URLs must be on the legacy site.
func (u *AssetUploader) Resolve(raw string) (file, rel string, err error) {
	if strings.TrimSpace(raw) == "" {
		return "", "", fmt.Errorf("empty asset url")
	}

	if p, ok := u.rw.UploadsPath(raw); ok {
		rel = path.Join(u.uploadsDir, unescape(p))
	} else {
		if !u.rw.SameHost(raw) {
			return "", "", fmt.Errorf("%q is not hosted on the legacy site", raw)
		}
		parsed, perr := url.Parse(u.rw.Canonical(raw))
		if perr != nil {
			return "", "", fmt.Errorf("invalid asset url %q: %w", raw, perr)
		}
		rel = strings.TrimLeft(parsed.Path, "/")
	}

	rel = path.Clean(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", "", fmt.Errorf("%q resolves outside the content root", raw)
	}

	return filepath.Join(u.contentRoot, filepath.FromSlash(rel)), "/" + rel, nil
}

func imageEndpoint(k models.AssetKind) string {
	switch k {
	case models.AssetAuthor:
		return AuthorImagePath
	case models.AssetPost:
		return PostImagePath
	default:
		return InlineImagePath
	}
}

func unescape(p string) string {
	if s, err := url.PathUnescape(p); err == nil {
		return s
	}
	return p
}
