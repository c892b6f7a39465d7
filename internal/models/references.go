package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Reference is what the destination returns for a created entity or an uploaded asset.
type Reference struct {
	ID  string `json:"id,omitempty"`
	URL string `json:"url,omitempty"`
}

// IsZero reports whether the reference carries neither an id nor a url.
func (r Reference) IsZero() bool {
	return r.ID == "" && r.URL == ""
}

// UnmarshalJSON accepts the id as a JSON string or number.
func (r *Reference) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID  json.RawMessage `json:"id"`
		URL string          `json:"url"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.URL = raw.URL
	r.ID = ""

	id := bytes.TrimSpace(raw.ID)
	switch {
	case len(id) == 0, bytes.Equal(id, []byte("null")):
	case id[0] == '"':
		var s string
		if err := json.Unmarshal(id, &s); err != nil {
			return err
		}
		r.ID = s
	default:
		var n json.Number
		if err := json.Unmarshal(id, &n); err != nil {
			return fmt.Errorf("id must be a string or number: %w", err)
		}
		if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
			return fmt.Errorf("id must be a string or number: %w", err)
		}
		r.ID = n.String()
	}
	return nil
}

// AssetKind names the owner of an uploaded image.
type AssetKind int

const (
	AssetAuthor AssetKind = iota
	AssetPost
	AssetInline
)

func (k AssetKind) String() string {
	switch k {
	case AssetAuthor:
		return "author"
	case AssetPost:
		return "post"
	case AssetInline:
		return "inline"
	default:
		return "unknown"
	}
}

// AssetRequest asks for the legacy file behind URL to be uploaded on behalf of an owner.
type AssetRequest struct {
	Kind    AssetKind
	OwnerID int64
	URL     string
}

// ImageUpload is the body posted to the image endpoints.
// Exactly one of PostID and AuthorID is set.
type ImageUpload struct {
	PostID    *int64 `json:"post_id,omitempty"`
	AuthorID  *int64 `json:"author_id,omitempty"`
	PathImage string `json:"path_image"`
	Base64    string `json:"base64"`
}

// NewImageUpload builds the body for req from the root-relative path and encoded bytes.
func NewImageUpload(req AssetRequest, pathImage, encoded string) ImageUpload {
	owner := req.OwnerID
	u := ImageUpload{PathImage: pathImage, Base64: encoded}
	if req.Kind == AssetAuthor {
		u.AuthorID = &owner
	} else {
		u.PostID = &owner
	}
	return u
}
