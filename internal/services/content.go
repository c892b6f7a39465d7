package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/wpx/internal/models"
)

// Destination endpoints.
const (
	AuthorsPath     = "/authors"
	TagsPath        = "/tags"
	PostsPath       = "/posts"
	AuthorImagePath = "/authors/image"
	PostImagePath   = "/posts/image"
	InlineImagePath = "/image"
	HealthPath      = "/healthcheck"
)

// ContentService creates entities on the destination content API.
type ContentService struct {
	api *APIService
}

func NewContentService(api *APIService) *ContentService {
	return &ContentService{api: api}
}

func (s *ContentService) CreateAuthor(ctx context.Context, p models.AuthorPayload) (models.Reference, error) {
	return s.submit(ctx, AuthorsPath, fmt.Sprintf("author %d", p.ID), p)
}

func (s *ContentService) CreateTag(ctx context.Context, p models.TagPayload) (models.Reference, error) {
	return s.submit(ctx, TagsPath, fmt.Sprintf("tag %d", p.ID), p)
}

func (s *ContentService) CreatePost(ctx context.Context, p models.PostPayload) (models.Reference, error) {
	return s.submit(ctx, PostsPath, fmt.Sprintf("post %d", p.ID), p)
}

// Health checks that the destination answers its health endpoint with a 2xx status.
func (s *ContentService) Health(ctx context.Context) error {
	resp, err := s.api.Get(ctx, HealthPath)
	if err != nil {
		return &Failure{Kind: TransportFailed, Endpoint: HealthPath, Err: err}
	}
	if !isSuccess(resp.StatusCode) {
		return &Failure{Kind: ClassifyStatus(resp.StatusCode), Endpoint: HealthPath, Status: resp.StatusCode, Body: string(resp.Body)}
	}
	return nil
}

// submit posts payload to endpoint and decodes the {"id": ...} reply.
func (s *ContentService) submit(ctx context.Context, endpoint, entity string, payload any) (models.Reference, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return models.Reference{}, fmt.Errorf("%s: failed to encode payload: %w", entity, err)
	}

	resp, err := s.api.Post(ctx, endpoint, data)
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
	if err := json.Unmarshal(resp.Body, &ref); err != nil || ref.ID == "" {
		if err == nil {
			err = fmt.Errorf("reply has no id")
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
