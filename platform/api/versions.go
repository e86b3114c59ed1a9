package api

import (
	"context"
	"encoding/json"
	"fmt"
	"go_qa_assistant/models"
	"go_qa_assistant/pkg/apperr"
	"net/http"
	"net/url"
	"time"
)

var versionFields = map[string]bool{
	"id": true, "content": true, "type": true, "timestamp": true,
	"is_liked": true, "is_bookmarked": true, "metadata": true, "question_id": true,
}

func versionsPath(questionID string) string {
	return fmt.Sprintf("/questions/%s/versions", url.PathEscape(questionID))
}

func (c *Client) ListVersions(ctx context.Context, questionID string) ([]*models.Version, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, versionsPath(questionID), nil, &raw); err != nil {
		return nil, err
	}
	items, err := unwrapList(raw, "versions")
	if err != nil {
		return nil, apperr.Network("GET "+versionsPath(questionID), "invalid response", err)
	}
	out := make([]*models.Version, 0, len(items))
	for _, item := range items {
		v, err := decodeVersion(item)
		if err != nil {
			return nil, apperr.Network("GET "+versionsPath(questionID), "invalid version record", err)
		}
		out = append(out, v)
	}
	return out, nil
}

// CreateVersion posts the version with its metadata spread into the body.
func (c *Client) CreateVersion(ctx context.Context, questionID string, v *models.Version) (*models.Version, error) {
	body := make(map[string]interface{}, len(v.Metadata)+5)
	for k, val := range v.Metadata {
		body[k] = val
	}
	body["content"] = v.Content
	body["type"] = v.Type
	body["timestamp"] = v.Timestamp.UTC().Format(time.RFC3339Nano)
	body["is_liked"] = v.IsLiked
	body["is_bookmarked"] = v.IsBookmarked

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, versionsPath(questionID), body, &raw); err != nil {
		return nil, err
	}
	created, err := decodeVersion(raw)
	if err != nil {
		return nil, apperr.Network("POST "+versionsPath(questionID), "invalid version record", err)
	}
	return created, nil
}

func (c *Client) UpdateVersion(ctx context.Context, questionID string, versionID string, patch models.VersionPatch) (*models.Version, error) {
	path := versionsPath(questionID) + "/" + url.PathEscape(versionID)
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPut, path, patch, &raw); err != nil {
		return nil, err
	}
	updated, err := decodeVersion(raw)
	if err != nil {
		return nil, apperr.Network("PUT "+path, "invalid version record", err)
	}
	return updated, nil
}

// decodeVersion reads a version record; unknown top-level keys are folded into metadata.
func decodeVersion(raw json.RawMessage) (*models.Version, error) {
	var rec struct {
		ID           models.VersionID       `json:"id"`
		Content      string                 `json:"content"`
		Type         models.VersionType     `json:"type"`
		Timestamp    flexTime               `json:"timestamp"`
		IsLiked      bool                   `json:"is_liked"`
		IsBookmarked bool                   `json:"is_bookmarked"`
		Metadata     map[string]interface{} `json:"metadata"`
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	var all map[string]interface{}
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, err
	}
	meta := rec.Metadata
	for k, v := range all {
		if versionFields[k] {
			continue
		}
		if meta == nil {
			meta = make(map[string]interface{})
		}
		meta[k] = v
	}
	return &models.Version{
		ID:           rec.ID,
		Content:      rec.Content,
		Type:         rec.Type,
		Timestamp:    time.Time(rec.Timestamp),
		IsLiked:      rec.IsLiked,
		IsBookmarked: rec.IsBookmarked,
		Metadata:     meta,
	}, nil
}
