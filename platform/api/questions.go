package api

import (
	"context"
	"encoding/json"
	"go_qa_assistant/models"
	"go_qa_assistant/pkg/apperr"
	"net/http"
	"net/url"
	"time"
)

type questionRecord struct {
	models.Question
	CreatedAt flexTime `json:"created_at"`
}

func decodeQuestion(raw json.RawMessage) (*models.Question, error) {
	var rec questionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	q := rec.Question
	q.CreatedAt = time.Time(rec.CreatedAt)
	return &q, nil
}

func (c *Client) ListQuestions(ctx context.Context) ([]*models.Question, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/questions", nil, &raw); err != nil {
		return nil, err
	}
	items, err := unwrapList(raw, "questions")
	if err != nil {
		return nil, apperr.Network("GET /questions", "invalid response", err)
	}
	out := make([]*models.Question, 0, len(items))
	for _, item := range items {
		q, err := decodeQuestion(item)
		if err != nil {
			return nil, apperr.Network("GET /questions", "invalid question record", err)
		}
		out = append(out, q)
	}
	return out, nil
}

func (c *Client) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	path := "/questions/" + url.PathEscape(id)
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	q, err := decodeQuestion(raw)
	if err != nil {
		return nil, apperr.Network("GET "+path, "invalid question record", err)
	}
	return q, nil
}

func (c *Client) DeleteQuestion(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/questions/"+url.PathEscape(id), nil, nil)
}
