package api

import (
	"context"
	"go_qa_assistant/models"
	"net/http"
)

func (c *Client) Chat(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	if req.ResponseType == "" {
		req.ResponseType = models.ResponseTypeText
	}
	var resp models.ChatResponse
	if err := c.do(ctx, http.MethodPost, "/chat", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
