// Package api is the HTTP client for the assistant backend: the generation endpoint,
// the version persistence endpoints and the question history endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"go_qa_assistant/models"
	"go_qa_assistant/pkg/apperr"
	"go_qa_assistant/pkg/logging"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource supplies the bearer credential. Storage of the token is up to the caller.
type TokenSource interface {
	Token() (string, error)
}

type StaticToken string

func (t StaticToken) Token() (string, error) {
	return string(t), nil
}

type Client struct {
	baseURL string
	client  *http.Client
	tokens  TokenSource
	now     func() time.Time
}

func NewClient(baseURL string, tokens TokenSource, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		tokens:  tokens,
		now:     time.Now,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	op := method + " " + path
	token, err := c.bearer(op)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		logging.Logger.Error("fail request", "op", op, "error", err)
		return apperr.Network(op, "request failed", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logging.Logger.Error("Error closing response body", "error", err)
		}
	}(resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return statusError(op, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Network(op, "invalid response", err)
	}
	return nil
}

func (c *Client) bearer(op string) (string, error) {
	if c.tokens == nil {
		return "", apperr.Auth(op, "missing credential")
	}
	token, err := c.tokens.Token()
	if err != nil {
		return "", apperr.Auth(op, err.Error())
	}
	if token == "" {
		return "", apperr.Auth(op, "missing credential")
	}
	if tokenExpired(token, c.now()) {
		return "", apperr.Auth(op, "session expired")
	}
	return token, nil
}

// tokenExpired only inspects JWT bearers; opaque tokens are left to the server.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return now.After(exp.Time)
}

func statusError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body models.ErrorBody
	_ = json.Unmarshal(raw, &body)
	msg := body.Text()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return apperr.Auth(op, "session expired")
	case http.StatusNotFound:
		if msg == "" {
			msg = "not found"
		}
		return apperr.NotFound(op, msg)
	}
	if msg == "" {
		msg = fmt.Sprintf("API returned status %d", resp.StatusCode)
	}
	return apperr.Network(op, msg, nil)
}
