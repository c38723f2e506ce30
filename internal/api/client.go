// Package api implements the typed REST client the lifecycle controllers
// talk through. It owns URL construction, bearer authentication, response
// decoding and the error taxonomy; it holds no entity state.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/provistock/provistock/internal/session"
)

// Client issues authenticated calls against the backend REST API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// New constructs a Client for the given base URL (including any path
// prefix, e.g. "http://localhost:5000/api").
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// URL builds the endpoint for a route and optional resource id.
func (c *Client) URL(route, id string) string {
	if id == "" {
		return c.baseURL + "/" + route
	}
	return c.baseURL + "/" + route + "/" + id
}

// Do performs one request. body, when non-nil, is sent as JSON; out, when
// non-nil, receives the decoded 2xx response body. Non-2xx responses decode
// into *Error with the server message kept verbatim. Guests pass a nil
// session and the Authorization header is omitted.
func (c *Client) Do(ctx context.Context, sess *session.Session, method, route, id string, query url.Values, body, out any) error {
	endpoint := c.URL(route, id)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := sess.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed", slog.String("method", method), slog.String("url", endpoint), slog.Any("error", err))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// GetList fetches a collection, accepting both the enveloped
// {"results": [...]} shape and a bare array. out must be a pointer to a
// slice.
func (c *Client) GetList(ctx context.Context, sess *session.Session, route string, query url.Values, out any) error {
	var raw json.RawMessage
	if err := c.Do(ctx, sess, http.MethodGet, route, "", query, nil, &raw); err != nil {
		return err
	}
	return decodeListShape(raw, out)
}

func decodeListShape(raw json.RawMessage, out any) error {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope struct {
			Results json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return fmt.Errorf("decode list envelope: %w", err)
		}
		if envelope.Results == nil {
			return errors.New("decode list: object response without results field")
		}
		raw = envelope.Results
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode list: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	apiErr := &Error{Status: resp.StatusCode, Message: extractMessage(body)}
	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %w", ErrUnauthorized, apiErr)
	}
	return apiErr
}

// extractMessage pulls the human-readable message out of an error body. The
// backend responds {"message": "..."}; RFC7807 bodies use "detail".
func extractMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Detail
}
