// Package api is the single point of outbound request construction for every
// domain module. It resolves the base URL once, attaches the bearer token when
// a session holds one, and surfaces every failure as a typed *Error.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stayhub/backend/internal/upstream"
)

// TokenSource supplies the access token attached to outbound requests. An
// empty string means the caller is anonymous and no Authorization header is
// sent.
type TokenSource interface {
	AccessToken() string
}

// Client is the shared outbound HTTP substrate for the domain modules.
type Client struct {
	baseURL string
	tokens  TokenSource
	http    *http.Client
}

// NewClient constructs a Client rooted at baseURL. tokens may be nil for a
// permanently anonymous client.
func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// envelope is the uniform `{ data: T, ... }` wrapper every endpoint replies with.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

// Get issues an authenticated GET and decodes the response data into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues an authenticated POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// Put issues an authenticated PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

// Delete issues an authenticated DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return &Error{Kind: KindTransport, Message: err.Error()}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindTransport, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw := new(bytes.Buffer)
	if _, err := raw.ReadFrom(resp.Body); err != nil {
		return &Error{Kind: KindTransport, Message: err.Error()}
	}

	if !json.Valid(raw.Bytes()) {
		return &Error{
			Kind:    KindMalformed,
			Status:  resp.StatusCode,
			Message: "response body is not valid JSON",
			Raw:     upstream.Truncate(raw.String()),
		}
	}

	var env envelope
	_ = json.Unmarshal(raw.Bytes(), &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := env.Error
		if message == "" {
			message = env.Message
		}
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return &Error{Kind: KindUpstream, Status: resp.StatusCode, Message: message}
	}

	if out == nil {
		return nil
	}

	payload := raw.Bytes()
	if len(env.Data) > 0 {
		payload = env.Data
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &Error{
			Kind:    KindMalformed,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("decode response: %v", err),
			Raw:     upstream.Truncate(raw.String()),
		}
	}
	return nil
}
