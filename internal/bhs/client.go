package bhs

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// DefaultBaseURL is the Block Headers Service used when no server profile overrides it.
const DefaultBaseURL = "https://bhs.popwu.com/api/v1"

// maxErrorBody caps how much of a failed response body is kept in an HTTPError.
const maxErrorBody = 512

// TokenSource supplies the bearer token attached to each request.
type TokenSource interface {
	Token() string
}

// ClientParams holds configuration for creating a Client.
type ClientParams struct {
	BaseURL    string
	Tokens     TokenSource
	HTTPClient *http.Client
}

// Client issues authenticated JSON requests against a Block Headers Service.
// It never retries; any transport or status failure is returned to the caller.
type Client struct {
	baseURL string
	tokens  TokenSource
	http    *http.Client
}

// NewClient creates a Client from the given params.
func NewClient(p ClientParams) *Client {
	base := p.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	hc := p.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		tokens:  p.Tokens,
		http:    hc,
	}
}

// NewTransport returns an http.Transport honouring proxy environment
// variables, optionally skipping TLS verification for self-signed services.
func NewTransport(insecureSkipVerify bool) *http.Transport {
	return &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{InsecureSkipVerify: insecureSkipVerify},
	}
}

// BaseURL returns the API base the client was configured with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get issues a GET request and decodes the JSON response into out (if non-nil).
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST request with body encoded as JSON.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// Delete issues a DELETE request. Parameters travel in the query string, never the body.
func (c *Client) Delete(ctx context.Context, path string, query url.Values) error {
	return c.do(ctx, http.MethodDelete, path, query, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s %s body: %w", method, path, err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return fmt.Errorf("building %s %s: %w", method, path, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token := ""
	if c.tokens != nil {
		token = c.tokens.Token()
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Method: method, Path: path, RequestID: reqID, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		herr := &HTTPError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(excerpt)),
			RequestID:  reqID,
		}
		log.Printf("[bhs] %s %s req=%s: %s", method, path, reqID, resp.Status)
		return herr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}
