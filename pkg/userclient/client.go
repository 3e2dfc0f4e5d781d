// Package userclient is a stateless HTTP client for the users resource.
//
// It maps the four collection operations onto a single base URL:
//
//	GET    {base}/users
//	POST   {base}/users
//	PUT    {base}/users/{id}
//	DELETE {base}/users/{id}
package userclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/userdesk/userdesk/pkg/user"
)

// DefaultTimeout bounds every request unless WithTimeout overrides it.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a failed response is kept as payload.
const maxErrorBody = 64 << 10

// Client is an HTTP client for the users resource.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New creates a users client. baseURL is fixed for the lifetime of the client.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// List returns every user known to the resource, in server order.
func (c *Client) List(ctx context.Context) ([]user.User, error) {
	resp, err := c.get(ctx, "/users")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if !isSuccess(resp.StatusCode) {
		return nil, c.parseError(resp)
	}

	var users []user.User
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	if users == nil {
		users = []user.User{}
	}
	return users, nil
}

// Create posts a draft and returns the stored user with its assigned id.
func (c *Client) Create(ctx context.Context, draft user.Fields) (user.User, error) {
	resp, err := c.post(ctx, "/users", draft)
	if err != nil {
		return user.User{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if !isSuccess(resp.StatusCode) {
		return user.User{}, c.parseError(resp)
	}

	var created user.User
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return user.User{}, fmt.Errorf("failed to decode created user: %w", err)
	}
	return created, nil
}

// Update replaces the user identified by id. The id travels only in the path.
func (c *Client) Update(ctx context.Context, id string, patch user.Fields) (user.User, error) {
	resp, err := c.put(ctx, "/users/"+url.PathEscape(id), patch)
	if err != nil {
		return user.User{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if !isSuccess(resp.StatusCode) {
		return user.User{}, c.parseError(resp)
	}

	var updated user.User
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		return user.User{}, fmt.Errorf("failed to decode updated user: %w", err)
	}
	return updated, nil
}

// Delete removes the user identified by id and echoes the id back.
// The response body is ignored.
func (c *Client) Delete(ctx context.Context, id string) (string, error) {
	resp, err := c.delete(ctx, "/users/"+url.PathEscape(id))
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if !isSuccess(resp.StatusCode) {
		return "", c.parseError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return id, nil
}

// HTTP helpers

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, path string, body interface{}) (*http.Response, error) {
	return c.send(ctx, http.MethodPost, path, body)
}

func (c *Client) put(ctx context.Context, path string, body interface{}) (*http.Response, error) {
	return c.send(ctx, http.MethodPut, path, body)
}

func (c *Client) send(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) delete(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	return resp, nil
}

func (c *Client) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	body = bytes.TrimSpace(body)
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if len(body) > 0 {
		if json.Valid(body) {
			apiErr.Payload = json.RawMessage(body)
		} else {
			quoted, _ := json.Marshal(string(body))
			apiErr.Payload = json.RawMessage(quoted)
		}
	}
	return apiErr
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
