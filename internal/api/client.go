// Package api is the HTTP client for the Hon-Hon user service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/pkg/errors"
)

const (
	// DefaultBaseURL is the registration service a local backend listens on.
	DefaultBaseURL = "http://localhost:5000"

	// RegisterPath is the registration endpoint.
	RegisterPath = "/users/register"

	// LoginPath is the login endpoint.
	LoginPath = "/users/login"

	// RequestIDHeader carries a per-request id the server can log.
	RequestIDHeader = "X-Request-ID"

	defaultTimeout = 30 * time.Second
	maxBodySize    = 1 << 20
)

// HTTPClient is the subset of *http.Client the API client needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// RegisterRequest is the body of a registration call.
type RegisterRequest struct {
	Username string              `json:"username"`
	Email    openapi_types.Email `json:"email"`
	Password string              `json:"password"`
}

// RegisterResponse is the body returned by a successful registration.
// Every member is optional; servers are free to answer with an empty body.
type RegisterResponse struct {
	Message string `json:"message,omitempty"`
	User    *User  `json:"user,omitempty"`
}

// LoginRequest is the body of a login call.
type LoginRequest struct {
	Email    openapi_types.Email `json:"email"`
	Password string              `json:"password"`
}

// LoginResponse is the body returned by a successful login.
type LoginResponse struct {
	Token   string `json:"token"`
	Message string `json:"message,omitempty"`
	User    *User  `json:"user,omitempty"`
}

// User describes an account as returned by the service.
type User struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Client talks to the registration service.
type Client struct {
	httpClient HTTPClient
	baseURL    string
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(hc HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a client for the service at baseURL. An empty baseURL
// selects DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var out RegisterResponse
	if err := c.post(ctx, RegisterPath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.post(ctx, LoginPath, req, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, errors.New("login response did not include a token")
	}
	return &out, nil
}

// post sends body as JSON and decodes a 2xx response into out. An empty
// response body leaves out untouched.
func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "failed to encode request")
	}

	endpoint := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &TransportError{Endpoint: endpoint, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return errors.Wrap(err, "failed to read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newStatusError(resp.StatusCode, data)
	}

	if len(bytes.TrimSpace(data)) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(err, "unexpected response format")
	}
	return nil
}
