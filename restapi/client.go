package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	autologin "github.com/elgranjm3000/controlagenda-sub000"
)

const (
	validatePath = "/validate-temporary-token"
	loginPath    = "/login"
	logoutPath   = "/logout"

	defaultTimeout = 10 * time.Second

	// Response bodies are small JSON documents; anything larger is a
	// misbehaving endpoint.
	maxResponseBytes = 1 << 20
)

// ErrBaseURLRequired is an exported constant or variable used by the reconciliation engine.
var ErrBaseURLRequired = errors.New("base url required")

// Client implements [autologin.AccountAPI] over net/http against the CRM
// back-end. Token validation is posted form-encoded, login as JSON, and
// logout carries the bearer in the Authorization header.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

var _ autologin.AccountAPI = (*Client)(nil)

// Option defines a public type used by autologin APIs.
type Option func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient describes the newclient operation and its observable behavior.
//
// NewClient may return an error when input validation, dependency calls, or security checks fail.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ValidateTemporaryToken posts the inbound one-time token form-encoded to
// the validation endpoint. A transport failure returns an error; a
// non-success HTTP status or a valid:false body both return Valid=false
// without error, which the Engine maps to the invalid-token outcome.
func (c *Client) ValidateTemporaryToken(ctx context.Context, token string) (*autologin.TokenValidation, error) {
	form := url.Values{"token": {token}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+validatePath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.setCommonHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("validate temporary token: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &autologin.TokenValidation{Valid: false}, nil
	}

	var out autologin.TokenValidation
	if err := decodeJSON(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("validate temporary token: decode response: %w", err)
	}
	return &out, nil
}

// Login posts credentials as JSON. A decodable non-2xx body surfaces as
// Success=false with the server message; transport and decode failures
// return an error.
func (c *Client) Login(ctx context.Context, email, password string) (*autologin.LoginResult, error) {
	payload, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setCommonHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	defer drainAndClose(resp.Body)

	var out autologin.LoginResult
	if err := decodeJSON(resp.Body, &out); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &autologin.LoginResult{
				Success: false,
				Message: fmt.Sprintf("unexpected status %d", resp.StatusCode),
			}, nil
		}
		return nil, fmt.Errorf("login: decode response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		out.Success = false
	}
	return &out, nil
}

// Logout revokes the bearer remotely. Best-effort by contract: callers
// log the returned error and proceed.
func (c *Client) Logout(ctx context.Context, bearerToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+logoutPath, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+bearerToken)
	c.setCommonHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("logout: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) setCommonHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}

func decodeJSON(r io.Reader, out interface{}) error {
	return json.NewDecoder(io.LimitReader(r, maxResponseBytes)).Decode(out)
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxResponseBytes))
	_ = body.Close()
}
