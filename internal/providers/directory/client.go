// Package directory implements core.UserDirectory against the user
// service's HTTP API.
package directory

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

	"github.com/otterscale/otterscale-gateway/internal/core"
)

// maxBodyBytes caps how much of a directory response is read.
const maxBodyBytes = 1 << 20

// registerBody is the JSON payload of POST /users/register.
type registerBody struct {
	Email                 string `json:"email"`
	ExternalID            string `json:"externalId"`
	FirstName             string `json:"firstName"`
	LastName              string `json:"lastName"`
	PlaceholderCredential string `json:"placeholderCredential"`
}

// userBody is the user record returned by the directory.
type userBody struct {
	ID         string `json:"id"`
	ExternalID string `json:"externalId"`
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying *http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// Client calls the user service over HTTP. Every failure is returned as
// a *core.ErrDirectory classified by status code.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a Client for the directory rooted at baseURL, for
// example "http://userservice:8081/api".
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &core.ErrInvalidInput{Field: "directory url", Message: fmt.Sprintf("%q is not an absolute url", baseURL)}
	}

	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

var _ core.UserDirectory = (*Client)(nil)

// Validate calls GET /users/{id}/validate.
func (c *Client) Validate(ctx context.Context, externalID string) (bool, error) {
	const op = "validate"

	endpoint := c.baseURL + "/users/" + url.PathEscape(externalID) + "/validate"
	status, body, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, &core.ErrDirectory{Op: op, Kind: core.DirectoryUnavailable, Err: err}
	}
	if status != http.StatusOK {
		return false, statusError(op, status, body)
	}

	var exists bool
	if err := json.Unmarshal(body, &exists); err != nil {
		return false, &core.ErrDirectory{Op: op, Kind: core.DirectoryUnavailable, StatusCode: status, Err: fmt.Errorf("decode response: %w", err)}
	}
	return exists, nil
}

// Register calls POST /users/register.
func (c *Client) Register(ctx context.Context, req core.RegistrationRequest) (*core.RegisteredUser, error) {
	const op = "register"

	payload, err := json.Marshal(registerBody{
		Email:                 req.Email,
		ExternalID:            req.ExternalID,
		FirstName:             req.FirstName,
		LastName:              req.LastName,
		PlaceholderCredential: req.PlaceholderCredential,
	})
	if err != nil {
		return nil, &core.ErrDirectory{Op: op, Kind: core.DirectoryRejected, Err: fmt.Errorf("encode request: %w", err)}
	}

	status, body, err := c.do(ctx, http.MethodPost, c.baseURL+"/users/register", payload)
	if err != nil {
		return nil, &core.ErrDirectory{Op: op, Kind: core.DirectoryUnavailable, Err: err}
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, statusError(op, status, body)
	}

	var user userBody
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, &core.ErrDirectory{Op: op, Kind: core.DirectoryUnavailable, StatusCode: status, Err: fmt.Errorf("decode response: %w", err)}
	}

	registered := &core.RegisteredUser{
		ID:         user.ID,
		ExternalID: user.ExternalID,
		Email:      user.Email,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
	}
	if registered.ExternalID == "" {
		registered.ExternalID = req.ExternalID
	}
	return registered, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// statusError classifies a non-success response.
func statusError(op string, status int, body []byte) error {
	kind := core.DirectoryUnavailable
	switch {
	case status == http.StatusNotFound:
		kind = core.DirectoryNotFound
	case status == http.StatusConflict:
		kind = core.DirectoryConflict
	case status >= 400 && status < 500:
		kind = core.DirectoryRejected
	}

	var err error
	if msg := strings.TrimSpace(string(body)); msg != "" {
		err = errors.New(truncate(msg, 256))
	}
	return &core.ErrDirectory{Op: op, Kind: kind, StatusCode: status, Err: err}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
