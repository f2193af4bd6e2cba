// Package api is the HTTP client for the auth endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pfolio/portfolio-api/internal/model"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// Error is a non-2xx answer. Message is the server's "error" field.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// Client talks to the portfolio API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for baseURL such as "https://api.site.dev". A nil hc
// gets a client with a 15s timeout.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// LoginResult is the body of a successful login.
type LoginResult struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	User      model.Identity `json:"user"`
}

// SeedResult is the body of a seed call.
type SeedResult struct {
	Created           bool           `json:"created"`
	AlreadyExists     bool           `json:"alreadyExists"`
	Message           string         `json:"message"`
	User              model.Identity `json:"user"`
	TemporaryPassword string         `json:"temporaryPassword"`
}

func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var out LoginResult
	err := c.do(ctx, http.MethodPost, "/v1/auth/login", "", map[string]string{"email": email, "password": password}, &out)
	return out, err
}

// Verify returns the identity embedded in token if the server accepts it.
func (c *Client) Verify(ctx context.Context, token string) (model.Identity, error) {
	var out struct {
		User model.Identity `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/v1/auth/verify", "", map[string]string{"token": token}, &out)
	return out.User, err
}

func (c *Client) ChangePassword(ctx context.Context, token, userID, currentPassword, newPassword string) error {
	body := map[string]string{"userId": userID, "currentPassword": currentPassword, "newPassword": newPassword}
	return c.do(ctx, http.MethodPost, "/v1/auth/change-password", token, body, nil)
}

// Logout revokes token on the server.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/v1/auth/logout", token, nil, nil)
}

func (c *Client) Seed(ctx context.Context) (SeedResult, error) {
	var out SeedResult
	err := c.do(ctx, http.MethodPost, "/v1/auth/seed", "", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &e)
		return &Error{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}
