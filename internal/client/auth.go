package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/MuhamedUsman/letstore/internal/domain"
)

const (
	loginPath    = "/auth/login"
	registerPath = "/auth/register"
	mePath       = "/auth/me"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login exchanges credentials for a bearer token and starts the session with it.
// The form field is named username but the backend matches it against email.
func (c *Client) Login(ctx context.Context, email, password string) error {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)
	req, err := c.newRequest(ctx, http.MethodPost, loginPath, nil, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.do(c.http, req, false)
	if err != nil {
		return fmt.Errorf("logging in: %w", err)
	}
	defer resp.Body.Close()
	var tok tokenResponse
	if err = decodeBody(resp, &tok); err != nil {
		return fmt.Errorf("logging in: %w", err)
	}
	if tok.AccessToken == "" {
		return fmt.Errorf("logging in: empty access token")
	}
	return c.session.Start(tok.AccessToken)
}

func (c *Client) Register(ctx context.Context, r RegisterRequest) (domain.User, error) {
	var u domain.User
	req, err := c.newRequest(ctx, http.MethodPost, registerPath, nil, jsonBody(r))
	if err != nil {
		return u, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.do(c.http, req, false)
	if err != nil {
		return u, fmt.Errorf("registering: %w", err)
	}
	defer resp.Body.Close()
	if err = decodeBody(resp, &u); err != nil {
		return u, fmt.Errorf("registering: %w", err)
	}
	return u, nil
}

// Me fetches the session's user. Any failure means the credential can no
// longer be trusted, so the session is cleared.
func (c *Client) Me(ctx context.Context) (domain.User, error) {
	var u domain.User
	if err := c.doJSON(ctx, http.MethodGet, mePath, nil, nil, &u); err != nil {
		if clearErr := c.session.Clear(); clearErr != nil {
			slog.Error("clearing session", "err", clearErr)
		}
		return domain.User{}, fmt.Errorf("fetching current user: %w", err)
	}
	c.session.SetUser(u)
	return u, nil
}

func (c *Client) Logout() error {
	return c.session.Clear()
}
