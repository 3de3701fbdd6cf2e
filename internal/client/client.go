// Package client talks to the storage REST API. Every authenticated call reads
// its bearer token from the injected session, a 401 clears that session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MuhamedUsman/letstore/internal/session"
)

const defaultTimeout = 30 * time.Second

type Config struct {
	// BaseURL of the API, e.g. http://localhost:8000/api
	BaseURL string
	// Timeout bounds every call except transfers, which run until their context ends
	Timeout time.Duration
	Session *session.Session
}

type Client struct {
	baseURL  string
	http     *http.Client
	transfer *http.Client
	session  *session.Session
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Session == nil {
		cfg.Session = session.New(nil)
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     &http.Client{Timeout: cfg.Timeout, Transport: transport},
		transfer: &http.Client{Transport: transport},
		session:  cfg.Session,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Session() *session.Session {
	return c.session
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// applyAuth adds the bearer header, an inactive session is a 401 without a round trip.
func (c *Client) applyAuth(req *http.Request) error {
	tok := c.session.Token()
	if tok == "" {
		return &APIError{Status: http.StatusUnauthorized, Detail: "Not authenticated"}
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	return nil
}

// do sends req through hc and turns non 2xx responses into *APIError.
// The caller owns the body of a successful response.
func (c *Client) do(hc *http.Client, req *http.Request, authed bool) (*http.Response, error) {
	if authed {
		if err := c.applyAuth(req); err != nil {
			return nil, err
		}
	}
	resp, err := hc.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return nil, fmt.Errorf("%s %s: request timed out: %w", req.Method, req.URL.Path, err)
		}
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	apiErr := decodeError(resp)
	if authed && resp.StatusCode == http.StatusUnauthorized {
		slog.Warn("credential rejected, clearing session", "path", req.URL.Path)
		if err = c.session.Clear(); err != nil {
			slog.Error("clearing session", "err", err)
		}
	}
	return nil, apiErr
}

// doJSON sends in (if not nil) as JSON and decodes the response into out (if not nil).
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.do(c.http, req, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeBody(resp, out)
}

func decodeBody(resp *http.Response, out any) error {
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func jsonBody(v any) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}
