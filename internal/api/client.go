package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/gregjones/httpcache"
	"github.com/rs/zerolog/log"
)

// Config holds common client configuration.
type Config struct {
	ServerURL string
	Timeout   time.Duration
	Debug     bool
}

// DefaultConfig returns a default client configuration.
func DefaultConfig() Config {
	return Config{
		ServerURL: "https://api.horizon-etudes.com",
		Timeout:   15 * time.Second,
	}
}

// Client talks to the account API. The refresh credential is an httpOnly
// cookie held in the client's jar; it is sent with every request and never
// surfaces in Go code or on disk.
type Client struct {
	baseURL string
	timeout time.Duration

	// httpClient carries the cookie jar for the refresh credential.
	httpClient *http.Client

	// cachedClient shares the jar but routes through an in-memory caching
	// transport, used for the cacheable profile endpoint.
	cachedClient *http.Client
}

// NewClient creates a client for the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("server URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	log.Debug().Str("serverURL", cfg.ServerURL).Dur("timeout", cfg.Timeout).Msg("account api client initialized")

	return &Client{
		baseURL: strings.TrimRight(cfg.ServerURL, "/"),
		timeout: cfg.Timeout,
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: cfg.Timeout,
		},
		cachedClient: &http.Client{
			Jar:       jar,
			Timeout:   cfg.Timeout,
			Transport: httpcache.NewTransport(httpcache.NewMemoryCache()),
		},
	}, nil
}

// errorBody is the JSON shape the account API uses for application errors.
type errorBody struct {
	Code           string            `json:"code"`
	Message        string            `json:"message"`
	SessionExpired bool              `json:"sessionExpired"`
	LoggedOut      bool              `json:"loggedOut"`
	RequiresReauth bool              `json:"requiresReauth"`
	Errors         map[string]string `json:"errors"`
}

// do performs one JSON exchange with the API. token, when non-empty, is sent
// as a bearer credential. Transport failures come back wrapped in ErrNetwork;
// application errors come back classified (see classify).
func (c *Client) do(ctx context.Context, hc *http.Client, method, path, token string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := hc.Do(req)
	if err != nil {
		// No HTTP response was parsed: this is a connectivity failure, not
		// an application error, and must never evict a session.
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}

	var eb errorBody
	// A body that fails to parse still classifies by status code.
	_ = json.NewDecoder(resp.Body).Decode(&eb)

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Str("code", eb.Code).
		Msg("account api error response")

	return classify(resp.StatusCode, eb)
}

// classify maps an HTTP error status plus parsed body to the error taxonomy.
func classify(status int, eb errorBody) error {
	switch status {
	case http.StatusUnauthorized:
		if eb.SessionExpired || eb.LoggedOut || eb.RequiresReauth {
			return ErrSessionExpired
		}
		return fmt.Errorf("%w: %s", ErrUnauthenticated, eb.Message)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrPermissionDenied, eb.Message)
	}
	return &APIError{
		Status:  status,
		Code:    eb.Code,
		Message: eb.Message,
		Fields:  eb.Errors,
	}
}

// Do performs an authenticated JSON request against the API and decodes the
// response into out. This is the single path business-domain calls go
// through; the session manager wraps it with expiry handling.
func (c *Client) Do(ctx context.Context, method, path, token string, body, out any) error {
	return c.do(ctx, c.httpClient, method, path, token, body, out)
}
