package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// requestTimeout bounds every authenticated outbound call. On timeout the
// call fails as a transport error, which is never retried.
const requestTimeout = 30 * time.Second

// ErrUnauthenticated reports that no usable token could be obtained.
var ErrUnauthenticated = errors.New("unable to authenticate with news service")

// tokenSource is the part of AuthProvider the client depends on.
type tokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// Client issues HTTP requests with a bearer token attached. On a 401
// response it invalidates the token cache and retries exactly once with a
// freshly obtained token; a second 401 is returned to the caller as-is.
// Transport errors are propagated without retry.
type Client struct {
	auth       tokenSource
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an authenticated client over the given provider.
func NewClient(auth *AuthProvider, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		auth:       auth,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
	}
}

// Do performs an authenticated request. The caller owns the response body.
func (c *Client) Do(ctx context.Context, method, url string) (*http.Response, error) {
	token, err := c.auth.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	resp, err := c.send(ctx, method, url, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// One retry with a fresh token; the cleared cache forces the provider
	// through refresh or full re-authentication.
	resp.Body.Close()
	c.logger.Info("received 401, clearing token cache and retrying", "url", url)
	c.auth.Invalidate()

	token, err = c.auth.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	return c.send(ctx, method, url, token)
}

// GetJSON performs an authenticated GET and decodes the JSON body into v.
// Non-2xx statuses are errors.
func (c *Client) GetJSON(ctx context.Context, url string, v interface{}) error {
	resp, err := c.Do(ctx, http.MethodGet, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("news API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to parse news API response: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, url, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("cache-control", "no-cache")

	return c.httpClient.Do(req)
}
