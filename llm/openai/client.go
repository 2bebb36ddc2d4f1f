package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/nvaldez/news-agent-go/llm"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 60 * time.Second
	defaultModel   = "gpt-4o"
)

// Client implements the LLM client interface for OpenAI and
// OpenAI-compatible endpoints.
type Client struct {
	options    llm.ClientOptions
	httpClient *http.Client
}

// NewClient creates a new OpenAI client
func NewClient(opts ...llm.ClientOption) (*Client, error) {
	options := llm.ClientOptions{
		BaseURL:      defaultBaseURL,
		Timeout:      defaultTimeout,
		MaxRetries:   3,
		DefaultModel: defaultModel,
		Headers:      make(map[string]string),
	}

	for _, opt := range opts {
		opt(&options)
	}

	// Get API key from environment if not provided
	if options.APIKey == "" {
		options.APIKey = os.Getenv("OPENAI_API_KEY")
		if options.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key not provided")
		}
	}

	return &Client{
		options:    options,
		httpClient: &http.Client{Timeout: options.Timeout},
	}, nil
}

// Chat sends a chat request to OpenAI
func (c *Client) Chat(ctx context.Context, request *llm.ChatRequest) (*llm.ChatResponse, error) {
	if request.Model == "" {
		request.Model = c.options.DefaultModel
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var response *llm.ChatResponse
	err = c.doWithRetries(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, "POST", c.options.BaseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		c.setHeaders(req)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			var errResp struct {
				Error llm.ErrorResponse `json:"error"`
			}
			if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
				return fmt.Errorf("OpenAI API error: status %d, %s", resp.StatusCode, errResp.Error.Message)
			}
			return fmt.Errorf("OpenAI API error: status %d, body: %s", resp.StatusCode, string(respBody))
		}

		response = &llm.ChatResponse{}
		if err := json.Unmarshal(respBody, response); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
		return nil
	})

	return response, err
}

// ListModels returns available OpenAI models
func (c *Client) ListModels(ctx context.Context) ([]llm.Model, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.options.BaseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("OpenAI API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Data []llm.Model `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return response.Data, nil
}

// Close cleans up resources
func (c *Client) Close() error {
	return nil
}

// setHeaders sets common headers for requests
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.options.APIKey)
	req.Header.Set("User-Agent", "news-agent-go/1.0")

	for k, v := range c.options.Headers {
		req.Header.Set(k, v)
	}
}

// doWithRetries executes a function with retries on transient upstream errors
func (c *Client) doWithRetries(ctx context.Context, fn func() error) error {
	var lastErr error

	for i := 0; i <= c.options.MaxRetries; i++ {
		if i > 0 {
			// Exponential backoff
			delay := time.Duration(i) * time.Second
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := fn(); err != nil {
			lastErr = err
			if strings.Contains(err.Error(), "status 429") ||
				strings.Contains(err.Error(), "status 500") ||
				strings.Contains(err.Error(), "status 502") ||
				strings.Contains(err.Error(), "status 503") {
				continue
			}
			return err
		}
		return nil
	}

	return fmt.Errorf("request failed after %d retries: %w", c.options.MaxRetries, lastErr)
}
