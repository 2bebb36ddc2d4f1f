package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/nvaldez/news-agent-go/llm"
)

const (
	defaultBaseURL = "http://localhost:11434"
	defaultTimeout = 120 * time.Second // Longer timeout for local models
	defaultModel   = "llama3.1"
)

// Client implements the LLM client interface for Ollama
type Client struct {
	options    llm.ClientOptions
	httpClient *http.Client
}

// ollamaToolCall is a tool call in Ollama's native format: arguments
// arrive as a decoded object rather than a JSON string.
type ollamaToolCall struct {
	Function struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments"`
	} `json:"function"`
}

type ollamaMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
}

type ollamaRequest struct {
	Model    string                   `json:"model"`
	Messages []ollamaMessage          `json:"messages"`
	Stream   bool                     `json:"stream"`
	Tools    []map[string]interface{} `json:"tools,omitempty"`
	Options  map[string]interface{}   `json:"options,omitempty"`
}

type ollamaResponse struct {
	Model           string        `json:"model"`
	CreatedAt       time.Time     `json:"created_at"`
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	PromptEvalCount int           `json:"prompt_eval_count,omitempty"`
	EvalCount       int           `json:"eval_count,omitempty"`
}

// NewClient creates a new Ollama client
func NewClient(opts ...llm.ClientOption) (*Client, error) {
	options := llm.ClientOptions{
		BaseURL:      defaultBaseURL,
		Timeout:      defaultTimeout,
		DefaultModel: defaultModel,
	}

	for _, opt := range opts {
		opt(&options)
	}

	if url := os.Getenv("OLLAMA_HOST"); url != "" && options.BaseURL == defaultBaseURL {
		options.BaseURL = url
	}

	return &Client{
		options:    options,
		httpClient: &http.Client{Timeout: options.Timeout},
	}, nil
}

// Chat sends a chat request to Ollama
func (c *Client) Chat(ctx context.Context, request *llm.ChatRequest) (*llm.ChatResponse, error) {
	if request.Model == "" {
		request.Model = c.options.DefaultModel
	}

	ollamaReq := c.buildRequest(request)

	body, err := json.Marshal(ollamaReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.options.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Ollama API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var ollamaResp ollamaResponse
	if err := json.Unmarshal(respBody, &ollamaResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return c.convertResponse(&ollamaResp), nil
}

// ListModels returns locally available Ollama models
func (c *Client) ListModels(ctx context.Context) ([]llm.Model, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.options.BaseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Ollama API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Models []struct {
			Name       string    `json:"name"`
			ModifiedAt time.Time `json:"modified_at"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	models := make([]llm.Model, 0, len(response.Models))
	for _, m := range response.Models {
		models = append(models, llm.Model{
			ID:      m.Name,
			Object:  "model",
			Created: m.ModifiedAt.Unix(),
			OwnedBy: "ollama",
		})
	}
	return models, nil
}

// Close cleans up resources
func (c *Client) Close() error {
	return nil
}

// buildRequest converts the generic chat request into Ollama's format
func (c *Client) buildRequest(request *llm.ChatRequest) *ollamaRequest {
	messages := make([]ollamaMessage, 0, len(request.Messages))
	for _, msg := range request.Messages {
		om := ollamaMessage{
			Role:    string(msg.Role),
			Content: msg.Text(),
		}
		for _, tc := range msg.ToolCalls {
			var otc ollamaToolCall
			otc.Function.Name = tc.Function.Name
			args, _ := llm.NormalizeToolArguments(tc.Function.Arguments)
			otc.Function.Arguments = args
			om.ToolCalls = append(om.ToolCalls, otc)
		}
		messages = append(messages, om)
	}

	options := make(map[string]interface{})
	if request.Temperature > 0 {
		options["temperature"] = request.Temperature
	}
	if request.MaxTokens > 0 {
		options["num_predict"] = request.MaxTokens
	}

	return &ollamaRequest{
		Model:    request.Model,
		Messages: messages,
		Stream:   false,
		Tools:    request.Tools,
		Options:  options,
	}
}

// convertResponse converts Ollama's response into the generic format
func (c *Client) convertResponse(resp *ollamaResponse) *llm.ChatResponse {
	message := llm.Message{
		Role:    llm.Role(resp.Message.Role),
		Content: llm.StringPtr(resp.Message.Content),
	}

	for i, tc := range resp.Message.ToolCalls {
		args, err := json.Marshal(tc.Function.Arguments)
		if err != nil {
			args = []byte("{}")
		}
		message.ToolCalls = append(message.ToolCalls, llm.ToolCall{
			// Ollama does not assign call IDs; synthesize stable ones.
			ID:   fmt.Sprintf("call_%d", i),
			Type: "function",
			Function: llm.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: args,
			},
		})
	}

	finishReason := "stop"
	if len(message.ToolCalls) > 0 {
		finishReason = "tool_calls"
	}

	return &llm.ChatResponse{
		Model:   resp.Model,
		Created: resp.CreatedAt.Unix(),
		Choices: []llm.Choice{{
			Index:        0,
			Message:      message,
			FinishReason: finishReason,
		}},
		Usage: &llm.Usage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		},
	}
}
