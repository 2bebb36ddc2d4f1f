package llm

import (
	"context"
)

// Client defines the interface for LLM providers. The gateway treats the
// model as an opaque capability: given a message history and a tool
// catalog, it produces either a final answer or a set of tool-call
// requests.
type Client interface {
	// Chat sends a chat request and returns the response
	Chat(ctx context.Context, request *ChatRequest) (*ChatResponse, error)

	// ListModels returns available models
	ListModels(ctx context.Context) ([]Model, error)

	// Close cleans up any resources
	Close() error
}

// Model represents an available model
type Model struct {
	ID          string `json:"id"`
	Object      string `json:"object"`
	Created     int64  `json:"created"`
	OwnedBy     string `json:"owned_by"`
	Description string `json:"description,omitempty"`
}
