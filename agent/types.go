package agent

import (
	"encoding/json"
)

// Config contains agent configuration
type Config struct {
	Model         string
	SystemPrompt  string
	MaxIterations int
	Temperature   float32
	MaxTokens     int
}

// DefaultConfig returns a default agent configuration
func DefaultConfig() Config {
	return Config{
		SystemPrompt:  defaultSystemPrompt,
		MaxIterations: 10,
		Temperature:   0.7,
		MaxTokens:     2048,
	}
}

const defaultSystemPrompt = "You are a helpful assistant with access to news tools. You can help users search for and analyze news content."

// ToolCallInfo is one requested tool invocation, as reported to clients.
// Args is the normalized JSON object form of the model's arguments.
type ToolCallInfo struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
	ID   string          `json:"id"`
}

// Response is the result of a non-streaming turn.
type Response struct {
	Content   string
	ToolCalls []ToolCallInfo
}

// StepType classifies one entry in a turn's reasoning trace.
type StepType string

const (
	StepReasoning     StepType = "reasoning"
	StepToolCall      StepType = "tool_call"
	StepToolResponse  StepType = "tool_response"
	StepFinalResponse StepType = "final_response"
)

// Step is one entry in the reasoning trace. Only the fields relevant to
// the step type are populated.
type Step struct {
	Number   int             `json:"step"`
	Type     StepType        `json:"type"`
	Content  string          `json:"content"`
	ToolName string          `json:"tool_name,omitempty"`
	Args     json.RawMessage `json:"args,omitempty"`
	Response string          `json:"response,omitempty"`
}

// EventType is the discriminator on streamed turn events.
type EventType string

const (
	EventThinking      EventType = "thinking"
	EventReasoningStep EventType = "reasoning_step"
	EventFinalComplete EventType = "final_complete"
	EventError         EventType = "error"
)

// Event is a tagged record streamed to the client during a turn. Which
// fields are populated depends on Type; MarshalJSON emits only the
// fields each variant carries on the wire.
type Event struct {
	Type           EventType
	Content        string
	Step           *Step
	Response       string
	ReasoningSteps []Step
	ToolCalls      []ToolCallInfo
	Error          string
}

func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case EventThinking:
		return json.Marshal(struct {
			Type    EventType `json:"type"`
			Content string    `json:"content"`
		}{e.Type, e.Content})

	case EventReasoningStep:
		return json.Marshal(struct {
			Type EventType `json:"type"`
			Step *Step     `json:"step"`
		}{e.Type, e.Step})

	case EventFinalComplete:
		steps := e.ReasoningSteps
		if steps == nil {
			steps = []Step{}
		}
		calls := e.ToolCalls
		if calls == nil {
			calls = []ToolCallInfo{}
		}
		return json.Marshal(struct {
			Response       string         `json:"response"`
			ReasoningSteps []Step         `json:"reasoning_steps"`
			ToolCalls      []ToolCallInfo `json:"tool_calls"`
			Type           EventType      `json:"type"`
		}{e.Response, steps, calls, e.Type})

	default:
		return json.Marshal(struct {
			Error string    `json:"error"`
			Type  EventType `json:"type"`
		}{e.Error, e.Type})
	}
}

// Info describes the running agent for the info endpoint.
type Info struct {
	Model       string
	Temperature float32
	MaxTokens   int
}
