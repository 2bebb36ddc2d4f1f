// Package agent runs one user turn through the model's reasoning loop:
// ask the model, execute any tools it requests, feed the results back,
// repeat until the model answers in plain text.
package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nvaldez/news-agent-go/llm"
	"github.com/nvaldez/news-agent-go/tools"
	"github.com/nvaldez/news-agent-go/tools/registry"
)

const (
	thinkingContent = "🤔 AI is analyzing your request..."
	apologyFallback = "I apologize, but I wasn't able to generate a response."

	// displayLimit caps the tool response text shown in streamed steps.
	// The full text still goes back into the conversation history.
	displayLimit = 200
)

// Agent drives a tool-augmented reasoning loop over an LLM client and a
// tool registry. It keeps no state between turns; every turn starts from
// a fresh [system, user] history.
type Agent struct {
	client   llm.Client
	registry *registry.Registry
	config   Config
	logger   *slog.Logger
}

// New creates an agent over the given client and registry.
func New(client llm.Client, reg *registry.Registry, config Config, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxIterations <= 0 {
		config.MaxIterations = DefaultConfig().MaxIterations
	}
	if config.SystemPrompt == "" {
		config.SystemPrompt = defaultSystemPrompt
	}
	return &Agent{
		client:   client,
		registry: reg,
		config:   config,
		logger:   logger,
	}
}

// Info describes the agent's model settings.
func (a *Agent) Info() Info {
	return Info{
		Model:       a.config.Model,
		Temperature: a.config.Temperature,
		MaxTokens:   a.config.MaxTokens,
	}
}

// Tools lists the registered tools by name and description.
func (a *Agent) Tools() []registry.Descriptor {
	return a.registry.Descriptors()
}

// Run executes one turn and returns the final answer along with every
// tool call the model made on the way there.
func (a *Agent) Run(ctx context.Context, message string) (*Response, error) {
	messages := a.seedHistory(message)
	schemas := a.registry.GetAllSchemas()

	calls := []ToolCallInfo{}

	for iteration := 0; iteration < a.config.MaxIterations; iteration++ {
		response, err := a.client.Chat(ctx, a.chatRequest(messages, schemas))
		if err != nil {
			return nil, fmt.Errorf("model request failed: %w", err)
		}
		if len(response.Choices) == 0 {
			return nil, fmt.Errorf("model returned no choices")
		}

		assistant := response.Choices[0].Message
		messages = append(messages, assistant)

		if len(assistant.ToolCalls) == 0 {
			return &Response{Content: assistant.Text(), ToolCalls: calls}, nil
		}

		toolCalls := make([]tools.ToolCall, len(assistant.ToolCalls))
		for i, tc := range assistant.ToolCalls {
			_, args := llm.NormalizeToolArguments(tc.Function.Arguments)
			toolCalls[i] = tools.ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: args,
			}
			calls = append(calls, ToolCallInfo{
				Name: tc.Function.Name,
				Args: args,
				ID:   tc.ID,
			})
		}

		messages = append(messages, a.executeTools(ctx, toolCalls)...)
	}

	return nil, fmt.Errorf("max iterations (%d) reached without completion", a.config.MaxIterations)
}

// RunStream executes one turn and emits the event sequence clients
// consume over the socket. The channel closes when the turn ends. If ctx
// is cancelled mid-turn, the current step completes but no further
// events are delivered.
func (a *Agent) RunStream(ctx context.Context, message string) <-chan Event {
	events := make(chan Event, 16)

	go func() {
		defer close(events)

		if !a.emit(ctx, events, Event{Type: EventThinking, Content: thinkingContent}) {
			return
		}

		messages := a.seedHistory(message)
		schemas := a.registry.GetAllSchemas()

		steps := []Step{}
		calls := []ToolCallInfo{}
		counter := 0
		finalResponse := ""

		for iteration := 0; iteration < a.config.MaxIterations; iteration++ {
			response, err := a.client.Chat(ctx, a.chatRequest(messages, schemas))
			if err != nil {
				a.logger.Error("model request failed", "error", err)
				a.emit(ctx, events, Event{Type: EventError, Error: fmt.Sprintf("Chat error: %v", err)})
				return
			}
			if len(response.Choices) == 0 {
				a.emit(ctx, events, Event{Type: EventError, Error: "Chat error: model returned no choices"})
				return
			}

			assistant := response.Choices[0].Message
			messages = append(messages, assistant)
			counter++

			if len(assistant.ToolCalls) > 0 {
				step := Step{
					Number:  counter,
					Type:    StepReasoning,
					Content: fmt.Sprintf("AI is planning to use %d tool(s)", len(assistant.ToolCalls)),
				}
				steps = append(steps, step)
				if !a.emitStep(ctx, events, step) {
					return
				}

				toolCalls := make([]tools.ToolCall, len(assistant.ToolCalls))
				for i, tc := range assistant.ToolCalls {
					_, args := llm.NormalizeToolArguments(tc.Function.Arguments)
					toolCalls[i] = tools.ToolCall{
						ID:        tc.ID,
						Name:      tc.Function.Name,
						Arguments: args,
					}
					calls = append(calls, ToolCallInfo{
						Name: tc.Function.Name,
						Args: args,
						ID:   tc.ID,
					})

					counter++
					step := Step{
						Number:   counter,
						Type:     StepToolCall,
						ToolName: tc.Function.Name,
						Content:  fmt.Sprintf("Calling tool: %s", tc.Function.Name),
						Args:     args,
					}
					steps = append(steps, step)
					if !a.emitStep(ctx, events, step) {
						return
					}
				}

				results := a.registry.ExecuteToolCalls(ctx, toolCalls)

				// Each result round occupies its own slot in the step
				// numbering, so individual responses start at counter+2.
				counter++
				for _, result := range results {
					content := result.Result
					if result.Error != nil {
						content = fmt.Sprintf("Error: %v", result.Error)
					}

					counter++
					step := Step{
						Number:   counter,
						Type:     StepToolResponse,
						Content:  "Tool response received",
						Response: truncateForDisplay(content),
					}
					steps = append(steps, step)
					if !a.emitStep(ctx, events, step) {
						return
					}

					messages = append(messages, llm.Message{
						Role:       llm.RoleTool,
						Content:    llm.StringPtr(content),
						ToolCallID: result.ID,
						Name:       result.Name,
					})
				}
				continue
			}

			if text := assistant.Text(); text != "" {
				finalResponse = text
				step := Step{
					Number:  counter,
					Type:    StepFinalResponse,
					Content: "AI has generated final response",
				}
				steps = append(steps, step)
				if !a.emitStep(ctx, events, step) {
					return
				}
			}

			if finalResponse == "" {
				finalResponse = apologyFallback
			}
			a.emit(ctx, events, Event{
				Type:           EventFinalComplete,
				Response:       finalResponse,
				ReasoningSteps: steps,
				ToolCalls:      calls,
			})
			return
		}

		a.emit(ctx, events, Event{
			Type:  EventError,
			Error: fmt.Sprintf("Chat error: max iterations (%d) reached", a.config.MaxIterations),
		})
	}()

	return events
}

// executeTools runs the calls and converts each result into a tool-role
// message. Results come back in request order.
func (a *Agent) executeTools(ctx context.Context, toolCalls []tools.ToolCall) []llm.Message {
	results := a.registry.ExecuteToolCalls(ctx, toolCalls)

	messages := make([]llm.Message, 0, len(results))
	for _, result := range results {
		content := result.Result
		if result.Error != nil {
			content = fmt.Sprintf("Error: %v", result.Error)
		}
		messages = append(messages, llm.Message{
			Role:       llm.RoleTool,
			Content:    llm.StringPtr(content),
			ToolCallID: result.ID,
			Name:       result.Name,
		})
	}
	return messages
}

func (a *Agent) seedHistory(message string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: llm.StringPtr(a.config.SystemPrompt)},
		{Role: llm.RoleUser, Content: llm.StringPtr(message)},
	}
}

func (a *Agent) chatRequest(messages []llm.Message, schemas []map[string]interface{}) *llm.ChatRequest {
	return &llm.ChatRequest{
		Model:       a.config.Model,
		Messages:    messages,
		Temperature: a.config.Temperature,
		MaxTokens:   a.config.MaxTokens,
		Tools:       schemas,
		ToolChoice:  "auto",
	}
}

func (a *Agent) emitStep(ctx context.Context, events chan<- Event, step Step) bool {
	return a.emit(ctx, events, Event{Type: EventReasoningStep, Step: &step})
}

// emit delivers an event unless the context is done. Returns false when
// delivery was abandoned.
func (a *Agent) emit(ctx context.Context, events chan<- Event, event Event) bool {
	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

// truncateForDisplay caps text at displayLimit characters for streamed
// steps, marking the cut with an ellipsis.
func truncateForDisplay(s string) string {
	runes := []rune(s)
	if len(runes) <= displayLimit {
		return s
	}
	return string(runes[:displayLimit]) + "..."
}
