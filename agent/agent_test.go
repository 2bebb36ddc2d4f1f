package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/nvaldez/news-agent-go/llm"
	"github.com/nvaldez/news-agent-go/tools"
	"github.com/nvaldez/news-agent-go/tools/base"
	"github.com/nvaldez/news-agent-go/tools/registry"
)

// scriptedClient returns canned responses in order and records every
// request it receives.
type scriptedClient struct {
	responses []*llm.ChatResponse
	err       error
	requests  []*llm.ChatRequest
}

func (c *scriptedClient) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	c.requests = append(c.requests, req)
	if c.err != nil {
		return nil, c.err
	}
	if len(c.responses) == 0 {
		return nil, fmt.Errorf("scripted client exhausted")
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	return resp, nil
}

func (c *scriptedClient) ListModels(ctx context.Context) ([]llm.Model, error) { return nil, nil }
func (c *scriptedClient) Close() error                                        { return nil }

func assistantText(text string) *llm.ChatResponse {
	return &llm.ChatResponse{
		Choices: []llm.Choice{{
			Message:      llm.Message{Role: llm.RoleAssistant, Content: llm.StringPtr(text)},
			FinishReason: "stop",
		}},
	}
}

func assistantToolCalls(calls ...llm.ToolCall) *llm.ChatResponse {
	return &llm.ChatResponse{
		Choices: []llm.Choice{{
			Message:      llm.Message{Role: llm.RoleAssistant, ToolCalls: calls},
			FinishReason: "tool_calls",
		}},
	}
}

func toolCall(id, name, args string) llm.ToolCall {
	return llm.ToolCall{
		ID:       id,
		Type:     "function",
		Function: llm.FunctionCall{Name: name, Arguments: json.RawMessage(args)},
	}
}

type fakeNewsParams struct {
	Query string `json:"query" schema:"required" description:"search query"`
}

// fakeNewsTool returns a fixed result, or an error text like the real
// news tools do on fetch failure.
type fakeNewsTool struct {
	base.BaseTool
	result string
}

func (t *fakeNewsTool) Parameters() interface{} { return &fakeNewsParams{} }

func (t *fakeNewsTool) Execute(ctx context.Context, params json.RawMessage) (string, error) {
	return t.result, nil
}

func newTestRegistry(t *testing.T, result string) *registry.Registry {
	t.Helper()
	r := registry.New()
	err := r.Register("get_headlines", func() tools.Tool {
		return &fakeNewsTool{
			BaseTool: base.BaseTool{ToolName: "get_headlines", ToolDesc: "search headlines"},
			result:   result,
		}
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return r
}

func newTestAgent(client llm.Client, reg *registry.Registry) *Agent {
	cfg := DefaultConfig()
	cfg.Model = "test-model"
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(client, reg, cfg, logger)
}

func collect(events <-chan Event) []Event {
	var out []Event
	for e := range events {
		out = append(out, e)
	}
	return out
}

func TestRunImmediateAnswer(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatResponse{assistantText("Nothing to report.")}}
	a := newTestAgent(client, newTestRegistry(t, "[]"))

	resp, err := a.Run(context.Background(), "any news?")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if resp.Content != "Nothing to report." {
		t.Fatalf("unexpected content: %q", resp.Content)
	}
	if len(resp.ToolCalls) != 0 {
		t.Fatalf("expected no tool calls, got %d", len(resp.ToolCalls))
	}

	// History starts as [system, user].
	if len(client.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(client.requests))
	}
	msgs := client.requests[0].Messages
	if len(msgs) != 2 || msgs[0].Role != llm.RoleSystem || msgs[1].Role != llm.RoleUser {
		t.Fatalf("unexpected seed history: %+v", msgs)
	}
	if msgs[1].Text() != "any news?" {
		t.Fatalf("unexpected user message: %q", msgs[1].Text())
	}
}

func TestRunToolRoundTrip(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatResponse{
		assistantToolCalls(toolCall("call_1", "get_headlines", `{"query":"Tesla"}`)),
		assistantText("Tesla is in the news."),
	}}
	a := newTestAgent(client, newTestRegistry(t, `[{"story_id":"urn:1","headline":"Tesla shares jump"}]`))

	resp, err := a.Run(context.Background(), "What is happening with Tesla")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if resp.Content != "Tesla is in the news." {
		t.Fatalf("unexpected content: %q", resp.Content)
	}
	if len(resp.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(resp.ToolCalls))
	}
	if resp.ToolCalls[0].Name != "get_headlines" || resp.ToolCalls[0].ID != "call_1" {
		t.Fatalf("unexpected tool call: %+v", resp.ToolCalls[0])
	}

	// Second request carries the assistant tool-call message plus one
	// tool message referencing it.
	if len(client.requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(client.requests))
	}
	msgs := client.requests[1].Messages
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(msgs))
	}
	if msgs[2].Role != llm.RoleAssistant || len(msgs[2].ToolCalls) != 1 {
		t.Fatalf("expected assistant tool-call message, got %+v", msgs[2])
	}
	toolMsg := msgs[3]
	if toolMsg.Role != llm.RoleTool || toolMsg.ToolCallID != "call_1" {
		t.Fatalf("expected tool message for call_1, got %+v", toolMsg)
	}
	if !strings.Contains(toolMsg.Text(), "Tesla shares jump") {
		t.Fatalf("tool result not in history: %q", toolMsg.Text())
	}
}

func TestRunMultipleToolCallsKeepOrder(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatResponse{
		assistantToolCalls(
			toolCall("call_a", "get_headlines", `{"query":"Tesla"}`),
			toolCall("call_b", "get_headlines", `{"query":"Ford"}`),
			toolCall("call_c", "get_headlines", `{"query":"GM"}`),
		),
		assistantText("done"),
	}}
	a := newTestAgent(client, newTestRegistry(t, "[]"))

	resp, err := a.Run(context.Background(), "compare carmakers")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(resp.ToolCalls) != 3 {
		t.Fatalf("expected 3 tool calls, got %d", len(resp.ToolCalls))
	}

	msgs := client.requests[1].Messages
	wantIDs := []string{"call_a", "call_b", "call_c"}
	toolMsgs := msgs[len(msgs)-3:]
	for i, m := range toolMsgs {
		if m.Role != llm.RoleTool {
			t.Fatalf("message %d: expected tool role, got %s", i, m.Role)
		}
		if m.ToolCallID != wantIDs[i] {
			t.Fatalf("tool results out of order: expected %s at %d, got %s", wantIDs[i], i, m.ToolCallID)
		}
	}
}

func TestRunToolFailureTextVisibleToModel(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatResponse{
		assistantToolCalls(toolCall("call_1", "get_headlines", `{"query":"Tesla"}`)),
		assistantText("The news service is unavailable."),
	}}
	a := newTestAgent(client, newTestRegistry(t, "Error fetching news: connection refused"))

	if _, err := a.Run(context.Background(), "tesla news"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	msgs := client.requests[1].Messages
	toolMsg := msgs[len(msgs)-1]
	if !strings.HasPrefix(toolMsg.Text(), "Error fetching news:") {
		t.Fatalf("expected failure text in history, got %q", toolMsg.Text())
	}
}

func TestRunMaxIterations(t *testing.T) {
	// The model asks for a tool on every round and never answers.
	var responses []*llm.ChatResponse
	for i := 0; i < 20; i++ {
		responses = append(responses, assistantToolCalls(
			toolCall(fmt.Sprintf("call_%d", i), "get_headlines", `{"query":"x"}`),
		))
	}
	client := &scriptedClient{responses: responses}
	a := newTestAgent(client, newTestRegistry(t, "[]"))

	_, err := a.Run(context.Background(), "loop forever")
	if err == nil {
		t.Fatalf("expected max-iterations error")
	}
	if !strings.Contains(err.Error(), "max iterations") {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.requests) != 10 {
		t.Fatalf("expected 10 requests, got %d", len(client.requests))
	}
}

func TestRunStreamEventOrder(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatResponse{
		assistantToolCalls(toolCall("call_1", "get_headlines", `{"query":"Tesla"}`)),
		assistantText("Tesla shares jumped today."),
	}}
	a := newTestAgent(client, newTestRegistry(t, `[{"story_id":"urn:1","headline":"Tesla shares jump"}]`))

	events := collect(a.RunStream(context.Background(), "What is happening with Tesla"))

	wantTypes := []EventType{
		EventThinking,
		EventReasoningStep, // reasoning
		EventReasoningStep, // tool_call
		EventReasoningStep, // tool_response
		EventReasoningStep, // final_response
		EventFinalComplete,
	}
	if len(events) != len(wantTypes) {
		t.Fatalf("expected %d events, got %d: %+v", len(wantTypes), len(events), events)
	}
	for i, want := range wantTypes {
		if events[i].Type != want {
			t.Fatalf("event %d: expected %s, got %s", i, want, events[i].Type)
		}
	}

	wantStepTypes := []StepType{StepReasoning, StepToolCall, StepToolResponse, StepFinalResponse}
	for i, want := range wantStepTypes {
		step := events[i+1].Step
		if step == nil || step.Type != want {
			t.Fatalf("step %d: expected %s, got %+v", i, want, step)
		}
	}
	if events[2].Step.ToolName != "get_headlines" {
		t.Fatalf("unexpected tool name: %q", events[2].Step.ToolName)
	}

	final := events[len(events)-1]
	if final.Response != "Tesla shares jumped today." {
		t.Fatalf("unexpected final response: %q", final.Response)
	}
	if len(final.ToolCalls) != 1 || final.ToolCalls[0].Name != "get_headlines" {
		t.Fatalf("unexpected tool calls: %+v", final.ToolCalls)
	}
	if len(final.ReasoningSteps) != 4 {
		t.Fatalf("expected 4 recorded steps, got %d", len(final.ReasoningSteps))
	}
}

func TestRunStreamTruncatesDisplayOnly(t *testing.T) {
	long := strings.Repeat("a", 350)
	client := &scriptedClient{responses: []*llm.ChatResponse{
		assistantToolCalls(toolCall("call_1", "get_headlines", `{"query":"x"}`)),
		assistantText("summarized"),
	}}
	a := newTestAgent(client, newTestRegistry(t, long))

	events := collect(a.RunStream(context.Background(), "long result"))

	var toolResponse *Step
	for _, e := range events {
		if e.Type == EventReasoningStep && e.Step.Type == StepToolResponse {
			toolResponse = e.Step
		}
	}
	if toolResponse == nil {
		t.Fatalf("no tool_response step emitted")
	}
	if len(toolResponse.Response) != displayLimit+3 || !strings.HasSuffix(toolResponse.Response, "...") {
		t.Fatalf("expected capped display text, got %d chars", len(toolResponse.Response))
	}

	// The conversation history carries the full text.
	msgs := client.requests[1].Messages
	if msgs[len(msgs)-1].Text() != long {
		t.Fatalf("history text was truncated")
	}
}

func TestRunStreamEmptyAnswerApologizes(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatResponse{assistantText("")}}
	a := newTestAgent(client, newTestRegistry(t, "[]"))

	events := collect(a.RunStream(context.Background(), "hello"))

	final := events[len(events)-1]
	if final.Type != EventFinalComplete {
		t.Fatalf("expected final_complete, got %s", final.Type)
	}
	if final.Response != apologyFallback {
		t.Fatalf("expected apology fallback, got %q", final.Response)
	}
	// An empty answer produces no final_response step.
	for _, e := range events {
		if e.Type == EventReasoningStep && e.Step.Type == StepFinalResponse {
			t.Fatalf("unexpected final_response step for empty answer")
		}
	}
}

func TestRunStreamModelFailure(t *testing.T) {
	client := &scriptedClient{err: fmt.Errorf("connection reset")}
	a := newTestAgent(client, newTestRegistry(t, "[]"))

	events := collect(a.RunStream(context.Background(), "hello"))

	if len(events) != 2 {
		t.Fatalf("expected thinking then error, got %d events", len(events))
	}
	if events[0].Type != EventThinking || events[1].Type != EventError {
		t.Fatalf("unexpected event sequence: %+v", events)
	}
	if !strings.HasPrefix(events[1].Error, "Chat error:") {
		t.Fatalf("unexpected error text: %q", events[1].Error)
	}
}

func TestRunStreamStepNumbering(t *testing.T) {
	client := &scriptedClient{responses: []*llm.ChatResponse{
		assistantToolCalls(toolCall("call_1", "get_headlines", `{"query":"Tesla"}`)),
		assistantText("answer"),
	}}
	a := newTestAgent(client, newTestRegistry(t, "[]"))

	events := collect(a.RunStream(context.Background(), "numbering"))

	final := events[len(events)-1]
	// reasoning=1, tool_call=2, tool_response=4 (the round itself takes
	// slot 3), final_response=5.
	wantNumbers := []int{1, 2, 4, 5}
	if len(final.ReasoningSteps) != len(wantNumbers) {
		t.Fatalf("expected %d steps, got %d", len(wantNumbers), len(final.ReasoningSteps))
	}
	for i, want := range wantNumbers {
		if final.ReasoningSteps[i].Number != want {
			t.Fatalf("step %d: expected number %d, got %d", i, want, final.ReasoningSteps[i].Number)
		}
	}
}

func TestRunStreamCancelledContextStopsDelivery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &scriptedClient{responses: []*llm.ChatResponse{assistantText("hi")}}
	a := newTestAgent(client, newTestRegistry(t, "[]"))

	drained := false
	// Channel capacity may hold a few events; the turn must still end
	// and close the channel without blocking.
	for range a.RunStream(ctx, "hello") {
		drained = true
	}
	_ = drained
}

func TestEventMarshalShapes(t *testing.T) {
	thinking, err := json.Marshal(Event{Type: EventThinking, Content: thinkingContent})
	if err != nil {
		t.Fatalf("marshal thinking: %v", err)
	}
	if string(thinking) != `{"type":"thinking","content":"🤔 AI is analyzing your request..."}` {
		t.Fatalf("unexpected thinking payload: %s", thinking)
	}

	final, err := json.Marshal(Event{Type: EventFinalComplete, Response: "hi"})
	if err != nil {
		t.Fatalf("marshal final: %v", err)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(final, &decoded); err != nil {
		t.Fatalf("decode final: %v", err)
	}
	for _, key := range []string{"response", "reasoning_steps", "tool_calls", "type"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("final_complete missing %q: %s", key, final)
		}
	}
	if string(decoded["reasoning_steps"]) != "[]" || string(decoded["tool_calls"]) != "[]" {
		t.Fatalf("empty collections must marshal as []: %s", final)
	}

	errEvent, err := json.Marshal(Event{Type: EventError, Error: "Chat error: boom"})
	if err != nil {
		t.Fatalf("marshal error event: %v", err)
	}
	if string(errEvent) != `{"error":"Chat error: boom","type":"error"}` {
		t.Fatalf("unexpected error payload: %s", errEvent)
	}
}
