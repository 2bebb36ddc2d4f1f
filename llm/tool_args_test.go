package llm

import (
	"encoding/json"
	"testing"
)

func TestNormalizeToolArguments_Object(t *testing.T) {
	args, normalized := NormalizeToolArguments(json.RawMessage(`{"query":"Tesla","limit":5}`))

	if args["query"] != "Tesla" {
		t.Fatalf("expected query=Tesla, got %v", args["query"])
	}
	if _, ok := args["limit"]; !ok {
		t.Fatalf("expected limit key in args")
	}

	var check map[string]interface{}
	if err := json.Unmarshal(normalized, &check); err != nil {
		t.Fatalf("normalized args is not valid JSON object: %v", err)
	}
	if check["query"] != "Tesla" {
		t.Fatalf("expected normalized query=Tesla, got %v", check["query"])
	}
}

func TestNormalizeToolArguments_QuotedJSONObject(t *testing.T) {
	raw := json.RawMessage(`"{\"query\":\"Tesla\"}"`)
	args, normalized := NormalizeToolArguments(raw)

	if args["query"] != "Tesla" {
		t.Fatalf("expected parsed query=Tesla, got %v", args["query"])
	}
	if string(normalized) != `{"query":"Tesla"}` {
		t.Fatalf("unexpected normalized value: %s", string(normalized))
	}
}

func TestNormalizeToolArguments_InvalidReturnsEmptyObject(t *testing.T) {
	args, normalized := NormalizeToolArguments(json.RawMessage(`not-json`))

	if len(args) != 0 {
		t.Fatalf("expected empty args for invalid input, got %v", args)
	}
	if string(normalized) != "{}" {
		t.Fatalf("expected normalized {} for invalid input, got %s", string(normalized))
	}
}

func TestNormalizeToolArguments_NonObjectReturnsEmptyObject(t *testing.T) {
	args, normalized := NormalizeToolArguments(json.RawMessage(`["not","an","object"]`))

	if len(args) != 0 {
		t.Fatalf("expected empty args for non-object input, got %v", args)
	}
	if string(normalized) != "{}" {
		t.Fatalf("expected normalized {} for non-object input, got %s", string(normalized))
	}
}
