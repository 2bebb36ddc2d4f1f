package llm

import (
	"bytes"
	"encoding/json"
)

var emptyToolArgs = json.RawMessage(`{}`)

// NormalizeToolArguments converts raw tool-call arguments into a canonical
// JSON object plus its decoded map form. Providers are inconsistent here:
// some send a JSON object, some send a JSON-encoded string containing an
// object, and some send null. Anything that does not decode to an object
// is normalized to an empty one so downstream code never has to branch.
func NormalizeToolArguments(raw json.RawMessage) (map[string]interface{}, json.RawMessage) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return map[string]interface{}{}, emptyToolArgs
	}

	// Unquote once when the provider stringified the object.
	if trimmed[0] == '"' {
		var unquoted string
		if err := json.Unmarshal(trimmed, &unquoted); err != nil {
			return map[string]interface{}{}, emptyToolArgs
		}
		trimmed = bytes.TrimSpace([]byte(unquoted))
		if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
			return map[string]interface{}{}, emptyToolArgs
		}
	}

	var v interface{}
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return map[string]interface{}{}, emptyToolArgs
	}

	args, ok := v.(map[string]interface{})
	if !ok {
		return map[string]interface{}{}, emptyToolArgs
	}

	normalized, err := json.Marshal(args)
	if err != nil || len(normalized) == 0 {
		return map[string]interface{}{}, emptyToolArgs
	}

	return args, json.RawMessage(normalized)
}
