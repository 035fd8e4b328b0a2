package llm

import (
	"encoding/json"
	"strings"
)

// ResponseKey is where the raw text lands when extraction cannot produce a
// structured mapping. Downstream consumers read it for diagnostics.
const ResponseKey = "response"

// ExtractJSON pulls a JSON object out of free-form model output.
//
// Precedence: a ```json fenced block, then any generic ``` fenced block,
// then the whole text. If the candidate does not parse as a JSON object the
// raw text is returned under ResponseKey with ok=false. ExtractJSON never
// fails; malformed output degrades to the sentinel mapping.
func ExtractJSON(raw string) (map[string]interface{}, bool) {
	candidate := raw
	if idx := strings.Index(raw, "```json"); idx >= 0 {
		rest := raw[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			candidate = rest[:end]
		} else {
			candidate = rest
		}
	} else if idx := strings.Index(raw, "```"); idx >= 0 {
		rest := raw[idx+len("```"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			candidate = rest[:end]
		} else {
			candidate = rest
		}
	}
	candidate = strings.TrimSpace(candidate)

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		return map[string]interface{}{ResponseKey: raw}, false
	}
	return parsed, true
}
