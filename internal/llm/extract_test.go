package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSONFencedBlock(t *testing.T) {
	raw := "Here is the plan:\n```json\n{\"destination\": \"Lisbon\"}\n```\nEnjoy!"
	parsed, ok := ExtractJSON(raw)
	assert.True(t, ok)
	assert.Equal(t, "Lisbon", parsed["destination"])
}

func TestExtractJSONGenericFence(t *testing.T) {
	raw := "```\n{\"total\": 900}\n```"
	parsed, ok := ExtractJSON(raw)
	assert.True(t, ok)
	assert.Equal(t, 900.0, parsed["total"])
}

func TestExtractJSONPrefersJSONFence(t *testing.T) {
	raw := "```\nnot json\n```\n```json\n{\"a\": 1}\n```"
	parsed, ok := ExtractJSON(raw)
	assert.True(t, ok)
	assert.Equal(t, 1.0, parsed["a"])
}

func TestExtractJSONBareObject(t *testing.T) {
	parsed, ok := ExtractJSON(`  {"safety_level": "Low"}  `)
	assert.True(t, ok)
	assert.Equal(t, "Low", parsed["safety_level"])
}

func TestExtractJSONUnterminatedFence(t *testing.T) {
	parsed, ok := ExtractJSON("```json\n{\"a\": true}")
	assert.True(t, ok)
	assert.Equal(t, true, parsed["a"])
}

func TestExtractJSONSentinelOnProse(t *testing.T) {
	raw := "You should definitely visit Bali in June."
	parsed, ok := ExtractJSON(raw)
	assert.False(t, ok)
	assert.Equal(t, raw, parsed[ResponseKey])
}

func TestExtractJSONSentinelOnArray(t *testing.T) {
	raw := `[1, 2, 3]`
	parsed, ok := ExtractJSON(raw)
	assert.False(t, ok)
	assert.Equal(t, raw, parsed[ResponseKey])
}
