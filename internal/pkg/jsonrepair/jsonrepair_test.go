package jsonrepair

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeMap(t *testing.T, raw json.RawMessage) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func TestDecodeObjectValidInputUntouched(t *testing.T) {
	raw, ok := DecodeObject(`{"a": 1, "b": [1, 2]}`)
	require.True(t, ok)

	m := decodeMap(t, raw)
	assert.Equal(t, float64(1), m["a"])
	assert.Equal(t, []any{float64(1), float64(2)}, m["b"])
}

func TestDecodeObjectTrailingComma(t *testing.T) {
	raw, ok := DecodeObject(`{"a": 1, "b": [1,2,]}`)
	require.True(t, ok)

	m := decodeMap(t, raw)
	assert.Equal(t, float64(1), m["a"])
	assert.Equal(t, []any{float64(1), float64(2)}, m["b"])
}

func TestDecodeObjectStripsFences(t *testing.T) {
	text := "```json\n{\"total_estimated_savings\": 750.5}\n```"
	raw, ok := DecodeObject(text)
	require.True(t, ok)
	assert.Equal(t, 750.5, decodeMap(t, raw)["total_estimated_savings"])
}

func TestDecodeObjectEmbeddedInProse(t *testing.T) {
	text := `Sure! Here is the analysis you asked for:

{"key_insights": ["spend is concentrated"], "nested": {"x": 2}}

Let me know if you need anything else.`
	raw, ok := DecodeObject(text)
	require.True(t, ok)

	m := decodeMap(t, raw)
	assert.Equal(t, []any{"spend is concentrated"}, m["key_insights"])
	assert.Equal(t, map[string]any{"x": float64(2)}, m["nested"])
}

func TestDecodeObjectEscapesRawNewlinesInStrings(t *testing.T) {
	text := "{\"insight\": \"line one\nline two\"}"
	raw, ok := DecodeObject(text)
	require.True(t, ok)
	assert.Equal(t, "line one\nline two", decodeMap(t, raw)["insight"])
}

func TestDecodeObjectRejectsNonObjects(t *testing.T) {
	for _, text := range []string{
		`[1, 2, 3]`,
		`"just a string"`,
		`42`,
		``,
		`no json here at all`,
		`{"never": "closed`,
	} {
		_, ok := DecodeObject(text)
		assert.False(t, ok, "input %q should not decode", text)
	}
}

func TestDecodeObjectPicksFirstObject(t *testing.T) {
	raw, ok := DecodeObject(`{"first": true} and then {"second": true}`)
	require.True(t, ok)

	m := decodeMap(t, raw)
	assert.Equal(t, true, m["first"])
	assert.NotContains(t, m, "second")
}

func TestDecodeObjectBracesInsideStrings(t *testing.T) {
	text := `prefix {"note": "a } inside", "n": 1} suffix`
	raw, ok := DecodeObject(text)
	require.True(t, ok)
	assert.Equal(t, "a } inside", decodeMap(t, raw)["note"])
}

func TestRepairIdempotent(t *testing.T) {
	inputs := []string{
		`{"a": 1, "b": [1,2,]}`,
		"{\"s\": \"x\ny\"}",
		`{"clean": true}`,
	}
	for _, in := range inputs {
		once := Repair(in)
		assert.Equal(t, once, Repair(once), "Repair must be idempotent for %q", in)
	}
}

func TestRepairPreservesEscapedSequences(t *testing.T) {
	in := `{"s": "already \n escaped \"quoted\""}`
	assert.Equal(t, in, Repair(in))
	assert.True(t, json.Valid([]byte(Repair(in))))
}
