// Package jsonrepair recovers a JSON object from near-valid LLM output.
// It is deliberately isolated: the invoker is the only caller, so the whole
// package can be swapped for a stricter approach (providers with constrained
// output only) without touching the coordinator.
package jsonrepair

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fenceJSON     = regexp.MustCompile("(?i)```json\\s*")
	fenceBare     = regexp.MustCompile("```\\s*")
	trailingBrace = regexp.MustCompile(`,\s*}`)
	trailingBrack = regexp.MustCompile(`,\s*]`)
)

// DecodeObject runs the full repair sequence: strip code fences, try a direct
// parse or a balanced-substring scan, then apply the character-level repair
// pass and scan again. The second return is false when no candidate yields a
// valid JSON object (a mapping, not an array or scalar).
func DecodeObject(text string) (json.RawMessage, bool) {
	t := StripFences(text)
	if obj, ok := ExtractObject(t); ok {
		return obj, true
	}
	return ExtractObject(Repair(t))
}

// StripFences removes markdown code-fence markers.
func StripFences(text string) string {
	text = fenceJSON.ReplaceAllString(text, "")
	text = fenceBare.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// ExtractObject returns the first top-level JSON object in text. It tries the
// whole text first, then every '{' as a candidate start with end positions
// walked from the end of the text backward. This recovers objects embedded
// in explanatory prose.
func ExtractObject(text string) (json.RawMessage, bool) {
	t := strings.TrimSpace(text)
	if isObject(t) {
		return json.RawMessage(t), true
	}
	for s := 0; s < len(t); s++ {
		if t[s] != '{' {
			continue
		}
		for e := len(t); e > s; e-- {
			if t[e-1] != '}' {
				continue
			}
			if chunk := t[s:e]; isObject(chunk) {
				return json.RawMessage(chunk), true
			}
		}
	}
	return nil, false
}

// Repair fixes the two classic LLM JSON defects: raw newlines inside quoted
// string values and trailing commas before a closing brace or bracket.
// Idempotent, and a no-op on already-valid JSON.
func Repair(text string) string {
	repaired := escapeNewlinesInStrings(text)
	repaired = trailingBrace.ReplaceAllString(repaired, "}")
	repaired = trailingBrack.ReplaceAllString(repaired, "]")
	return repaired
}

func escapeNewlinesInStrings(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inStr, esc := false, false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inStr {
			switch {
			case esc:
				esc = false
				b.WriteByte(ch)
			case ch == '\\':
				esc = true
				b.WriteByte(ch)
			case ch == '"':
				inStr = false
				b.WriteByte(ch)
			case ch == '\n':
				b.WriteString(`\n`)
			default:
				b.WriteByte(ch)
			}
			continue
		}
		if ch == '"' {
			inStr = true
		}
		b.WriteByte(ch)
	}
	return b.String()
}

func isObject(s string) bool {
	return strings.HasPrefix(s, "{") && json.Valid([]byte(s))
}
