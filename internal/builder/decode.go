package builder

import (
	"encoding/json"
	"strings"
)

// ExtractJSON locates the structured artifact a Builder specialist returned,
// carrying topKey ("actions" or "ast_actions") at its top level. Specialists
// are asked to respond with raw JSON, but in practice wrap it in code
// fencing or prose; this accepts all three forms, per §4.10's decoding
// requirement.
func ExtractJSON(text, topKey string) (json.RawMessage, bool) {
	if raw, ok := tryParse(strings.TrimSpace(text), topKey); ok {
		return raw, true
	}
	if fenced, ok := extractFenced(text); ok {
		if raw, ok := tryParse(fenced, topKey); ok {
			return raw, true
		}
	}
	return extractEmbedded(text, topKey)
}

func tryParse(s string, topKey string) (json.RawMessage, bool) {
	var v map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	if _, ok := v[topKey]; !ok {
		return nil, false
	}
	return json.RawMessage(s), true
}

// extractFenced returns the contents of the first ``` fenced block, if any,
// skipping an optional language tag on the fence's opening line.
func extractFenced(text string) (string, bool) {
	const fence = "```"
	start := strings.Index(text, fence)
	if start == -1 {
		return "", false
	}
	rest := text[start+len(fence):]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 && !strings.ContainsAny(rest[:nl], "{[") {
		rest = rest[nl+1:]
	}
	end := strings.Index(rest, fence)
	if end == -1 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// extractEmbedded scans for `"topKey"` and walks outward to the nearest
// balanced-brace object enclosing it, for responses that bury the artifact
// in surrounding commentary.
func extractEmbedded(text, topKey string) (json.RawMessage, bool) {
	needle := `"` + topKey + `"`
	keyIdx := strings.Index(text, needle)
	if keyIdx == -1 {
		return nil, false
	}
	for i := keyIdx; i >= 0; i-- {
		if text[i] != '{' {
			continue
		}
		end, ok := balancedEnd(text, i)
		if !ok || end <= keyIdx {
			continue
		}
		candidate := text[i : end+1]
		if raw, ok := tryParse(candidate, topKey); ok {
			return raw, true
		}
	}
	return nil, false
}

// balancedEnd returns the index of the '}' matching the '{' at start,
// honoring string literals and escapes, or false if the braces never close.
func balancedEnd(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
