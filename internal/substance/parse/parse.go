// Package parse guards the pipeline against unreliable inference output.
// Provider text is adversarial by construction: the decoder degrades to a
// caller-supplied fallback instead of surfacing an error.
package parse

import (
	"encoding/json"
	"strings"
)

// Result carries a decoded value and whether the fallback was substituted.
// Callers that only need the value read .Value; the Fallback bit exists for
// logging and metrics.
type Result[T any] struct {
	Value    T
	Fallback bool
}

// Decode strictly decodes raw JSON into T. On any failure (empty input,
// malformed JSON, mismatched shape) it returns the fallback unchanged. A
// syntactically valid but semantically empty document ("{}") is NOT a
// failure; it decodes to the zero value and is returned as-is.
func Decode[T any](raw string, fallback T) Result[T] {
	cleaned := stripFences(strings.TrimSpace(raw))
	if cleaned == "" {
		return Result[T]{Value: fallback, Fallback: true}
	}

	var value T
	if err := json.Unmarshal([]byte(cleaned), &value); err != nil {
		return Result[T]{Value: fallback, Fallback: true}
	}
	return Result[T]{Value: value}
}

// stripFences removes a Markdown code fence wrapper. Providers wrap JSON in
// ```json fences routinely; the payload inside is still valid input.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// Drop the language tag line ("json", "JSON", or empty).
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
