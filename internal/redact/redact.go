// Package redact scrubs credential-shaped substrings and sensitive map
// keys from log records and persisted job metadata before they ever reach
// disk or stdout.
package redact

import (
	"regexp"
	"strings"
)

// pattern pairs a matcher with its replacement. Each pattern replaces only
// the matching substring, not the whole value, so surrounding context is
// preserved.
type pattern struct {
	re          *regexp.Regexp
	replacement string
}

var patterns = []pattern{
	{regexp.MustCompile(`hf_[A-Za-z0-9]+`), "hf_***REDACTED***"},
	{regexp.MustCompile(`sk-[A-Za-z0-9-]+`), "sk-***REDACTED***"},
	{regexp.MustCompile(`ghp_[A-Za-z0-9]+`), "ghp_***REDACTED***"},
	{regexp.MustCompile(`rpa_[A-Za-z0-9]+`), "rpa_***REDACTED***"},
	{regexp.MustCompile(`(?i)Bearer [A-Za-z0-9._-]+`), "Bearer ***REDACTED***"},
	{regexp.MustCompile(`(?i)token=[^&\s]+`), "token=***"},
	{regexp.MustCompile(`(?i)password=[^\s&]+`), "password=***"},
	{regexp.MustCompile(`/Users/[^/]+/`), "/[HOME]/"},
}

// sensitiveKeys are map keys (case-insensitive) whose entire value is
// replaced with ***REDACTED*** regardless of content.
var sensitiveKeys = map[string]bool{
	"authorization": true,
	"cookie":        true,
	"set-cookie":    true,
	"x-api-key":     true,
	"api_key":       true,
	"apikey":        true,
	"token":         true,
	"password":      true,
	"secret":        true,
	"credential":    true,
}

const maxDepth = 10

// String scans s against the fixed pattern table and returns the redacted
// result. Safe to call on any string, including ones with no matches.
func String(s string) string {
	for _, p := range patterns {
		s = p.re.ReplaceAllString(s, p.replacement)
	}
	return s
}

// Value redacts an arbitrary JSON-shaped value (string, map, slice, or
// scalar), recursing into nested maps and arrays up to maxDepth and
// detecting cycles via pointer identity on maps. Slices get no cycle check;
// a self-containing slice stops at maxDepth. Exceeding depth or detecting a
// cycle returns the literal marker instead of descending further.
func Value(v interface{}) interface{} {
	return redactAt(v, 0, map[uintptr]bool{})
}

func redactAt(v interface{}, depth int, seen map[uintptr]bool) interface{} {
	if depth > maxDepth {
		return "[MAX_DEPTH_EXCEEDED]"
	}

	switch t := v.(type) {
	case string:
		return String(t)
	case map[string]interface{}:
		if ptr := mapIdentity(t); ptr != 0 {
			if seen[ptr] {
				return "[CIRCULAR_REFERENCE]"
			}
			seen[ptr] = true
			defer delete(seen, ptr)
		}
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			if sensitiveKeys[strings.ToLower(k)] {
				out[k] = "***REDACTED***"
				continue
			}
			out[k] = redactAt(val, depth+1, seen)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = redactAt(val, depth+1, seen)
		}
		return out
	default:
		return v
	}
}

// mapIdentity returns a stable numeric identity for cycle detection.
// Go maps have no addressable pointer from an interface{} header without
// reflection, so we use reflect only here, at the narrowest possible scope.
func mapIdentity(m map[string]interface{}) uintptr {
	return reflectMapPointer(m)
}
