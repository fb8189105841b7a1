package redact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringPatterns(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"hf token", "notes: hf_abcdEF1234567890", "notes: hf_***REDACTED***"},
		{"sk token", "key sk-abc123-XYZ", "key sk-***REDACTED***"},
		{"ghp token", "uses ghp_ABC123token", "uses ghp_***REDACTED***"},
		{"rpa token", "has rpa_abc123", "has rpa_***REDACTED***"},
		{"bearer header", "Authorization: bearer AbC123.def-456", "Authorization: Bearer ***REDACTED***"},
		{"token param", "url?TOKEN=abc123&x=1", "url?token=***&x=1"},
		{"password param", "login?password=hunter2&next=/", "login?password=***&next=/"},
		{"home path", "/Users/bob/project/file.go", "/[HOME]/project/file.go"},
		{"no match", "nothing sensitive here", "nothing sensitive here"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, String(c.input))
		})
	}
}

func TestValueRedactsSensitiveKeys(t *testing.T) {
	in := map[string]interface{}{
		"notes":    "hf_abcdEF1234567890",
		"Password": "hunter2",
		"nested": map[string]interface{}{
			"api_key": "abc",
			"safe":    "value",
		},
	}
	out := Value(in).(map[string]interface{})

	assert.Equal(t, "hf_***REDACTED***", out["notes"])
	assert.Equal(t, "***REDACTED***", out["Password"])

	nested := out["nested"].(map[string]interface{})
	assert.Equal(t, "***REDACTED***", nested["api_key"])
	assert.Equal(t, "value", nested["safe"])
}

func TestValueRecursesIntoArrays(t *testing.T) {
	in := []interface{}{
		map[string]interface{}{"token": "secretvalue"},
		"Bearer abc.def",
	}
	out := Value(in).([]interface{})

	assert.Equal(t, "***REDACTED***", out[0].(map[string]interface{})["token"])
	assert.Equal(t, "Bearer ***REDACTED***", out[1])
}

func TestValueMaxDepth(t *testing.T) {
	var deep interface{} = "bottom"
	for i := 0; i < maxDepth+3; i++ {
		deep = map[string]interface{}{"child": deep}
	}

	out := Value(deep)
	for {
		m, ok := out.(map[string]interface{})
		if !ok {
			break
		}
		out = m["child"]
	}
	assert.Equal(t, "[MAX_DEPTH_EXCEEDED]", out)
}

func TestValueCircularReference(t *testing.T) {
	m := map[string]interface{}{}
	m["self"] = m

	out := Value(m).(map[string]interface{})
	assert.Equal(t, "[CIRCULAR_REFERENCE]", out["self"])
}
