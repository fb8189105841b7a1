package common

import (
	"strings"

	"github.com/google/uuid"
)

// hexSuffix returns the first n hex characters of a fresh uuid4, with
// dashes stripped, matching the "{prefix}-{12 hex}" shape used for both
// job ids and correlation ids.
func hexSuffix(n int) string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	if n > len(raw) {
		n = len(raw)
	}
	return raw[:n]
}

// NewJobID generates a job id of the form "{job_type}-{12 hex}".
func NewJobID(jobType string) string {
	return jobType + "-" + hexSuffix(12)
}

// NewCorrelationID generates a correlation id of the form "{prefix}-{12 hex}".
// Recognized prefixes are "fe" (browser-originated), "api" (generated by the
// API when the X-Correlation-ID header is absent), and "cor"
// (client-library-generated for standalone calls).
func NewCorrelationID(prefix string) string {
	return prefix + "-" + hexSuffix(12)
}
