// Package correlation implements the process-wide correlation identifier
// that stitches a user action to every log line and event it causes.
package correlation

import (
	"context"
	"math/rand"
	"regexp"
)

type contextKey struct{}

var idKey = contextKey{}

var validIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// IsValidID reports whether a caller-supplied correlation id matches the
// shape the API-side middleware accepts from the X-Correlation-ID header.
func IsValidID(id string) bool {
	return validIDPattern.MatchString(id)
}

const hexAlphabet = "0123456789abcdef"

// NewID generates a correlation id of the form "{prefix}-{12 hex}".
// Recognized prefixes are "fe" (frontend-initiated), "api" (API-generated
// when the header is absent), and "cor" (client-library-generated for
// standalone calls).
func NewID(prefix string) string {
	buf := make([]byte, 12)
	for i := range buf {
		buf[i] = hexAlphabet[rand.Intn(len(hexAlphabet))]
	}
	return prefix + "-" + string(buf)
}

// WithID returns a copy of ctx carrying the given correlation id. This is
// the primary propagation mechanism: pass ctx explicitly down every call
// path, synchronous or asynchronous.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, idKey, id)
}

// FromContext returns the correlation id carried by ctx, or "" if none is set.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(idKey).(string)
	return id
}

