package correlation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidID(t *testing.T) {
	cases := []struct {
		id    string
		valid bool
	}{
		{"api-abc123def456", true},
		{"fe-000000000000", true},
		{"has a space", false},
		{"", false},
		{"ok_with-underscore", true},
	}
	for _, c := range cases {
		assert.Equal(t, c.valid, IsValidID(c.id), "id=%q", c.id)
	}
}

func TestNewIDShape(t *testing.T) {
	id := NewID("api")
	require.Regexp(t, `^api-[0-9a-f]{12}$`, id)
	require.True(t, IsValidID(id))
}

func TestNewIDUnique(t *testing.T) {
	a := NewID("cor")
	b := NewID("cor")
	assert.NotEqual(t, a, b)
}

func TestWithIDAndFromContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", FromContext(ctx))

	ctx = WithID(ctx, "api-aaaaaaaaaaaa")
	assert.Equal(t, "api-aaaaaaaaaaaa", FromContext(ctx))
}

// Set/get/reset is expressed through context derivation: WithID sets,
// FromContext gets, and returning to the parent context resets.
func TestSetGetReset(t *testing.T) {
	parent := context.Background()
	ctx := WithID(parent, "api-bbbbbbbbbbbb")
	assert.Equal(t, "api-bbbbbbbbbbbb", FromContext(ctx))

	assert.Equal(t, "", FromContext(parent))
}
