package ident

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var idShape = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

func TestNewShape(t *testing.T) {
	for i := 0; i < 1000; i++ {
		id := New()
		require.Len(t, id, 36)
		require.Regexp(t, idShape, id)
	}
}

func TestNewUniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		id := New()
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestNewMessageIDDistinctSameTick(t *testing.T) {
	a := NewMessageID()
	b := NewMessageID()
	require.NotEqual(t, a, b)
	require.True(t, strings.HasPrefix(a, "msg-"))
	require.True(t, strings.HasPrefix(b, "msg-"))
}
