package random

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRandomString(t *testing.T) {
	pattern := regexp.MustCompile(`^[a-zA-Z0-9]{8}$`)

	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		s, err := NewRandomString(8)
		require.NoError(t, err)
		assert.Regexp(t, pattern, s)
		seen[s] = struct{}{}
	}
	assert.Greater(t, len(seen), 190)
}

func TestNewRandomString_ZeroLength(t *testing.T) {
	s, err := NewRandomString(0)
	require.NoError(t, err)
	assert.Empty(t, s)
}
