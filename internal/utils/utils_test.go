package utils

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidQuestionID(t *testing.T) {
	for _, id := range []string{"memory_1", "focus_1", "a", "x_y_z_9"} {
		assert.True(t, IsValidQuestionID(id), id)
	}
	for _, id := range []string{"", "Memory_1", "memory-1", "mémoire", "a b", strings.Repeat("a", 65)} {
		assert.False(t, IsValidQuestionID(id), id)
	}
}

func TestNewCSRFToken(t *testing.T) {
	a, err := NewCSRFToken()
	require.NoError(t, err)
	b, err := NewCSRFToken()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	raw, err := base64.RawURLEncoding.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, CSRFTokenBytes)
}

func TestTokensMatch(t *testing.T) {
	assert.True(t, TokensMatch("abc", "abc"))
	assert.False(t, TokensMatch("abd", "abc"))
	assert.False(t, TokensMatch("", ""))
	assert.False(t, TokensMatch("abc", ""))
}

func TestNewNonce(t *testing.T) {
	a, err := NewNonce()
	require.NoError(t, err)
	b, err := NewNonce()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	raw, err := base64.RawURLEncoding.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, NonceBytes)
}
