package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)

	assert.True(t, CheckPassword(hash, "secret123"))
	assert.False(t, CheckPassword(hash, "wrong-password"))
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	h1, err := HashPassword("secret123")
	require.NoError(t, err)
	h2, err := HashPassword("secret123")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}
