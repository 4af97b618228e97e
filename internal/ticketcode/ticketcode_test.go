package ticketcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	code, err := Generate()
	require.NoError(t, err)

	assert.Len(t, code, Length)
	for _, c := range code {
		assert.True(t, strings.ContainsRune(Alphabet, c), "unexpected symbol %q", c)
	}
}

func TestGenerateIsRandom(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 10_000; i++ {
		code, err := Generate()
		require.NoError(t, err)
		require.False(t, seen[code], "duplicate code %s after %d draws", code, i)
		seen[code] = true
	}
}

func TestAlphabet(t *testing.T) {
	assert.Len(t, Alphabet, 32)
	assert.NotContains(t, Alphabet, "I")
	assert.NotContains(t, Alphabet, "O")
}
