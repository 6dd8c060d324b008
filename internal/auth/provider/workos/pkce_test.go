package workos

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChallengeDeterministic(t *testing.T) {
	verifier, err := GenerateVerifier()
	require.NoError(t, err)

	first := ChallengeS256(verifier)
	second := ChallengeS256(verifier)
	assert.Equal(t, first, second)
}

func TestVerifierAndChallengeEncoding(t *testing.T) {
	for i := 0; i < 50; i++ {
		verifier, err := GenerateVerifier()
		require.NoError(t, err)
		challenge := ChallengeS256(verifier)

		for _, s := range []string{verifier, challenge} {
			assert.False(t, strings.ContainsAny(s, "=+/"),
				"base64url without padding must not contain =, + or /: %q", s)
		}

		// 32 bytes of entropy encode to 43 characters
		assert.Len(t, verifier, 43)
		assert.Len(t, challenge, 43)
	}
}

func TestVerifiersAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		verifier, err := GenerateVerifier()
		require.NoError(t, err)
		assert.False(t, seen[verifier])
		seen[verifier] = true
	}
}
