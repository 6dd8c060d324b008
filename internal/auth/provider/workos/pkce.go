package workos

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// entropyBytes is the randomness behind verifiers and state tokens.
// 32 bytes = 256 bits.
const entropyBytes = 32

func randomToken() (string, error) {
	b := make([]byte, entropyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("workos: failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateVerifier returns a fresh PKCE code verifier, base64url-encoded
// without padding. A new verifier is generated per authorization attempt
// and never persisted.
func GenerateVerifier() (string, error) {
	return randomToken()
}

// ChallengeS256 derives the code challenge for a verifier:
// base64url(SHA-256(verifier)), no padding.
func ChallengeS256(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}
