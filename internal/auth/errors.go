package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingConfiguration means a client id or endpoint was left unset.
	ErrMissingConfiguration = errors.New("auth provider not configured")

	// ErrUserCancelled is the user dismissing an interactive sign-in surface.
	// Callers treat it as a silent no-op, never as a displayable failure.
	ErrUserCancelled = errors.New("sign in cancelled by user")

	// ErrInvalidCallback is a redirect that arrived without a usable code.
	ErrInvalidCallback = errors.New("authorization callback missing code")

	// ErrRefreshFailed covers refresh-grant rejections. No body detail is
	// kept; the caller downgrades to unauthenticated and shows a generic
	// session-expired message.
	ErrRefreshFailed = errors.New("session refresh failed")

	// ErrNoSession means the credential store lacks the access token and
	// user id a cache-restore requires.
	ErrNoSession = errors.New("no cached session")

	// ErrInvalidCredential is an unusable credential from the device-native
	// sign-in surface.
	ErrInvalidCredential = errors.New("invalid provider credential")

	// ErrSuperseded resolves a pending native sign-in when a newer attempt
	// claims the single in-flight slot.
	ErrSuperseded = errors.New("sign in superseded by a newer attempt")
)

// TokenExchangeError is a non-200 response from the token endpoint during an
// authorization-code exchange. The response body is kept for diagnostics.
type TokenExchangeError struct {
	StatusCode int
	Body       string
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed: status %d: %s", e.StatusCode, e.Body)
}
