package provider

import (
	"context"

	"github.com/danmarauda/araps-mobile-app/internal/auth"
	"github.com/danmarauda/araps-mobile-app/internal/credstore"
)

// SessionProvider defines the contract every token-issuing sign-in path
// must implement. Implementations return session facts only and must not
// perform user creation, linking, or state transitions.
type SessionProvider interface {
	// Name returns the provider identifier (e.g. "workos").
	Name() string

	// Login runs the provider's interactive sign-in and persists the
	// returned secrets before reporting the result.
	Login(ctx context.Context) (*auth.SessionResult, error)

	// LoginFromCache restores a session from stored credentials, refreshing
	// over the network only when a refresh token is cached.
	LoginFromCache(ctx context.Context) (*auth.SessionResult, error)

	// Refresh exchanges a refresh token for fresh session credentials.
	Refresh(ctx context.Context, refreshToken string) (*auth.SessionResult, error)

	// Logout discards the provider's cached credentials. Local-only; no
	// remote revocation is attempted.
	Logout(ctx context.Context) error
}

// PersistResult projects the non-absent fields of a session result into the
// credential store. Absent fields leave previously stored values untouched,
// which is what lets a refresh response without user identity keep the
// cached user and organization ids alive.
func PersistResult(ctx context.Context, store credstore.Store, result *auth.SessionResult) error {
	writes := []struct {
		key   credstore.Key
		value string
	}{
		{credstore.KeyAccessToken, result.AccessToken},
		{credstore.KeyRefreshToken, result.RefreshToken},
		{credstore.KeyIDToken, result.IDToken},
		{credstore.KeyUserID, result.User.ID},
		{credstore.KeyOrganizationID, result.OrganizationID},
	}

	for _, w := range writes {
		if w.value == "" {
			continue
		}
		if err := store.Set(ctx, w.key, w.value); err != nil {
			return err
		}
	}

	return nil
}
