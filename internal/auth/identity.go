package auth

// Identity represents a normalized external authentication identity
// returned by a sign-in provider. It contains facts only, no decisions.
type Identity struct {
	Provider          string // e.g. "workos", "native"
	ProviderUserID    string // provider-scoped unique user identifier
	Email             string
	EmailVerified     bool
	FirstName         string
	LastName          string
	ProfilePictureURL string
}

// Profile is the user record an identity provider returns alongside tokens.
// Fields other than ID may be blank; a cache-restore without a refresh token
// produces a degraded profile carrying only the cached user id.
type Profile struct {
	ID                string
	Email             string
	FirstName         string
	LastName          string
	ProfilePictureURL string
}

// SessionResult is the transient outcome of a successful login, refresh, or
// cache-restore. It is never stored as-is: its secret fields are projected
// into the credential store and its profile into the in-memory user view.
type SessionResult struct {
	User           Profile
	AccessToken    string
	RefreshToken   string
	IDToken        string
	OrganizationID string
}

// BearerToken selects the token forwarded to downstream consumers: the id
// token when one was issued, otherwise the access token.
func (r *SessionResult) BearerToken() string {
	if r.IDToken != "" {
		return r.IDToken
	}
	return r.AccessToken
}
