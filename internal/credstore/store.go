package credstore

import "context"

// ServiceNamespace scopes every credential record so unrelated processes on
// the same host cannot read or collide with them. It matches the identifier
// the mobile builds use, so a shared vault serves both.
const ServiceNamespace = "app.rork.araps-mobile-app"

// Key names one secret in the credential record. The set is closed.
type Key string

const (
	KeyAccessToken    Key = "workos_access_token"
	KeyRefreshToken   Key = "workos_refresh_token"
	KeyIDToken        Key = "workos_id_token"
	KeyUserID         Key = "workos_user_id"
	KeyOrganizationID Key = "workos_organization_id"
)

// Keys lists every key ClearAll must cover.
var Keys = []Key{
	KeyAccessToken,
	KeyRefreshToken,
	KeyIDToken,
	KeyUserID,
	KeyOrganizationID,
}

// Store persists opaque secrets at rest. Implementations must make Set an
// atomic replace (delete-then-insert, never upsert-in-place), keep ClearAll
// safe on an empty store, and perform no network or biometric side effects.
type Store interface {
	// Get returns the secret for key, with ok=false when absent.
	Get(ctx context.Context, key Key) (value string, ok bool, err error)

	// Set replaces any existing secret for key.
	Set(ctx context.Context, key Key, value string) error

	// Delete removes the secret for key. Absent keys are a no-op.
	Delete(ctx context.Context, key Key) error

	// ClearAll removes every key, present or not.
	ClearAll(ctx context.Context) error
}
