package biometric

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeAuthenticator struct {
	kind         Kind
	availableErr error
	authErr      error
}

func (f *fakeAuthenticator) Available() (Kind, error) {
	return f.kind, f.availableErr
}

func (f *fakeAuthenticator) Authenticate(ctx context.Context, reason string) error {
	return f.authErr
}

func TestCheckAvailability(t *testing.T) {
	gate := NewGate(&fakeAuthenticator{kind: KindFace})

	avail := gate.CheckAvailability()
	assert.True(t, avail.Available)
	assert.Equal(t, KindFace, avail.Kind)
	assert.Empty(t, avail.Reason)
}

func TestCheckAvailabilityRecordsReason(t *testing.T) {
	gate := NewGate(&fakeAuthenticator{
		kind:         KindNone,
		availableErr: errors.New("no biometry enrolled"),
	})

	avail := gate.CheckAvailability()
	assert.False(t, avail.Available)
	assert.Equal(t, "no biometry enrolled", avail.Reason)
	assert.Equal(t, "no biometry enrolled", gate.LastError())
}

func TestAuthenticateDeclineReturnsFalseNotError(t *testing.T) {
	gate := NewGate(&fakeAuthenticator{
		kind:    KindFingerprint,
		authErr: errors.New("user declined"),
	})

	ok := gate.Authenticate(context.Background(), "Unlock your ARAPS session")
	assert.False(t, ok)
	assert.Equal(t, "user declined", gate.LastError())
}

func TestAuthenticateSuccess(t *testing.T) {
	gate := NewGate(&fakeAuthenticator{kind: KindFingerprint})

	ok := gate.Authenticate(context.Background(), "Unlock your ARAPS session")
	assert.True(t, ok)
	assert.Empty(t, gate.LastError())
}

func TestNilAuthenticatorFallsBackToUnsupported(t *testing.T) {
	gate := NewGate(nil)

	avail := gate.CheckAvailability()
	assert.False(t, avail.Available)
	assert.Equal(t, KindNone, avail.Kind)
	assert.False(t, gate.Authenticate(context.Background(), "reason"))
}
