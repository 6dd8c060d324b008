// Package biometric wraps the device biometric/passcode check used to
// re-authorize access to a cached session without re-running the network
// login flow.
package biometric

import (
	"context"
	"errors"
	"sync"
)

// Kind identifies the biometry surface exposed by the device.
type Kind string

const (
	KindNone        Kind = "none"
	KindFingerprint Kind = "fingerprint"
	KindFace        Kind = "face"
)

// Authenticator is the OS binding. Terminal builds register a platform
// implementation; everything else gets Unsupported.
type Authenticator interface {
	// Available probes device capability; the error carries the reason
	// when biometry cannot be used.
	Available() (Kind, error)

	// Authenticate presents the platform prompt with a user-facing
	// justification. A non-nil error covers decline, lockout and platform
	// faults alike.
	Authenticate(ctx context.Context, reason string) error
}

// Availability is the result of a capability probe.
type Availability struct {
	Available bool
	Kind      Kind
	Reason    string
}

// Gate mediates access to the authenticator and records the last
// human-readable failure for the UI. Authenticate never returns an error for
// "user declined"; callers get false and read LastError for display.
type Gate struct {
	mu            sync.Mutex
	authenticator Authenticator
	lastError     string
}

func NewGate(authenticator Authenticator) *Gate {
	if authenticator == nil {
		authenticator = Unsupported{}
	}
	return &Gate{authenticator: authenticator}
}

func (g *Gate) CheckAvailability() Availability {
	kind, err := g.authenticator.Available()
	if err != nil {
		g.setError(err.Error())
		return Availability{Available: false, Kind: kind, Reason: err.Error()}
	}
	return Availability{Available: true, Kind: kind}
}

// Authenticate reports whether the user was verified. Callers must gate the
// UI affordance on CheckAvailability first.
func (g *Gate) Authenticate(ctx context.Context, reason string) bool {
	if err := g.authenticator.Authenticate(ctx, reason); err != nil {
		g.setError(err.Error())
		return false
	}
	return true
}

// LastError returns the most recent failure message, if any.
func (g *Gate) LastError() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastError
}

func (g *Gate) setError(msg string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastError = msg
}

var errUnsupported = errors.New("biometric authentication is not available on this platform")

// Unsupported is the authenticator on builds without an OS biometry binding.
type Unsupported struct{}

func (Unsupported) Available() (Kind, error) {
	return KindNone, errUnsupported
}

func (Unsupported) Authenticate(ctx context.Context, reason string) error {
	return errUnsupported
}
