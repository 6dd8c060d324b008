package native

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/danmarauda/araps-mobile-app/internal/auth"
)

// Name is the provider identifier for the device-native sign-in path.
const Name = "native"

// Credential is what the platform sign-in surface hands back once the user
// finishes (or abandons) the native prompt.
type Credential struct {
	UserID            string
	Email             string
	FirstName         string
	LastName          string
	IdentityToken     string
	AuthorizationCode string
}

// Result is the adapter's sign-in outcome: a normalized identity plus the
// raw identity token, which doubles as the bearer credential for downstream
// consumers on this path.
type Result struct {
	Identity      auth.Identity
	IdentityToken string
}

// Prompt triggers the platform sign-in UI. The platform bridge later
// resolves the attempt through Complete or Fail on the adapter.
type Prompt interface {
	Begin(ctx context.Context) error
}

// PromptFunc adapts a function to the Prompt interface.
type PromptFunc func(ctx context.Context) error

func (f PromptFunc) Begin(ctx context.Context) error { return f(ctx) }

// TokenVerifier validates a platform identity token and returns its claims.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*Claims, error)
}

// Claims are the identity-token claims the adapter consumes.
type Claims struct {
	Subject       string
	Email         string
	EmailVerified bool
}

// OIDCVerifier validates identity tokens against the platform issuer via
// OIDC discovery.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func NewOIDCVerifier(ctx context.Context, issuer, clientID string) (*OIDCVerifier, error) {
	if issuer == "" || clientID == "" {
		return nil, auth.ErrMissingConfiguration
	}

	oidcProvider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("native: init oidc provider: %w", err)
	}

	return &OIDCVerifier{
		verifier: oidcProvider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (*Claims, error) {
	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("native: identity token verification failed: %w", err)
	}

	var claims struct {
		Subject       string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("native: identity token claims parse failed: %w", err)
	}

	return &Claims{
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
	}, nil
}

type outcome struct {
	cred *Credential
	err  error
}

// Adapter runs device-native sign-in. It holds exactly one pending-result
// slot: starting a new attempt while one is in flight resolves the earlier
// attempt with ErrSuperseded rather than silently dropping it.
type Adapter struct {
	mu       sync.Mutex
	pending  chan outcome
	prompt   Prompt
	verifier TokenVerifier
}

// New creates an adapter over the given platform prompt. verifier may be
// nil, in which case identity tokens are passed through unverified (test
// builds only).
func New(prompt Prompt, verifier TokenVerifier) *Adapter {
	return &Adapter{prompt: prompt, verifier: verifier}
}

// SignIn presents the native prompt and waits for the platform bridge to
// resolve it. Cancelling ctx resolves the attempt as user cancellation.
func (a *Adapter) SignIn(ctx context.Context) (*Result, error) {
	ch := make(chan outcome, 1)

	a.mu.Lock()
	if a.pending != nil {
		// the previous attempt loses its slot
		select {
		case a.pending <- outcome{err: auth.ErrSuperseded}:
		default:
		}
	}
	a.pending = ch
	a.mu.Unlock()

	if err := a.prompt.Begin(ctx); err != nil {
		a.release(ch)
		return nil, err
	}

	select {
	case out := <-ch:
		a.release(ch)
		if out.err != nil {
			return nil, out.err
		}
		return a.resultFrom(ctx, out.cred)
	case <-ctx.Done():
		a.release(ch)
		return nil, auth.ErrUserCancelled
	}
}

// Complete is called by the platform bridge when the user finishes the
// native prompt. It is a no-op when no attempt is pending.
func (a *Adapter) Complete(cred Credential) {
	a.deliver(outcome{cred: &cred})
}

// Fail is called by the platform bridge when the prompt ends without a
// credential. User dismissal must be reported as auth.ErrUserCancelled so
// callers can distinguish it from real failures.
func (a *Adapter) Fail(err error) {
	if err == nil {
		err = errors.New("native: sign in failed")
	}
	a.deliver(outcome{err: err})
}

func (a *Adapter) deliver(out outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pending == nil {
		return
	}

	select {
	case a.pending <- out:
	default:
	}
	a.pending = nil
}

func (a *Adapter) release(ch chan outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pending == ch {
		a.pending = nil
	}
}

func (a *Adapter) resultFrom(ctx context.Context, cred *Credential) (*Result, error) {
	if cred == nil || cred.UserID == "" {
		return nil, auth.ErrInvalidCredential
	}

	identity := auth.Identity{
		Provider:       Name,
		ProviderUserID: cred.UserID,
		Email:          cred.Email,
		FirstName:      cred.FirstName,
		LastName:       cred.LastName,
	}

	if cred.IdentityToken != "" && a.verifier != nil {
		claims, err := a.verifier.Verify(ctx, cred.IdentityToken)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", auth.ErrInvalidCredential, err)
		}
		if claims.Subject != cred.UserID {
			return nil, auth.ErrInvalidCredential
		}
		if identity.Email == "" {
			identity.Email = claims.Email
		}
		identity.EmailVerified = claims.EmailVerified
	}

	return &Result{Identity: identity, IdentityToken: cred.IdentityToken}, nil
}
