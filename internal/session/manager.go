// Package session owns the process-wide auth state and mediates every
// transition between its states. Nothing else writes the state.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/danmarauda/araps-mobile-app/internal/auth"
	"github.com/danmarauda/araps-mobile-app/internal/auth/biometric"
	"github.com/danmarauda/araps-mobile-app/internal/auth/provider"
	"github.com/danmarauda/araps-mobile-app/internal/auth/provider/native"
	"github.com/danmarauda/araps-mobile-app/internal/auth/resolver"
	"github.com/danmarauda/araps-mobile-app/internal/backend"
	"github.com/danmarauda/araps-mobile-app/internal/credstore"
	"github.com/danmarauda/araps-mobile-app/internal/logger"
)

// State is the single discrete value describing what the terminal UI should
// currently show. Exactly one state holds at a time.
type State string

const (
	StateLoading               State = "loading"
	StateUnauthenticated       State = "unauthenticated"
	StateAuthenticated         State = "authenticated"
	StateOnboarding            State = "onboarding"
	StateOrganizationSelection State = "organization_selection"
)

// Name fields shown when a provider withholds them.
const (
	defaultFirstName = "ARA"
	defaultLastName  = "User"
)

// AuthenticatedUser is the in-memory view of the signed-in user. It exists
// only while the state is authenticated or organization_selection.
type AuthenticatedUser struct {
	ID                string `json:"id"`
	Email             string `json:"email"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	ProfilePictureURL string `json:"profile_picture_url,omitempty"`
	OrganizationID    string `json:"organization_id,omitempty"`
}

func (u *AuthenticatedUser) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *AuthenticatedUser) Initials() string {
	var b strings.Builder
	if u.FirstName != "" {
		b.WriteString(u.FirstName[:1])
	}
	if u.LastName != "" {
		b.WriteString(u.LastName[:1])
	}
	return strings.ToUpper(b.String())
}

// Deps wires the collaborators the manager orchestrates. Providers and Store
// are required; the rest degrade to safe defaults when nil.
type Deps struct {
	Providers       *provider.Registry
	PrimaryProvider string // defaults to "workos"
	Native          *native.Adapter
	Gate            *biometric.Gate
	Store           credstore.Store
	Directory       resolver.Resolver
	Backend         backend.Notifier
	OnChange        func(State)
}

// Manager is the sole writer of the auth state. Public operations are
// serialized; no two transitions interleave their writes to the state or the
// credential store.
type Manager struct {
	deps Deps

	opMu sync.Mutex // serializes whole operations
	mu   sync.Mutex // guards the fields below

	state         State
	user          *AuthenticatedUser
	organization  *resolver.Organization
	organizations []resolver.Organization
}

func NewManager(deps Deps) *Manager {
	if deps.PrimaryProvider == "" {
		deps.PrimaryProvider = "workos"
	}
	if deps.Backend == nil {
		deps.Backend = backend.Noop{}
	}
	if deps.Gate == nil {
		deps.Gate = biometric.NewGate(nil)
	}
	return &Manager{deps: deps, state: StateLoading}
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// User returns a copy of the authenticated user, nil when signed out.
func (m *Manager) User() *AuthenticatedUser {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Organization returns the active organization, nil when none is resolved.
func (m *Manager) Organization() *resolver.Organization {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.organization == nil {
		return nil
	}
	org := *m.organization
	return &org
}

// KnownOrganizations lists every organization the directory knows about,
// independent of whether a selection is in progress.
func (m *Manager) KnownOrganizations(ctx context.Context) ([]resolver.Organization, error) {
	if m.deps.Directory == nil {
		return nil, nil
	}
	return m.deps.Directory.ListOrganizations(ctx)
}

// Organizations returns the candidate list backing organization selection.
func (m *Manager) Organizations() []resolver.Organization {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]resolver.Organization, len(m.organizations))
	copy(out, m.organizations)
	return out
}

// Start runs the startup sequence. An empty credential store goes straight
// to unauthenticated without touching the network; a failed silent restore
// also lands on unauthenticated without reporting an error.
func (m *Manager) Start(ctx context.Context) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	access, haveAccess, err := m.deps.Store.Get(ctx, credstore.KeyAccessToken)
	if err != nil {
		logger.Warn("credential store read failed at startup", map[string]any{"error": err.Error()})
		m.setState(StateUnauthenticated)
		return
	}
	_, haveUser, err := m.deps.Store.Get(ctx, credstore.KeyUserID)
	if err != nil {
		logger.Warn("credential store read failed at startup", map[string]any{"error": err.Error()})
		m.setState(StateUnauthenticated)
		return
	}

	if !haveAccess || !haveUser || access == "" {
		m.setState(StateUnauthenticated)
		return
	}

	p, err := m.deps.Providers.Get(m.deps.PrimaryProvider)
	if err != nil {
		m.setState(StateUnauthenticated)
		return
	}

	result, err := p.LoginFromCache(ctx)
	if err != nil {
		logger.Info("cached session restore failed", map[string]any{"error": err.Error()})
		m.setState(StateUnauthenticated)
		return
	}

	m.completeLogin(ctx, result, nil)
}

// Login runs the named provider's interactive sign-in. User cancellation is
// a silent no-op: the state stays where it was and no error is returned.
// Any other failure also leaves the state untouched and surfaces a
// displayable error.
func (m *Manager) Login(ctx context.Context, providerName string) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	p, err := m.deps.Providers.Get(providerName)
	if err != nil {
		return err
	}

	result, err := p.Login(ctx)
	if err != nil {
		if errors.Is(err, auth.ErrUserCancelled) {
			return nil
		}
		return fmt.Errorf("sign in failed: %w", err)
	}

	identity := &auth.Identity{
		Provider:          providerName,
		ProviderUserID:    result.User.ID,
		Email:             result.User.Email,
		FirstName:         result.User.FirstName,
		LastName:          result.User.LastName,
		ProfilePictureURL: result.User.ProfilePictureURL,
	}

	m.completeLogin(ctx, result, identity)
	return nil
}

// SignInWithNative runs the device-native sign-in path. The adapter already
// enforces the single pending-attempt slot.
func (m *Manager) SignInWithNative(ctx context.Context) error {
	if m.deps.Native == nil {
		return auth.ErrMissingConfiguration
	}

	// The native prompt resolves through the bridge, so it runs outside the
	// operation lock; only the resulting transition is serialized.
	res, err := m.deps.Native.SignIn(ctx)
	if err != nil {
		if errors.Is(err, auth.ErrUserCancelled) {
			return nil
		}
		return fmt.Errorf("sign in failed: %w", err)
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	identity := res.Identity
	email := identity.Email
	if email == "" {
		email = identity.ProviderUserID + "@privaterelay.appleid.com"
	}

	result := &auth.SessionResult{
		User: auth.Profile{
			ID:        identity.ProviderUserID,
			Email:     email,
			FirstName: identity.FirstName,
			LastName:  identity.LastName,
		},
		IDToken: res.IdentityToken,
	}

	if err := provider.PersistResult(ctx, m.deps.Store, result); err != nil {
		return fmt.Errorf("sign in failed: %w", err)
	}

	m.completeLogin(ctx, result, &identity)
	return nil
}

// SignInWithBiometrics re-enters a cached session behind the device
// biometric prompt. A declined prompt leaves the state where it was; a
// failed restore downgrades to unauthenticated.
func (m *Manager) SignInWithBiometrics(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	avail := m.deps.Gate.CheckAvailability()
	if !avail.Available {
		return fmt.Errorf("biometric authentication unavailable: %s", avail.Reason)
	}

	access, haveAccess, err := m.deps.Store.Get(ctx, credstore.KeyAccessToken)
	if err != nil {
		return err
	}
	_, haveUser, err := m.deps.Store.Get(ctx, credstore.KeyUserID)
	if err != nil {
		return err
	}
	if !haveAccess || !haveUser || access == "" {
		return errors.New("no previous session found, please sign in first")
	}

	if !m.deps.Gate.Authenticate(ctx, "Unlock your ARAPS session") {
		return fmt.Errorf("biometric authentication failed: %s", m.deps.Gate.LastError())
	}

	p, err := m.deps.Providers.Get(m.deps.PrimaryProvider)
	if err != nil {
		return err
	}

	result, err := p.LoginFromCache(ctx)
	if err != nil {
		m.clearSession()
		m.setState(StateUnauthenticated)
		return errors.New("session expired, please sign in again")
	}

	m.completeLogin(ctx, result, nil)
	return nil
}

// SwitchOrganization loads the known organizations and enters selection only
// when there is a real choice to make.
func (m *Manager) SwitchOrganization(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.State() != StateAuthenticated {
		return errors.New("not signed in")
	}
	if m.deps.Directory == nil {
		return nil
	}

	orgs, err := m.deps.Directory.ListOrganizations(ctx)
	if err != nil {
		return fmt.Errorf("load organizations: %w", err)
	}
	if len(orgs) <= 1 {
		return nil
	}

	m.mu.Lock()
	m.organizations = orgs
	m.mu.Unlock()
	m.setState(StateOrganizationSelection)
	return nil
}

// SelectOrganization makes the chosen organization active and returns to
// authenticated.
func (m *Manager) SelectOrganization(ctx context.Context, id string) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.deps.Directory == nil {
		return errors.New("organization directory unavailable")
	}

	org, err := m.deps.Directory.OrganizationByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load organization: %w", err)
	}
	if org == nil {
		return fmt.Errorf("unknown organization: %s", id)
	}

	if err := m.deps.Store.Set(ctx, credstore.KeyOrganizationID, org.ID.String()); err != nil {
		return err
	}

	m.mu.Lock()
	m.organization = org
	m.organizations = nil
	if m.user != nil {
		m.user.OrganizationID = org.ID.String()
	}
	m.mu.Unlock()

	m.setState(StateAuthenticated)
	return nil
}

// Logout tears the session down. Safe to call from any state, including when
// nothing is signed in.
func (m *Manager) Logout(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if p, err := m.deps.Providers.Get(m.deps.PrimaryProvider); err == nil {
		if err := p.Logout(ctx); err != nil {
			logger.Warn("provider logout failed", map[string]any{"error": err.Error()})
		}
	}

	if err := m.deps.Store.ClearAll(ctx); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}

	if err := m.deps.Backend.LoggedOut(ctx); err != nil {
		logger.Warn("backend logout notification failed", map[string]any{"error": err.Error()})
	}

	m.clearSession()
	m.setState(StateUnauthenticated)
	return nil
}

// completeLogin projects a session result into the in-memory user view,
// reconciles the local directory record, resolves the active organization
// and lands on authenticated. Directory and backend faults are logged, not
// fatal: the session itself is already established.
func (m *Manager) completeLogin(ctx context.Context, result *auth.SessionResult, identity *auth.Identity) {
	user := &AuthenticatedUser{
		ID:                result.User.ID,
		Email:             result.User.Email,
		FirstName:         result.User.FirstName,
		LastName:          result.User.LastName,
		ProfilePictureURL: result.User.ProfilePictureURL,
		OrganizationID:    result.OrganizationID,
	}
	if user.FirstName == "" {
		user.FirstName = defaultFirstName
	}
	if user.LastName == "" {
		user.LastName = defaultLastName
	}

	if m.deps.Directory != nil && identity != nil && identity.ProviderUserID != "" {
		if localID, err := m.deps.Directory.Resolve(ctx, identity); err != nil {
			logger.Warn("directory resolve failed", map[string]any{"error": err.Error()})
		} else {
			user.ID = localID
		}
	}

	org := m.loadOrganization(ctx, result.OrganizationID)
	if org != nil {
		user.OrganizationID = org.ID.String()
	}

	m.mu.Lock()
	m.user = user
	m.organization = org
	m.organizations = nil
	m.mu.Unlock()

	m.setState(StateAuthenticated)

	if err := m.deps.Backend.LoggedIn(ctx, result.BearerToken()); err != nil {
		logger.Warn("backend login notification failed", map[string]any{"error": err.Error()})
	}
}

// loadOrganization resolves the active organization by the provider-returned
// id, falling back to the well-known default. Returns nil when no directory
// is wired or nothing resolves.
func (m *Manager) loadOrganization(ctx context.Context, organizationID string) *resolver.Organization {
	if m.deps.Directory == nil {
		return nil
	}

	if organizationID != "" {
		org, err := m.deps.Directory.OrganizationByID(ctx, organizationID)
		if err != nil {
			logger.Warn("organization lookup failed", map[string]any{"error": err.Error()})
		} else if org != nil {
			return org
		}
	}

	org, err := m.deps.Directory.EnsureDefaultOrganization(ctx)
	if err != nil {
		logger.Warn("default organization lookup failed", map[string]any{"error": err.Error()})
		return nil
	}
	return org
}

func (m *Manager) clearSession() {
	m.mu.Lock()
	m.user = nil
	m.organization = nil
	m.organizations = nil
	m.mu.Unlock()
}

func (m *Manager) setState(next State) {
	m.mu.Lock()
	changed := m.state != next
	m.state = next
	m.mu.Unlock()

	if changed && m.deps.OnChange != nil {
		m.deps.OnChange(next)
	}
}
