package workos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/danmarauda/araps-mobile-app/internal/auth"
	"github.com/danmarauda/araps-mobile-app/internal/auth/provider"
	"github.com/danmarauda/araps-mobile-app/internal/credstore"
	"github.com/danmarauda/araps-mobile-app/internal/logger"
)

// Name is the provider identifier used by the registry.
const Name = "workos"

const requestTimeout = 30 * time.Second

// maxResponseBytes bounds how much of a token response is read; WorkOS
// responses are small and an unbounded read of a broken proxy reply is not.
const maxResponseBytes = 1 << 20

type Config struct {
	ClientID     string
	AuthorizeURL string
	TokenURL     string
	RedirectURI  string
}

// Provider implements the WorkOS AuthKit authorization-code + PKCE flow.
// It returns session facts only; user/state decisions live in the session
// manager.
type Provider struct {
	cfg        Config
	oauth      *oauth2.Config
	store      credstore.Store
	authorizer Authorizer
	httpClient *http.Client
}

func New(cfg Config, store credstore.Store, authorizer Authorizer) (*Provider, error) {
	if cfg.ClientID == "" || cfg.AuthorizeURL == "" || cfg.TokenURL == "" || cfg.RedirectURI == "" {
		return nil, auth.ErrMissingConfiguration
	}

	oauthCfg := &oauth2.Config{
		ClientID:    cfg.ClientID,
		RedirectURL: cfg.RedirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.AuthorizeURL,
			TokenURL: cfg.TokenURL,
		},
	}

	return &Provider{
		cfg:        cfg,
		oauth:      oauthCfg,
		store:      store,
		authorizer: authorizer,
		httpClient: &http.Client{Timeout: requestTimeout},
	}, nil
}

// Name returns the provider identifier used by the registry.
func (p *Provider) Name() string {
	return Name
}

// authCodeURL builds the AuthKit authorization URL with PKCE parameters.
func (p *Provider) authCodeURL(state, codeChallenge string) string {
	return p.oauth.AuthCodeURL(
		state,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		oauth2.SetAuthURLParam("provider", "authkit"),
	)
}

// Login runs the interactive PKCE flow: fresh verifier and state, browser
// authorization, code exchange, then persistence. Secrets are flushed to the
// credential store before the result is reported.
func (p *Provider) Login(ctx context.Context) (*auth.SessionResult, error) {
	verifier, err := GenerateVerifier()
	if err != nil {
		return nil, err
	}
	state, err := randomToken()
	if err != nil {
		return nil, err
	}

	callback, err := p.authorizer.Authorize(ctx, p.authCodeURL(state, ChallengeS256(verifier)))
	if err != nil {
		return nil, err
	}

	query := callback.Query()
	if query.Get("state") != state {
		return nil, auth.ErrInvalidCallback
	}
	code := query.Get("code")
	if code == "" {
		return nil, auth.ErrInvalidCallback
	}

	result, err := p.exchange(ctx, code, verifier)
	if err != nil {
		return nil, err
	}

	if err := provider.PersistResult(ctx, p.store, result); err != nil {
		return nil, err
	}

	return result, nil
}

// Refresh exchanges a refresh token for fresh credentials. Refresh responses
// omit user identity, so the previously stored user and organization ids are
// carried forward.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*auth.SessionResult, error) {
	status, body, err := p.postToken(ctx, authenticateRequest{
		ClientID:     p.cfg.ClientID,
		GrantType:    "refresh_token",
		RefreshToken: refreshToken,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrRefreshFailed, err)
	}
	if status != http.StatusOK {
		return nil, auth.ErrRefreshFailed
	}

	var resp refreshResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrRefreshFailed, err)
	}

	userID, _, err := p.store.Get(ctx, credstore.KeyUserID)
	if err != nil {
		return nil, err
	}
	orgID, _, err := p.store.Get(ctx, credstore.KeyOrganizationID)
	if err != nil {
		return nil, err
	}

	result := &auth.SessionResult{
		User:           auth.Profile{ID: userID},
		AccessToken:    resp.AccessToken,
		RefreshToken:   resp.RefreshToken,
		IDToken:        resp.IDToken,
		OrganizationID: orgID,
	}

	if err := provider.PersistResult(ctx, p.store, result); err != nil {
		return nil, err
	}

	return result, nil
}

// LoginFromCache restores a session from the credential store. With a cached
// refresh token it refreshes over the network; without one it synthesizes a
// degraded result (blank email and name) from cached values alone.
func (p *Provider) LoginFromCache(ctx context.Context) (*auth.SessionResult, error) {
	accessToken, haveToken, err := p.store.Get(ctx, credstore.KeyAccessToken)
	if err != nil {
		return nil, err
	}
	userID, haveUser, err := p.store.Get(ctx, credstore.KeyUserID)
	if err != nil {
		return nil, err
	}
	if !haveToken || !haveUser {
		return nil, auth.ErrNoSession
	}

	if refreshToken, ok, err := p.store.Get(ctx, credstore.KeyRefreshToken); err != nil {
		return nil, err
	} else if ok {
		return p.Refresh(ctx, refreshToken)
	}

	idToken, _, err := p.store.Get(ctx, credstore.KeyIDToken)
	if err != nil {
		return nil, err
	}
	orgID, _, err := p.store.Get(ctx, credstore.KeyOrganizationID)
	if err != nil {
		return nil, err
	}

	return &auth.SessionResult{
		User:           auth.Profile{ID: userID},
		AccessToken:    accessToken,
		IDToken:        idToken,
		OrganizationID: orgID,
	}, nil
}

// Logout clears the credential store. Local-only; AuthKit sessions are not
// revoked server-side.
func (p *Provider) Logout(ctx context.Context) error {
	return p.store.ClearAll(ctx)
}

func (p *Provider) exchange(ctx context.Context, code, verifier string) (*auth.SessionResult, error) {
	status, body, err := p.postToken(ctx, authenticateRequest{
		ClientID:     p.cfg.ClientID,
		Code:         code,
		CodeVerifier: verifier,
		GrantType:    "authorization_code",
	})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		logger.Error("workos token exchange failed", map[string]any{
			"status": status,
		})
		return nil, &auth.TokenExchangeError{StatusCode: status, Body: string(body)}
	}

	var resp authenticateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("workos: decode authenticate response: %w", err)
	}

	// AuthKit may omit the user record; synthesize an empty profile so the
	// caller always has one.
	user := auth.Profile{}
	if resp.User != nil {
		user = auth.Profile{
			ID:                resp.User.ID,
			Email:             resp.User.Email,
			FirstName:         resp.User.FirstName,
			LastName:          resp.User.LastName,
			ProfilePictureURL: resp.User.ProfilePictureURL,
		}
	}

	return &auth.SessionResult{
		User:           user,
		AccessToken:    resp.AccessToken,
		RefreshToken:   resp.RefreshToken,
		OrganizationID: resp.OrganizationID,
	}, nil
}

func (p *Provider) postToken(ctx context.Context, reqBody authenticateRequest) (int, []byte, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("workos: encode token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.TokenURL, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("workos: build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("workos: token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("workos: read token response: %w", err)
	}

	return resp.StatusCode, body, nil
}

type authenticateRequest struct {
	ClientID     string `json:"client_id"`
	Code         string `json:"code,omitempty"`
	CodeVerifier string `json:"code_verifier,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	GrantType    string `json:"grant_type"`
}

type userPayload struct {
	ID                string `json:"id"`
	Email             string `json:"email"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	ProfilePictureURL string `json:"profile_picture_url"`
}

type authenticateResponse struct {
	User           *userPayload `json:"user"`
	AccessToken    string       `json:"access_token"`
	RefreshToken   string       `json:"refresh_token"`
	OrganizationID string       `json:"organization_id"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
}
