package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danmarauda/araps-mobile-app/internal/auth"
	"github.com/danmarauda/araps-mobile-app/internal/auth/provider"
	"github.com/danmarauda/araps-mobile-app/internal/auth/provider/native"
	"github.com/danmarauda/araps-mobile-app/internal/auth/resolver"
	"github.com/danmarauda/araps-mobile-app/internal/credstore"
	"github.com/danmarauda/araps-mobile-app/internal/session"
)

type stubProvider struct{}

func (stubProvider) Name() string { return "workos" }

func (stubProvider) Login(ctx context.Context) (*auth.SessionResult, error) {
	return nil, auth.ErrMissingConfiguration
}

func (stubProvider) LoginFromCache(ctx context.Context) (*auth.SessionResult, error) {
	return nil, auth.ErrNoSession
}

func (stubProvider) Refresh(ctx context.Context, refreshToken string) (*auth.SessionResult, error) {
	return nil, auth.ErrRefreshFailed
}

func (stubProvider) Logout(ctx context.Context) error { return nil }

type listResolver struct {
	orgs []resolver.Organization
}

func (r *listResolver) Resolve(ctx context.Context, identity *auth.Identity) (string, error) {
	return "", nil
}

func (r *listResolver) OrganizationByID(ctx context.Context, id string) (*resolver.Organization, error) {
	return nil, nil
}

func (r *listResolver) OrganizationBySlug(ctx context.Context, slug string) (*resolver.Organization, error) {
	return nil, nil
}

func (r *listResolver) EnsureDefaultOrganization(ctx context.Context) (*resolver.Organization, error) {
	return nil, nil
}

func (r *listResolver) ListOrganizations(ctx context.Context) ([]resolver.Organization, error) {
	return r.orgs, nil
}

func newBridgeRouter(t *testing.T, dir resolver.Resolver) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := credstore.NewFileStore(
		filepath.Join(t.TempDir(), "vault.bin"),
		[]byte("test-vault-secret"),
	)
	require.NoError(t, err)

	manager := session.NewManager(session.Deps{
		Providers: provider.NewRegistry(stubProvider{}),
		Store:     store,
		Directory: dir,
	})

	adapter := native.New(native.PromptFunc(func(ctx context.Context) error {
		return nil
	}), nil)

	return buildRouter(manager, adapter)
}

func localGet(r *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "127.0.0.1:54321"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestOrganizationsEndpointListsDirectory(t *testing.T) {
	dir := &listResolver{orgs: []resolver.Organization{
		{ID: uuid.New(), Name: "ARA Property Services", Slug: "ara-property-services", Tier: "enterprise"},
		{ID: uuid.New(), Name: "Melbourne Metro", Slug: "melbourne-metro", Tier: "trial"},
	}}
	r := newBridgeRouter(t, dir)

	w := localGet(r, "/auth/organizations")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Organizations []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
			Slug string `json:"slug"`
			Tier string `json:"tier"`
		} `json:"organizations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Organizations, 2)
	assert.Equal(t, "ara-property-services", body.Organizations[0].Slug)
	assert.Equal(t, "melbourne-metro", body.Organizations[1].Slug)
}

func TestOrganizationsEndpointEmptyDirectory(t *testing.T) {
	r := newBridgeRouter(t, &listResolver{})

	w := localGet(r, "/auth/organizations")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"organizations":[]}`, w.Body.String())
}

func TestStateEndpointReportsCurrentState(t *testing.T) {
	r := newBridgeRouter(t, &listResolver{})

	w := localGet(r, "/auth/state")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		State string `json:"state"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "loading", body.State)
}
