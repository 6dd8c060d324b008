package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("WORKOS_CLIENT_ID", "client_test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8787", cfg.AppPort)
	assert.Equal(t, "client_test", cfg.WorkOSClientID)
	assert.Equal(t, "https://api.workos.com/user_management/authorize", cfg.AuthorizeURL)
	assert.Equal(t, "https://api.workos.com/user_management/authenticate", cfg.TokenURL)
	assert.Equal(t, "http://127.0.0.1:49172/auth/callback", cfg.RedirectURI)
	assert.Equal(t, "ara-property-services", cfg.DefaultOrganizationSlug)
}

func TestValidateReportsMissingKeys(t *testing.T) {
	cfg := Config{}
	assert.ErrorContains(t, cfg.Validate(), "WORKOS_CLIENT_ID")

	cfg.WorkOSClientID = "client_test"
	assert.ErrorContains(t, cfg.Validate(), "CONVEX_DEPLOYMENT_URL")

	cfg.BackendURL = "https://example.convex.cloud"
	assert.ErrorContains(t, cfg.Validate(), "DATABASE_DSN")

	cfg.DatabaseDSN = "postgres://localhost/araps"
	assert.NoError(t, cfg.Validate())
}
