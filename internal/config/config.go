package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	AppPort string `mapstructure:"app_port"`

	WorkOSClientID string `mapstructure:"workos_client_id"`
	AuthorizeURL   string `mapstructure:"workos_authorize_url"`
	TokenURL       string `mapstructure:"workos_token_url"`
	RedirectURI    string `mapstructure:"redirect_uri"`

	NativeIssuer   string `mapstructure:"native_issuer"`
	NativeClientID string `mapstructure:"native_client_id"`

	DatabaseDSN string `mapstructure:"database_dsn"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`

	VaultPath   string `mapstructure:"vault_path"`
	VaultSecret string `mapstructure:"vault_secret"`

	BackendURL string `mapstructure:"backend_url"`

	DefaultOrganizationName string `mapstructure:"default_organization_name"`
	DefaultOrganizationSlug string `mapstructure:"default_organization_slug"`
}

func Load() (Config, error) {
	viper.SetDefault("app_port", "8787")
	viper.SetDefault("workos_authorize_url", "https://api.workos.com/user_management/authorize")
	viper.SetDefault("workos_token_url", "https://api.workos.com/user_management/authenticate")
	viper.SetDefault("redirect_uri", "http://127.0.0.1:49172/auth/callback")
	viper.SetDefault("native_issuer", "https://appleid.apple.com")
	viper.SetDefault("vault_path", "araps-vault.bin")
	viper.SetDefault("default_organization_name", "ARA Property Services")
	viper.SetDefault("default_organization_slug", "ara-property-services")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// explicit bindings
	_ = viper.BindEnv("app_port", "APP_PORT")
	_ = viper.BindEnv("workos_client_id", "WORKOS_CLIENT_ID")
	_ = viper.BindEnv("workos_authorize_url", "WORKOS_AUTHORIZE_URL")
	_ = viper.BindEnv("workos_token_url", "WORKOS_TOKEN_URL")
	_ = viper.BindEnv("redirect_uri", "ARAPS_REDIRECT_URI")
	_ = viper.BindEnv("native_issuer", "NATIVE_SIGNIN_ISSUER")
	_ = viper.BindEnv("native_client_id", "NATIVE_SIGNIN_CLIENT_ID")
	_ = viper.BindEnv("database_dsn", "DATABASE_DSN")
	_ = viper.BindEnv("redis_addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis_password", "REDIS_PASSWORD")
	_ = viper.BindEnv("vault_path", "ARAPS_VAULT_PATH")
	_ = viper.BindEnv("vault_secret", "ARAPS_VAULT_SECRET")
	_ = viper.BindEnv("backend_url", "CONVEX_DEPLOYMENT_URL")
	_ = viper.BindEnv("default_organization_name", "ARAPS_DEFAULT_ORG_NAME")
	_ = viper.BindEnv("default_organization_slug", "ARAPS_DEFAULT_ORG_SLUG")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

// Validate reports the "not configured" startup error. A blank client id or
// deployment URL means the terminal was launched without its environment and
// must refuse to run, not crash mid-login.
func (c Config) Validate() error {
	if c.WorkOSClientID == "" {
		return errors.New("WORKOS_CLIENT_ID is not configured")
	}
	if c.BackendURL == "" {
		return errors.New("CONVEX_DEPLOYMENT_URL is not configured")
	}
	if c.DatabaseDSN == "" {
		return errors.New("DATABASE_DSN is not configured")
	}
	return nil
}
