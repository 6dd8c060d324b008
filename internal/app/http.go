package app

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/danmarauda/araps-mobile-app/internal/auth"
	"github.com/danmarauda/araps-mobile-app/internal/auth/biometric"
	"github.com/danmarauda/araps-mobile-app/internal/auth/provider"
	"github.com/danmarauda/araps-mobile-app/internal/auth/provider/native"
	"github.com/danmarauda/araps-mobile-app/internal/auth/provider/workos"
	"github.com/danmarauda/araps-mobile-app/internal/auth/resolver"
	"github.com/danmarauda/araps-mobile-app/internal/backend"
	"github.com/danmarauda/araps-mobile-app/internal/config"
	"github.com/danmarauda/araps-mobile-app/internal/credstore"
	"github.com/danmarauda/araps-mobile-app/internal/db"
	"github.com/danmarauda/araps-mobile-app/internal/logger"
	"github.com/danmarauda/araps-mobile-app/internal/middleware"
	"github.com/danmarauda/araps-mobile-app/internal/session"
)

// buildManager assembles the provider registry, native adapter, biometric
// gate and directory around the session manager.
func buildManager(
	ctx context.Context,
	cfg config.Config,
	store credstore.Store,
	database *db.DB,
) (*session.Manager, *native.Adapter, error) {

	workosProvider, err := workos.New(workos.Config{
		ClientID:     cfg.WorkOSClientID,
		AuthorizeURL: cfg.AuthorizeURL,
		TokenURL:     cfg.TokenURL,
		RedirectURI:  cfg.RedirectURI,
	}, store, &workos.LoopbackAuthorizer{RedirectURI: cfg.RedirectURI})
	if err != nil {
		return nil, nil, err
	}

	// The native prompt has no headless surface; the platform bridge posts
	// the credential to /auth/native/complete instead.
	var verifier native.TokenVerifier
	if cfg.NativeIssuer != "" && cfg.NativeClientID != "" {
		v, err := native.NewOIDCVerifier(ctx, cfg.NativeIssuer, cfg.NativeClientID)
		if err != nil {
			logger.Warn("native token verifier unavailable", map[string]any{"error": err.Error()})
		} else {
			verifier = v
		}
	}
	adapter := native.New(native.PromptFunc(func(ctx context.Context) error {
		logger.Info("native sign-in prompt requested", nil)
		return nil
	}), verifier)

	manager := session.NewManager(session.Deps{
		Providers: provider.NewRegistry(workosProvider),
		Native:    adapter,
		Gate:      biometric.NewGate(nil),
		Store:     store,
		Directory: resolver.NewDBResolver(database, cfg.DefaultOrganizationName, cfg.DefaultOrganizationSlug),
		Backend:   backend.New(cfg.BackendURL),
		OnChange: func(s session.State) {
			logger.Info("auth state changed", map[string]any{"state": string(s)})
		},
	})

	return manager, adapter, nil
}

func buildRouter(manager *session.Manager, adapter *native.Adapter) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	local := router.Group("/", middleware.RequireLoopback())

	local.GET("/auth/state", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"state":         manager.State(),
			"user":          manager.User(),
			"organization":  manager.Organization(),
			"organizations": organizationViews(manager.Organizations()),
		})
	})

	local.GET("/auth/organizations", func(c *gin.Context) {
		orgs, err := manager.KnownOrganizations(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"organizations": organizationViews(orgs)})
	})

	local.POST("/auth/login/:provider", func(c *gin.Context) {
		name := c.Param("provider")

		var err error
		if name == native.Name {
			err = manager.SignInWithNative(c.Request.Context())
		} else {
			err = manager.Login(c.Request.Context(), name)
		}
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"state": manager.State()})
	})

	local.POST("/auth/native/complete", func(c *gin.Context) {
		var cred native.Credential
		if err := c.ShouldBindJSON(&cred); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid credential payload"})
			return
		}
		adapter.Complete(cred)
		c.Status(http.StatusAccepted)
	})

	local.POST("/auth/native/fail", func(c *gin.Context) {
		var body struct {
			Cancelled bool   `json:"cancelled"`
			Reason    string `json:"reason"`
		}
		_ = c.ShouldBindJSON(&body)

		if body.Cancelled {
			adapter.Fail(auth.ErrUserCancelled)
		} else {
			adapter.Fail(auth.ErrInvalidCredential)
		}
		c.Status(http.StatusAccepted)
	})

	local.POST("/auth/biometric", func(c *gin.Context) {
		if err := manager.SignInWithBiometrics(c.Request.Context()); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"state": manager.State()})
	})

	local.POST("/auth/logout", func(c *gin.Context) {
		if err := manager.Logout(c.Request.Context()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"state": manager.State()})
	})

	local.POST("/auth/organizations/switch", func(c *gin.Context) {
		if err := manager.SwitchOrganization(c.Request.Context()); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"state":         manager.State(),
			"organizations": organizationViews(manager.Organizations()),
		})
	})

	local.POST("/auth/organizations/:id/select", func(c *gin.Context) {
		if err := manager.SelectOrganization(c.Request.Context(), c.Param("id")); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"state":        manager.State(),
			"organization": manager.Organization(),
		})
	})

	return router
}

type organizationView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
	Tier string `json:"tier"`
}

func organizationViews(orgs []resolver.Organization) []organizationView {
	out := make([]organizationView, 0, len(orgs))
	for _, org := range orgs {
		out = append(out, organizationView{
			ID:   org.ID.String(),
			Name: org.Name,
			Slug: org.Slug,
			Tier: org.Tier,
		})
	}
	return out
}
