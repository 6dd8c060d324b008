package workos

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/danmarauda/araps-mobile-app/internal/auth"
)

// Authorizer runs the interactive authorization step: it presents authURL to
// the user and resolves with the callback URL the identity provider
// redirected to. Cancelling ctx is the user dismissing the surface.
type Authorizer interface {
	Authorize(ctx context.Context, authURL string) (*url.URL, error)
}

const callbackPage = `<!doctype html><html><body>
<p>Signed in. You can close this window and return to ARAPS.</p>
</body></html>`

// LoopbackAuthorizer serves the redirect URI on the loopback interface,
// opens the system browser at the authorization URL and waits for exactly
// one callback.
type LoopbackAuthorizer struct {
	RedirectURI string

	// OpenBrowser overrides how the authorization URL is presented.
	// Defaults to the platform browser launcher.
	OpenBrowser func(target string) error
}

func (a *LoopbackAuthorizer) Authorize(ctx context.Context, authURL string) (*url.URL, error) {
	redirect, err := url.Parse(a.RedirectURI)
	if err != nil {
		return nil, fmt.Errorf("workos: invalid redirect uri: %w", err)
	}

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("workos: callback listener: %w", err)
	}

	// Buffered so a late redirect after cancellation cannot wedge the
	// handler goroutine.
	result := make(chan *url.URL, 1)

	router := gin.New()
	router.Use(gin.Recovery())
	router.GET(redirect.Path, func(c *gin.Context) {
		callback := *redirect
		callback.RawQuery = c.Request.URL.RawQuery

		select {
		case result <- &callback:
		default:
		}

		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(callbackPage))
	})

	server := &http.Server{Handler: router}
	go func() { _ = server.Serve(listener) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	open := a.OpenBrowser
	if open == nil {
		open = openBrowser
	}
	if err := open(authURL); err != nil {
		return nil, fmt.Errorf("workos: open authorization url: %w", err)
	}

	select {
	case callback := <-result:
		return callback, nil
	case <-ctx.Done():
		return nil, auth.ErrUserCancelled
	}
}

func openBrowser(target string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", target).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", target).Start()
	default:
		return exec.Command("xdg-open", target).Start()
	}
}
