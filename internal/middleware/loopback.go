package middleware

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireLoopback rejects requests that did not originate on this machine.
// The control API drives a local terminal session and must never be reachable
// from the network.
func RequireLoopback() gin.HandlerFunc {
	return func(c *gin.Context) {
		host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
		if err != nil {
			host = c.Request.RemoteAddr
		}

		ip := net.ParseIP(host)
		if ip == nil || !ip.IsLoopback() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "local access only",
			})
			return
		}

		c.Next()
	}
}
