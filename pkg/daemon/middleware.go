package daemon

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// bearerAuth gates every /rpc and artifact-download request behind the
// configured shared secret. An empty BearerToken disables the check, for
// local development against an otherwise-unauthenticated daemon — the
// same "header present, else reject" shape as pkg/api's auth gate,
// adapted from its oauth2-proxy header convention to a single shared
// bearer token since this daemon sits behind agents, not a browser.
func (s *Server) bearerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.BearerToken == "" {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" || token != s.cfg.BearerToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid bearer token"})
			return
		}
		c.Next()
	}
}
