package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/DCMX-Protocol/walletgate/core"
	"github.com/DCMX-Protocol/walletgate/service"
)

const (
	identityKey = "walletgate_identity"
	sessionKey  = "walletgate_session"
)

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(c *gin.Context) (string, bool) {
	auth := c.GetHeader("Authorization")
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// AuthMiddleware gates protected routes. Every failure collapses to
// the same generic 401 body; the specific error kind is only logged.
// On success the session and its identity projection are injected into
// the request context.
func AuthMiddleware(authService *service.AuthService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		session, err := authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			log.Debug("rejected bearer token",
				zap.String("path", c.FullPath()), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(sessionKey, session)
		c.Set(identityKey, &core.Identity{
			Address:     session.Address,
			PrincipalID: session.PrincipalID,
			Mode:        session.Mode,
		})
		c.Next()
	}
}

// IdentityFromContext returns the identity injected by AuthMiddleware.
func IdentityFromContext(c *gin.Context) (*core.Identity, bool) {
	val, exists := c.Get(identityKey)
	if !exists {
		return nil, false
	}
	identity, ok := val.(*core.Identity)
	return identity, ok
}

// SessionFromContext returns the session injected by AuthMiddleware.
func SessionFromContext(c *gin.Context) (*core.Session, bool) {
	val, exists := c.Get(sessionKey)
	if !exists {
		return nil, false
	}
	session, ok := val.(*core.Session)
	return session, ok
}
