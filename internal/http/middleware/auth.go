package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/collection-listing/internal/http/response"
	pkgerrors "github.com/yungbote/collection-listing/internal/pkg/errors"
	"github.com/yungbote/collection-listing/internal/platform/ctxutil"
	"github.com/yungbote/collection-listing/internal/platform/logger"
	"github.com/yungbote/collection-listing/internal/services"
)

const bearerPrefix = "bearer "

type AuthMiddleware struct {
	log  *logger.Logger
	auth services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "Auth"), auth: authService}
}

// OptionalAuth attaches the caller when a bearer token is present. Requests
// without one continue anonymously; invalid tokens are rejected.
func (am *AuthMiddleware) OptionalAuth() gin.HandlerFunc { return am.authenticate(false) }

// RequireAuth rejects requests that carry no valid token. A principal
// attached by an earlier OptionalAuth is accepted as is.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc { return am.authenticate(true) }

func (am *AuthMiddleware) authenticate(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil && rd.Principal != "" {
			c.Next()
			return
		}
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			if required {
				am.reject(c)
				return
			}
			c.Next()
			return
		}
		ctx, err := am.auth.SetContextFromToken(c.Request.Context(), token)
		if err != nil {
			am.log.Debug("Rejected request token", "path", c.Request.URL.Path, "error", err)
			am.reject(c)
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (am *AuthMiddleware) reject(c *gin.Context) {
	response.RespondError(c, http.StatusUnauthorized, "unauthorized", pkgerrors.ErrUnauthorized)
	c.Abort()
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}
