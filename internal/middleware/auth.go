package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"docsearch/internal/pkg/authgw"
	"docsearch/internal/pkg/response"
)

// TokenVerifier is implemented by the auth gateway client.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (authgw.UserInfo, error)
}

// BearerAuth verifies the bearer token against the remote identity service
// and puts the resolved user id into the request context. The user id is an
// opaque tenant key; nothing beyond non-emptiness is assumed about it.
func BearerAuth(verifier TokenVerifier, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			response.AbortError(c, http.StatusUnauthorized, response.CodeUnauthorized, "Missing Authorization header")
			return
		}
		if !strings.HasPrefix(h, "Bearer ") {
			response.AbortError(c, http.StatusUnauthorized, response.CodeUnauthorized, "Invalid Authorization header")
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		if token == "" {
			response.AbortError(c, http.StatusUnauthorized, response.CodeUnauthorized, "Empty token")
			return
		}

		info, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			response.AbortError(c, http.StatusUnauthorized, response.CodeUnauthorized,
				"Invalid authentication credentials. Please check your token and ensure the auth service is accessible.")
			return
		}

		userID, ok := authgw.ResolveUserID(info)
		if !ok {
			fields := authgw.PresentFields(info)
			log.Warn("identity payload has no recognized id field", zap.Strings("fields", fields))
			response.AbortErrorWithDetails(c, http.StatusUnauthorized, response.CodeUnauthorized,
				"User ID not found in identity response",
				gin.H{"available_fields": fields})
			return
		}

		c.Set("user_id", userID)
		c.Set("user_info", info)

		c.Next()
	}
}

// UserID returns the authenticated tenant key, or "" with a 401 already
// written when it is absent.
func UserID(c *gin.Context) string {
	id := c.GetString("user_id")
	if id == "" {
		response.AbortError(c, http.StatusUnauthorized, response.CodeUnauthorized, "Authentication required")
	}
	return id
}
