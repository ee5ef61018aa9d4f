package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-agenda/internal/auth"
	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
)

const (
	ContextUsername = "username"
	ContextUserRole = "userRole"
)

// AuthMiddleware rejects requests without a valid bearer token. When
// required is false it only records the caller if a valid token is sent.
func AuthMiddleware(tokens *auth.Tokens, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, code := bearerToken(c.GetHeader("Authorization"))
		if code != "" {
			if required {
				httperr.Abort(c, http.StatusUnauthorized, code, "a valid bearer token is required")
				return
			}
			c.Next()
			return
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			if required {
				httperr.Abort(c, http.StatusUnauthorized, "invalid_token", "token is invalid or expired")
				return
			}
			c.Next()
			return
		}

		c.Set(ContextUsername, claims.Username)
		c.Set(ContextUserRole, claims.Role)

		c.Next()
	}
}

func bearerToken(header string) (string, string) {
	if header == "" {
		return "", "missing_authorization_header"
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", "invalid_authorization_header"
	}
	return parts[1], ""
}

// Actor is the authenticated username, or "" for anonymous callers.
func Actor(c *gin.Context) string {
	return c.GetString(ContextUsername)
}
