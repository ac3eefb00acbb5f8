package auth

import (
	"errors"
	"net/http"
	"strings"

	"inbox-platform/internal/user"

	"github.com/gin-gonic/gin"
)

const authorizationHeader = "Authorization"
const bearerPrefix = "Bearer "

// RequireUser resolves the bearer token and injects the user into the
// request context. A valid token whose user no longer exists is a 404,
// everything else that fails is a 401.
func RequireUser(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(authorizationHeader))
		if raw == "" || !strings.HasPrefix(raw, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tok := strings.TrimPrefix(raw, bearerPrefix)

		u, err := s.ResolveToken(c.Request.Context(), tok)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "user not found"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Request = c.Request.WithContext(WithUser(c.Request.Context(), u))
		c.Set("user_id", u.ID)
		c.Next()
	}
}
