package httpapi

import (
	"errors"
	"net/http"

	"inbox-platform/internal/auth"
	"inbox-platform/internal/connections"
	"inbox-platform/internal/inbox"
	"inbox-platform/internal/user"
	"inbox-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// abortWithError maps service errors onto HTTP statuses. Client-facing
// messages come from the sentinel errors; anything unmapped is a 500
// with the detail kept in the log only.
func abortWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidRequest),
		errors.Is(err, auth.ErrOTPNotFound),
		errors.Is(err, auth.ErrOTPExpired),
		errors.Is(err, auth.ErrOTPMismatch),
		errors.Is(err, connections.ErrInvalidRequest),
		errors.Is(err, connections.ErrInvalidType),
		errors.Is(err, connections.ErrInvalidCredential),
		errors.Is(err, inbox.ErrInvalidRequest):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, auth.ErrUnauthorized):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})

	case errors.Is(err, user.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, connections.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "connection not found"})
	case errors.Is(err, inbox.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "thread not found"})

	case errors.Is(err, connections.ErrConflict):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "connection of this type already exists"})

	default:
		logger.From(c.Request.Context()).Error("request failed", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
