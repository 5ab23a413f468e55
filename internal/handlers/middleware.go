package handlers

import (
	"net/http"
	"strings"

	"github.com/AtoyanMikhail/accounts/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// ContextUserID is the gin context key holding the authenticated user id.
	ContextUserID = "user_id"
	// HeaderRequestID carries the per-request correlation id.
	HeaderRequestID = "X-Request-ID"
)

// RequestID attaches a correlation id to every request, generating one when
// the client didn't send its own.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(HeaderRequestID, requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}

// RequireAuth extracts the Bearer token, verifies it as an access token and
// stores the subject id in the request context. Any verification failure is a
// plain 401; the specific reason is logged, not exposed.
func RequireAuth(authService AuthService, l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			sendError(c, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			sendError(c, http.StatusUnauthorized, "Authorization header must be a Bearer token")
			return
		}

		userID, err := authService.VerifyAccess(c.Request.Context(), parts[1])
		if err != nil {
			l.Warn("Access token rejected", logger.Error(err))
			sendError(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		c.Set(ContextUserID, userID)
		c.Next()
	}
}

// userIDFromContext returns the authenticated user id set by RequireAuth.
func userIDFromContext(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
