package handlers

import (
	"context"
	"net/http"

	"github.com/AtoyanMikhail/accounts/internal/cache"
	"github.com/AtoyanMikhail/accounts/internal/logger"
	"github.com/AtoyanMikhail/accounts/internal/users"
	"github.com/gin-gonic/gin"
)

// HealthHandler reports liveness and cache connectivity.
type HealthHandler struct {
	cache cache.Cache
}

func NewHealthHandler(c cache.Cache) *HealthHandler {
	return &HealthHandler{cache: c}
}

func (h *HealthHandler) Health(c *gin.Context) {
	if err := h.cache.Ping(c.Request.Context()); err != nil {
		sendError(c, http.StatusServiceUnavailable, "cache unavailable")
		return
	}
	sendSuccess(c, http.StatusOK, "ok", nil)
}

// LogNotifier is the default ResetNotifier: it records that a reset token was
// produced without delivering it anywhere. Real delivery transports plug in
// via the ResetNotifier interface.
type LogNotifier struct {
	L logger.Logger
}

func (n LogNotifier) SendPasswordReset(_ context.Context, user *users.User, _ string) error {
	n.L.Info("Password reset token ready for delivery",
		logger.Int64("user_id", user.ID),
		logger.String("email", user.Email))
	return nil
}
