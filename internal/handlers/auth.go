package handlers

import (
	"errors"
	"net/http"

	"github.com/AtoyanMikhail/accounts/internal/logger"
	"github.com/AtoyanMikhail/accounts/internal/models"
	"github.com/AtoyanMikhail/accounts/internal/users"
	"github.com/gin-gonic/gin"
)

// AuthHandler exposes the authentication endpoints: login, refresh, logout,
// token validation and the password-reset flow.
type AuthHandler struct {
	authService AuthService
	userService UserService
	notifier    ResetNotifier
	l           logger.Logger
	debugMode   bool
}

func NewAuthHandler(authService AuthService, userService UserService, notifier ResetNotifier, l logger.Logger, debugMode bool) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		notifier:    notifier,
		l:           l,
		debugMode:   debugMode,
	}
}

// Login authenticates by username, email or phone number and issues a token
// pair. A new login replaces any refresh token from a previous session.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	user, err := h.userService.Authenticate(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrInvalidCredentials):
			sendError(c, http.StatusUnauthorized, "Invalid credentials")
		case errors.Is(err, users.ErrNotActive):
			sendError(c, http.StatusForbidden, "Account is not active")
		default:
			h.l.Error("Login failed", logger.Error(err))
			sendError(c, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	pair, err := h.authService.Issue(c.Request.Context(), user.ID)
	if err != nil {
		h.l.Error("Failed to issue tokens", logger.Int64("user_id", user.ID), logger.Error(err))
		sendError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	// Login itself already succeeded, a failed audit stamp shouldn't undo it
	if err := h.userService.RecordLogin(c.Request.Context(), user.ID, c.ClientIP()); err != nil {
		h.l.Warn("Failed to record login", logger.Int64("user_id", user.ID), logger.Error(err))
	}

	sendSuccess(c, http.StatusOK, "Login successful", pair)
}

// Refresh exchanges a valid refresh token for a new access token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req models.RefreshReq
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.l.Warn("Token refresh rejected", logger.Error(err))
		sendError(c, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}

	sendSuccess(c, http.StatusOK, "Token refreshed", result)
}

// Logout invalidates the caller's session. It always succeeds.
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		sendError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req models.LogoutReq
	// The refresh token is optional and the body may be empty entirely
	_ = c.ShouldBindJSON(&req)

	h.authService.Logout(c.Request.Context(), userID, req.RefreshToken)

	sendSuccess(c, http.StatusOK, "Logout successful", nil)
}

// Validate reports whether the supplied access token is currently valid.
func (h *AuthHandler) Validate(c *gin.Context) {
	var req models.ValidateTokenReq
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	userID, err := h.authService.VerifyAccess(c.Request.Context(), req.Token)
	if err != nil {
		sendSuccess(c, http.StatusOK, "Token is invalid", models.ValidateTokenRes{Valid: false})
		return
	}

	sendSuccess(c, http.StatusOK, "Token is valid", models.ValidateTokenRes{Valid: true, UserID: userID})
}

// RequestPasswordReset starts the reset flow. The response is identical
// whether or not the email belongs to an account, so it can't be used to
// probe for registered addresses.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req models.PasswordResetReq
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	const acceptedMsg = "If the email is registered, a reset link has been sent"

	user, err := h.userService.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, users.ErrNotFound) {
			h.l.Error("Password reset lookup failed", logger.Error(err))
		}
		sendSuccess(c, http.StatusOK, acceptedMsg, nil)
		return
	}

	resetToken, err := h.authService.GeneratePasswordReset(c.Request.Context(), user.ID)
	if err != nil {
		h.l.Error("Failed to generate password reset token",
			logger.Int64("user_id", user.ID),
			logger.Error(err))
		sendError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.notifier.SendPasswordReset(c.Request.Context(), user, resetToken); err != nil {
		h.l.Error("Failed to deliver password reset token",
			logger.Int64("user_id", user.ID),
			logger.Error(err))
	}

	if h.debugMode {
		sendSuccess(c, http.StatusOK, acceptedMsg, gin.H{"reset_token": resetToken})
		return
	}

	sendSuccess(c, http.StatusOK, acceptedMsg, nil)
}

// ConfirmPasswordReset completes the reset flow with the token from the
// reset link and the new password.
func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var req models.PasswordResetConfirmReq
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	if err := h.authService.ConsumePasswordReset(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		h.l.Warn("Password reset rejected", logger.Error(err))
		sendError(c, http.StatusUnauthorized, "Invalid or expired reset token")
		return
	}

	sendSuccess(c, http.StatusOK, "Password has been reset", nil)
}
