package handlers

import (
	"errors"
	"net/http"

	"github.com/AtoyanMikhail/accounts/internal/logger"
	"github.com/AtoyanMikhail/accounts/internal/models"
	"github.com/AtoyanMikhail/accounts/internal/users"
	"github.com/gin-gonic/gin"
)

// UserHandler exposes registration and the current-user CRUD endpoints.
type UserHandler struct {
	userService UserService
	authService AuthService
	l           logger.Logger
}

func NewUserHandler(userService UserService, authService AuthService, l logger.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		authService: authService,
		l:           l,
	}
}

// Register creates a new account.
func (h *UserHandler) Register(c *gin.Context) {
	var req models.RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	user, err := h.userService.Register(c.Request.Context(), users.RegisterParams{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		Nickname:    req.Nickname,
		PhoneNumber: req.PhoneNumber,
		Bio:         req.Bio,
	})
	if err != nil {
		if errors.Is(err, users.ErrAlreadyExists) {
			sendError(c, http.StatusConflict, "Username or email already in use")
			return
		}
		h.l.Error("Registration failed", logger.Error(err))
		sendError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	sendSuccess(c, http.StatusCreated, "User registered successfully", user)
}

// Me returns the authenticated user.
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		sendError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	user, err := h.userService.ResolveActive(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			sendError(c, http.StatusNotFound, "User not found")
			return
		}
		h.l.Error("Failed to load current user", logger.Int64("user_id", userID), logger.Error(err))
		sendError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	sendSuccess(c, http.StatusOK, "", user)
}

// UpdateProfile applies partial profile changes to the authenticated user.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		sendError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req models.UpdateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, users.ProfileUpdate{
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Nickname:    req.Nickname,
		Bio:         req.Bio,
	})
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			sendError(c, http.StatusNotFound, "User not found")
			return
		}
		h.l.Error("Profile update failed", logger.Int64("user_id", userID), logger.Error(err))
		sendError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	sendSuccess(c, http.StatusOK, "Profile updated", user)
}

// ChangePassword changes the authenticated user's password after verifying
// the current one.
func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		sendError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req models.PasswordChangeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	if err := h.userService.UpdatePassword(c.Request.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, users.ErrInvalidCredentials):
			sendError(c, http.StatusUnauthorized, "Current password is incorrect")
		case errors.Is(err, users.ErrNotFound):
			sendError(c, http.StatusNotFound, "User not found")
		default:
			h.l.Error("Password change failed", logger.Int64("user_id", userID), logger.Error(err))
			sendError(c, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	sendSuccess(c, http.StatusOK, "Password updated", nil)
}

// DeleteMe soft deletes the authenticated user's account and ends the session.
func (h *UserHandler) DeleteMe(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		sendError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	if err := h.userService.SoftDelete(c.Request.Context(), userID); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			sendError(c, http.StatusNotFound, "User not found")
			return
		}
		h.l.Error("Account deletion failed", logger.Int64("user_id", userID), logger.Error(err))
		sendError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.authService.Logout(c.Request.Context(), userID, "")

	sendSuccess(c, http.StatusOK, "Account deleted", nil)
}
