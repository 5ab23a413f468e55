package handlers

import (
	"context"

	"github.com/AtoyanMikhail/accounts/internal/auth"
	"github.com/AtoyanMikhail/accounts/internal/users"
)

// AuthService is the token lifecycle surface the handlers depend on.
type AuthService interface {
	Issue(ctx context.Context, userID int64) (*auth.TokenPair, error)
	VerifyAccess(ctx context.Context, tokenString string) (int64, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.RefreshResult, error)
	Logout(ctx context.Context, userID int64, refreshToken string)
	GeneratePasswordReset(ctx context.Context, userID int64) (string, error)
	ConsumePasswordReset(ctx context.Context, tokenString, newPassword string) error
}

// UserService is the account management surface the handlers depend on.
type UserService interface {
	Register(ctx context.Context, params users.RegisterParams) (*users.User, error)
	Authenticate(ctx context.Context, identifier, password string) (*users.User, error)
	ResolveActive(ctx context.Context, id int64) (*users.User, error)
	GetByEmail(ctx context.Context, email string) (*users.User, error)
	UpdatePassword(ctx context.Context, id int64, oldPassword, newPassword string) error
	UpdateProfile(ctx context.Context, id int64, update users.ProfileUpdate) (*users.User, error)
	SoftDelete(ctx context.Context, id int64) error
	RecordLogin(ctx context.Context, id int64, ip string) error
}

// ResetNotifier delivers password-reset tokens out of band. Actual delivery
// (email, SMS) lives outside this service.
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, user *users.User, resetToken string) error
}
