package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/AtoyanMikhail/accounts/internal/logger"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotActive          = errors.New("user is not active")
)

// RegisterParams is the input for creating a new account.
type RegisterParams struct {
	Username    string
	Email       string
	Password    string
	Nickname    string
	PhoneNumber *string
	Bio         string
}

// ProfileUpdate carries optional profile changes; nil fields are left as is.
type ProfileUpdate struct {
	Email       *string
	PhoneNumber *string
	Nickname    *string
	Bio         *string
}

// Service implements account management on top of the user repository:
// registration, credential checks, profile updates and soft deletion. It also
// serves as the subject resolver for the token lifecycle.
type Service struct {
	repo Repository
	l    logger.Logger
}

func NewService(repo Repository, l logger.Logger) *Service {
	return &Service{repo: repo, l: l}
}

// Register creates a new active regular user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*User, error) {
	if _, err := s.repo.GetByUsername(ctx, params.Username); err == nil {
		return nil, fmt.Errorf("username %q: %w", params.Username, ErrAlreadyExists)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if _, err := s.repo.GetByEmail(ctx, params.Email); err == nil {
		return nil, fmt.Errorf("email %q: %w", params.Email, ErrAlreadyExists)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		Username:     params.Username,
		Email:        params.Email,
		PhoneNumber:  params.PhoneNumber,
		PasswordHash: string(hash),
		Nickname:     params.Nickname,
		Bio:          params.Bio,
		UserType:     TypeRegular,
		Status:       StatusActive,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.l.Info("User registered",
		logger.Int64("user_id", user.ID),
		logger.String("username", user.Username))

	return user, nil
}

// Authenticate checks the password for a user identified by username, email or
// phone number. An unknown identifier and a wrong password are
// indistinguishable to the caller; an inactive account is reported as such.
func (s *Service) Authenticate(ctx context.Context, identifier, password string) (*User, error) {
	user, err := s.lookupByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.l.Warn("Authentication failed", logger.Int64("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive() {
		s.l.Warn("Authentication rejected for inactive user",
			logger.Int64("user_id", user.ID),
			logger.String("status", user.Status))
		return nil, ErrNotActive
	}

	return user, nil
}

func (s *Service) lookupByIdentifier(ctx context.Context, identifier string) (*User, error) {
	user, err := s.repo.GetByUsername(ctx, identifier)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	user, err = s.repo.GetByEmail(ctx, identifier)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	return s.repo.GetByPhone(ctx, identifier)
}

// ResolveActive returns the user only if it exists, is not soft-deleted and
// has active status.
func (s *Service) ResolveActive(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetActiveByID(ctx, id)
}

// ResolveAny returns the user regardless of status, excluding soft-deleted
// accounts. Used by password-reset verification, which must work for users
// locked out of their account.
func (s *Service) ResolveAny(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateCredential replaces the user's password without checking the old one.
// Reserved for the password-reset flow; interactive changes go through
// UpdatePassword.
func (s *Service) UpdateCredential(ctx context.Context, id int64, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, id, string(hash)); err != nil {
		return err
	}

	s.l.Info("User password updated", logger.Int64("user_id", id))
	return nil
}

// UpdatePassword changes the password after verifying the current one.
func (s *Service) UpdatePassword(ctx context.Context, id int64, oldPassword, newPassword string) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrInvalidCredentials
	}

	return s.UpdateCredential(ctx, id, newPassword)
}

// UpdateProfile applies the non-nil fields of the update and returns the
// refreshed user.
func (s *Service) UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Email != nil {
		user.Email = *update.Email
	}
	if update.PhoneNumber != nil {
		user.PhoneNumber = update.PhoneNumber
	}
	if update.Nickname != nil {
		user.Nickname = *update.Nickname
	}
	if update.Bio != nil {
		user.Bio = *update.Bio
	}

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}

// GetByEmail looks up a user for the password-reset request flow.
func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// SoftDelete marks the account deleted; the row is kept for audit.
func (s *Service) SoftDelete(ctx context.Context, id int64) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.l.Info("User soft deleted", logger.Int64("user_id", id))
	return nil
}

// Restore reactivates a soft-deleted account.
func (s *Service) Restore(ctx context.Context, id int64) error {
	if err := s.repo.Restore(ctx, id); err != nil {
		return err
	}
	s.l.Info("User restored", logger.Int64("user_id", id))
	return nil
}

// RecordLogin stamps the last successful login time and source address.
func (s *Service) RecordLogin(ctx context.Context, id int64, ip string) error {
	return s.repo.RecordLogin(ctx, id, ip)
}
