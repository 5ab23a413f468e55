package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AtoyanMikhail/accounts/internal/logger"
)

// Key formats. Anything else reading the same store relies on these exact
// shapes, so they must not change.
const (
	RefreshTokenKeyFormat   = "refresh_token:%d"
	BlacklistTokenKeyFormat = "blacklist_token:%s"
	PasswordResetKeyFormat  = "password_reset:%d"
)

// TokenStore keeps the per-user refresh-token slot, the revoked-token
// blacklist and pending password-reset tokens in an expiring cache.
type TokenStore interface {
	SaveRefreshToken(ctx context.Context, userID int64, token string, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, userID int64) (string, error)
	DeleteRefreshToken(ctx context.Context, userID int64) error

	BlacklistToken(ctx context.Context, jti string, expiresAt time.Time) error
	IsTokenBlacklisted(ctx context.Context, jti string) (bool, error)

	SavePasswordResetToken(ctx context.Context, userID int64, token string, ttl time.Duration) error
	GetPasswordResetToken(ctx context.Context, userID int64) (string, error)
	DeletePasswordResetToken(ctx context.Context, userID int64) error
}

type tokenStore struct {
	cache  Cache
	logger logger.Logger
}

// NewTokenStore creates a token store on top of the given cache.
func NewTokenStore(cache Cache, l logger.Logger) TokenStore {
	return &tokenStore{
		cache:  cache,
		logger: l,
	}
}

// SaveRefreshToken overwrites the user's single refresh-token slot. A user has
// at most one live refresh token; a new login replaces the previous one.
func (s *tokenStore) SaveRefreshToken(ctx context.Context, userID int64, token string, ttl time.Duration) error {
	key := fmt.Sprintf(RefreshTokenKeyFormat, userID)

	if err := s.cache.Set(ctx, key, token, ttl); err != nil {
		s.logger.Error("Failed to save refresh token",
			logger.Int64("user_id", userID),
			logger.Error(err))
		return fmt.Errorf("failed to save refresh token: %w", err)
	}

	return nil
}

// GetRefreshToken returns the currently stored refresh token for the user, or
// ErrKeyNotFound if the slot is empty or expired.
func (s *tokenStore) GetRefreshToken(ctx context.Context, userID int64) (string, error) {
	key := fmt.Sprintf(RefreshTokenKeyFormat, userID)

	val, err := s.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return "", err
		}
		s.logger.Error("Failed to get refresh token",
			logger.Int64("user_id", userID),
			logger.Error(err))
		return "", fmt.Errorf("failed to get refresh token: %w", err)
	}

	return val, nil
}

// DeleteRefreshToken clears the user's refresh-token slot. Deleting an absent
// slot is not an error.
func (s *tokenStore) DeleteRefreshToken(ctx context.Context, userID int64) error {
	key := fmt.Sprintf(RefreshTokenKeyFormat, userID)

	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Error("Failed to delete refresh token",
			logger.Int64("user_id", userID),
			logger.Error(err))
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}

	return nil
}

// BlacklistToken marks the token id as revoked until expiresAt.
func (s *tokenStore) BlacklistToken(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)

	// An already expired token can't be replayed, don't store it
	if ttl <= 0 {
		s.logger.Debug("Token already expired, not adding to blacklist",
			logger.String("jti", jti))
		return nil
	}

	key := fmt.Sprintf(BlacklistTokenKeyFormat, jti)
	if err := s.cache.Set(ctx, key, "true", ttl); err != nil {
		s.logger.Error("Failed to blacklist token",
			logger.String("jti", jti),
			logger.Error(err))
		return fmt.Errorf("failed to blacklist token: %w", err)
	}

	s.logger.Info("Token blacklisted",
		logger.String("jti", jti),
		logger.String("ttl", ttl.String()))

	return nil
}

// IsTokenBlacklisted checks whether the token id has been revoked.
func (s *tokenStore) IsTokenBlacklisted(ctx context.Context, jti string) (bool, error) {
	key := fmt.Sprintf(BlacklistTokenKeyFormat, jti)

	exists, err := s.cache.Exists(ctx, key)
	if err != nil {
		s.logger.Error("Failed to check token blacklist status",
			logger.String("jti", jti),
			logger.Error(err))
		return false, fmt.Errorf("failed to check token blacklist status: %w", err)
	}

	return exists, nil
}

// SavePasswordResetToken overwrites the user's pending password-reset token.
func (s *tokenStore) SavePasswordResetToken(ctx context.Context, userID int64, token string, ttl time.Duration) error {
	key := fmt.Sprintf(PasswordResetKeyFormat, userID)

	if err := s.cache.Set(ctx, key, token, ttl); err != nil {
		s.logger.Error("Failed to save password reset token",
			logger.Int64("user_id", userID),
			logger.Error(err))
		return fmt.Errorf("failed to save password reset token: %w", err)
	}

	return nil
}

// GetPasswordResetToken returns the pending reset token for the user, or
// ErrKeyNotFound if none is pending.
func (s *tokenStore) GetPasswordResetToken(ctx context.Context, userID int64) (string, error) {
	key := fmt.Sprintf(PasswordResetKeyFormat, userID)

	val, err := s.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return "", err
		}
		s.logger.Error("Failed to get password reset token",
			logger.Int64("user_id", userID),
			logger.Error(err))
		return "", fmt.Errorf("failed to get password reset token: %w", err)
	}

	return val, nil
}

// DeletePasswordResetToken removes the pending reset token after consumption.
func (s *tokenStore) DeletePasswordResetToken(ctx context.Context, userID int64) error {
	key := fmt.Sprintf(PasswordResetKeyFormat, userID)

	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Error("Failed to delete password reset token",
			logger.Int64("user_id", userID),
			logger.Error(err))
		return fmt.Errorf("failed to delete password reset token: %w", err)
	}

	return nil
}
