package auth

import (
	"context"
	"errors"

	"github.com/AtoyanMikhail/accounts/internal/cache"
	"github.com/AtoyanMikhail/accounts/internal/config"
	"github.com/AtoyanMikhail/accounts/internal/logger"
	"github.com/AtoyanMikhail/accounts/internal/token"
	"github.com/AtoyanMikhail/accounts/internal/users"
)

// SubjectResolver answers whether a token subject is still eligible and
// applies credential updates. Implemented by the users service.
type SubjectResolver interface {
	ResolveActive(ctx context.Context, id int64) (*users.User, error)
	ResolveAny(ctx context.Context, id int64) (*users.User, error)
	UpdateCredential(ctx context.Context, id int64, newPassword string) error
}

// TokenPair is the result of issuing a new session.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	UserID       int64  `json:"user_id"`
}

// RefreshResult is the result of rotating an access token.
type RefreshResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Service orchestrates the token lifecycle: issuance, verification, refresh,
// logout and password-reset tokens. It holds no mutable state of its own; all
// session state lives in the token store, so it is safe for concurrent use.
type Service struct {
	codec    *token.Codec
	store    cache.TokenStore
	subjects SubjectResolver
	cfg      config.JWTConfig
	l        logger.Logger
}

func NewService(codec *token.Codec, store cache.TokenStore, subjects SubjectResolver, cfg config.JWTConfig, l logger.Logger) *Service {
	return &Service{
		codec:    codec,
		store:    store,
		subjects: subjects,
		cfg:      cfg,
		l:        l,
	}
}

// Issue creates an access/refresh token pair for a user whose credentials
// have already been checked. The refresh token is written into the user's
// single slot, invalidating any refresh token from a previous login.
func (s *Service) Issue(ctx context.Context, userID int64) (*TokenPair, error) {
	accessTTL := s.cfg.AccessTokenTTL.Std()
	refreshTTL := s.cfg.RefreshTokenTTL.Std()

	accessToken, err := s.codec.Encode(userID, token.KindAccess, accessTTL)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.codec.Encode(userID, token.KindRefresh, refreshTTL)
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveRefreshToken(ctx, userID, refreshToken, refreshTTL); err != nil {
		return nil, err
	}

	s.l.Info("Token pair issued", logger.Int64("user_id", userID))

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(accessTTL.Seconds()),
		UserID:       userID,
	}, nil
}

// VerifyAccess checks the token's signature, expiry and kind, then confirms
// the subject still exists and is active. Returns the subject id.
func (s *Service) VerifyAccess(ctx context.Context, tokenString string) (int64, error) {
	claims, err := s.codec.Decode(tokenString)
	if err != nil {
		return 0, err
	}

	if claims.TokenType != token.KindAccess {
		s.l.Warn("Wrong token kind for access verification",
			logger.String("token_type", string(claims.TokenType)))
		return 0, ErrInvalidTokenKind
	}

	if _, err := s.subjects.ResolveActive(ctx, claims.UserID); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			s.l.Warn("Token subject missing or inactive",
				logger.Int64("user_id", claims.UserID))
			return 0, ErrSubjectNotFound
		}
		return 0, err
	}

	return claims.UserID, nil
}

// Refresh mints a new access token against a still-valid refresh token. Only
// the most recently issued refresh token is honored: the presented token must
// exactly match the user's stored slot. The refresh token itself is not
// rotated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	claims, err := s.codec.Decode(refreshToken)
	if err != nil {
		return nil, err
	}

	if claims.TokenType != token.KindRefresh {
		s.l.Warn("Wrong token kind for refresh",
			logger.String("token_type", string(claims.TokenType)))
		return nil, ErrInvalidTokenKind
	}

	if _, err := s.subjects.ResolveActive(ctx, claims.UserID); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, err
	}

	stored, err := s.store.GetRefreshToken(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, cache.ErrKeyNotFound) {
			return nil, ErrStaleToken
		}
		return nil, err
	}
	if stored != refreshToken {
		s.l.Warn("Superseded refresh token presented",
			logger.Int64("user_id", claims.UserID))
		return nil, ErrStaleToken
	}

	accessTTL := s.cfg.AccessTokenTTL.Std()
	accessToken, err := s.codec.Encode(claims.UserID, token.KindAccess, accessTTL)
	if err != nil {
		return nil, err
	}

	s.l.Info("Access token refreshed", logger.Int64("user_id", claims.UserID))

	return &RefreshResult{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(accessTTL.Seconds()),
	}, nil
}

// Logout clears the user's refresh-token slot and, when a refresh token is
// supplied and still decodable, blacklists its jti for the remainder of its
// lifetime. Logout never fails: a user must always be able to log out, so
// decode and store errors are logged and swallowed.
func (s *Service) Logout(ctx context.Context, userID int64, refreshToken string) {
	if err := s.store.DeleteRefreshToken(ctx, userID); err != nil {
		s.l.Warn("Failed to clear refresh token slot on logout",
			logger.Int64("user_id", userID),
			logger.Error(err))
	}

	if refreshToken == "" {
		s.l.Info("User logged out", logger.Int64("user_id", userID))
		return
	}

	claims, err := s.codec.Decode(refreshToken)
	if err != nil {
		// Expired or garbage tokens can't be replayed anyway.
		s.l.Debug("Skipping blacklist of undecodable token on logout",
			logger.Int64("user_id", userID),
			logger.Error(err))
		return
	}

	if err := s.store.BlacklistToken(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		s.l.Warn("Failed to blacklist refresh token on logout",
			logger.Int64("user_id", userID),
			logger.Error(err))
	}

	s.l.Info("User logged out", logger.Int64("user_id", userID))
}

// GeneratePasswordReset issues a reset token and stores it as the user's
// single pending reset, replacing any earlier one.
func (s *Service) GeneratePasswordReset(ctx context.Context, userID int64) (string, error) {
	resetTTL := s.cfg.ResetTokenTTL.Std()

	resetToken, err := s.codec.Encode(userID, token.KindReset, resetTTL)
	if err != nil {
		return "", err
	}

	if err := s.store.SavePasswordResetToken(ctx, userID, resetToken, resetTTL); err != nil {
		return "", err
	}

	s.l.Info("Password reset token generated", logger.Int64("user_id", userID))

	return resetToken, nil
}

// VerifyPasswordReset validates a reset token and returns its subject. Unlike
// access verification this accepts inactive subjects, so a suspended user can
// still recover their account; soft-deleted users remain excluded.
func (s *Service) VerifyPasswordReset(ctx context.Context, tokenString string) (*users.User, error) {
	claims, err := s.codec.Decode(tokenString)
	if err != nil {
		return nil, err
	}

	if claims.TokenType != token.KindReset {
		s.l.Warn("Wrong token kind for password reset",
			logger.String("token_type", string(claims.TokenType)))
		return nil, ErrInvalidTokenKind
	}

	user, err := s.subjects.ResolveAny(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, err
	}

	return user, nil
}

// ConsumePasswordReset verifies the reset token, updates the subject's
// credential and deletes the pending reset record. The token must still match
// the stored record, so a reset token can be consumed at most once and a
// superseded one is rejected.
func (s *Service) ConsumePasswordReset(ctx context.Context, tokenString, newPassword string) error {
	user, err := s.VerifyPasswordReset(ctx, tokenString)
	if err != nil {
		return err
	}

	stored, err := s.store.GetPasswordResetToken(ctx, user.ID)
	if err != nil {
		if errors.Is(err, cache.ErrKeyNotFound) {
			return ErrStaleToken
		}
		return err
	}
	if stored != tokenString {
		s.l.Warn("Superseded password reset token presented",
			logger.Int64("user_id", user.ID))
		return ErrStaleToken
	}

	if err := s.subjects.UpdateCredential(ctx, user.ID, newPassword); err != nil {
		return err
	}

	if err := s.store.DeletePasswordResetToken(ctx, user.ID); err != nil {
		return err
	}

	s.l.Info("Password reset completed", logger.Int64("user_id", user.ID))

	return nil
}
