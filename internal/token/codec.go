package token

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AtoyanMikhail/accounts/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

// Kind is the token kind carried in the token_type claim. A token's kind is
// fixed at issuance and must be checked on every verification.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
	KindReset   Kind = "reset"
)

var (
	// ErrMalformed means the string is not a structurally valid token.
	ErrMalformed = errors.New("malformed token")
	// ErrBadSignature means signature verification failed.
	ErrBadSignature = errors.New("invalid token signature")
	// ErrExpired means the token's expiry has been reached.
	ErrExpired = errors.New("token expired")
)

// Claims is the signed payload of every token issued by this service.
type Claims struct {
	UserID    int64 `json:"user_id"`
	TokenType Kind  `json:"token_type"`
	jwt.RegisteredClaims
}

// Codec encodes and decodes signed tokens. It is stateless and safe for
// concurrent use.
type Codec struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

// NewCodec creates a codec for the configured signing algorithm and secret.
func NewCodec(cfg config.JWTConfig) (*Codec, error) {
	method := jwt.GetSigningMethod(cfg.Algorithm)
	if method == nil {
		return nil, fmt.Errorf("unsupported signing algorithm: %s", cfg.Algorithm)
	}

	return &Codec{
		secret: []byte(cfg.SecretKey),
		method: method,
		now:    time.Now,
	}, nil
}

// Encode builds and signs a token of the given kind for the user. Timestamps
// are truncated to whole seconds; the jti claim is a fresh random id so the
// token can be individually blacklisted later.
func (c *Codec) Encode(userID int64, kind Kind, ttl time.Duration) (string, error) {
	jti, err := newTokenID()
	if err != nil {
		return "", fmt.Errorf("failed to generate token id: %w", err)
	}

	now := c.now().Truncate(time.Second)
	claims := Claims{
		UserID:    userID,
		TokenType: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Decode verifies the signature and expiry and returns the claims.
// A token is expired the instant its exp second is reached: now >= exp.
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	// Reject anything that isn't three dot-separated segments up front, so
	// garbage input surfaces as ErrMalformed rather than a library error.
	if strings.Count(tokenString, ".") != 2 {
		return nil, ErrMalformed
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return c.now() }),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrBadSignature
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformed
		default:
			return nil, fmt.Errorf("failed to parse token: %w", err)
		}
	}

	if !parsed.Valid {
		return nil, ErrMalformed
	}

	return claims, nil
}

// newTokenID returns a url-safe random id with 16 bytes of entropy.
func newTokenID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
