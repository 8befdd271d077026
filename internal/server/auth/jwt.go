// Package auth issues and verifies the two token classes used by filekeeper:
// short-lived access tokens and non-expiring refresh tokens. Each class is
// signed with its own HMAC secret.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken covers malformed tokens, bad signatures and tokens of
	// the wrong class.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is only returned for access tokens.
	ErrTokenExpired = errors.New("token expired")
)

// Kind selects the token class.
type Kind int

const (
	KindAccess Kind = iota
	KindRefresh
)

func (k Kind) String() string {
	switch k {
	case KindAccess:
		return "access"
	case KindRefresh:
		return "refresh"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Claims carries the user identifier next to the registered claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"id"`
}

// TokenService signs and verifies tokens. It is safe for concurrent use.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	now           func() time.Time
}

type Option func(*TokenService)

// WithClock replaces time.Now for issuance and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) { s.now = now }
}

// NewTokenService fails unless both secrets are set and differ.
func NewTokenService(accessSecret, refreshSecret string, accessTTL time.Duration, opts ...Option) (*TokenService, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("token secrets must not be empty")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if accessTTL <= 0 {
		return nil, errors.New("access token ttl must be positive")
	}

	s := &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		now:           time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// IssueAccessToken returns an HS256 token for userID expiring accessTTL from now.
func (s *TokenService) IssueAccessToken(userID string) (string, error) {
	now := s.now()
	return s.sign(s.accessSecret, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
		UserID: userID,
	})
}

// IssueRefreshToken returns an HS256 token for userID without an expiry. A
// random jti keeps values unique per issuance.
func (s *TokenService) IssueRefreshToken(userID string) (string, error) {
	return s.sign(s.refreshSecret, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
		UserID: userID,
	})
}

func (s *TokenService) sign(secret []byte, claims Claims) (string, error) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Verify checks the signature with the secret of kind and, for access tokens,
// the expiry. It returns the embedded claims.
func (s *TokenService) Verify(tokenString string, kind Kind) (*Claims, error) {
	secret := s.refreshSecret
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if kind == KindAccess {
		secret = s.accessSecret
		opts = append(opts, jwt.WithExpirationRequired())
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		if kind == KindAccess && errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// UserIDFromAccessToken is a shortcut for Verify(token, KindAccess).UserID.
func (s *TokenService) UserIDFromAccessToken(tokenString string) (string, error) {
	claims, err := s.Verify(tokenString, KindAccess)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}
