package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token lifetimes.
const (
	AccessTokenTTL = 30 * time.Minute
	// RefreshTokenTTL bounds how long a session can be renewed.
	RefreshTokenTTL = 7 * 24 * time.Hour
	// RefreshedAccessTTL is the shorter lifetime of access tokens
	// minted from a refresh token.
	RefreshedAccessTTL = 15 * time.Minute
)

// Claims are the session claims carried by every issued token.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 session tokens.
type TokenManager struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewTokenManager builds a token manager from the signing secret.
func NewTokenManager(secret, issuer string) (*TokenManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	return &TokenManager{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

// SignAccess issues an access token for the identity.
func (m *TokenManager) SignAccess(id Identity) (string, error) {
	return m.sign(id, AccessTokenTTL)
}

// SignRefresh issues a refresh token for the identity.
func (m *TokenManager) SignRefresh(id Identity) (string, error) {
	return m.sign(id, RefreshTokenTTL)
}

// SignRefreshedAccess issues the short-lived access token minted on a
// refresh.
func (m *TokenManager) SignRefreshedAccess(id Identity) (string, error) {
	return m.sign(id, RefreshedAccessTTL)
}

func (m *TokenManager) sign(id Identity, ttl time.Duration) (string, error) {
	now := m.now()
	claims := Claims{
		Email: id.Email,
		Role:  string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the token signature and registered claims and returns
// the embedded identity claims.
func (m *TokenManager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithTimeFunc(func() time.Time { return m.now() }))
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// Identity resolves the claims into a caller identity.
func (c *Claims) Identity() Identity {
	return Identity{
		ID:    c.Subject,
		Email: c.Email,
		Role:  ParseRole(c.Role),
	}
}

// RemainingValidity reports how long the token stays valid from now;
// zero when already expired. Used to size the denylist TTL on
// sign-out.
func (m *TokenManager) RemainingValidity(c *Claims) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	remaining := c.ExpiresAt.Time.Sub(m.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}
