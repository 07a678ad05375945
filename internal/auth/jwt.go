// Package auth provides bearer token authentication for the UI bridge and the
// development backend. Tokens are HS256 JWTs carrying the caller's roles.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"evalgo.org/schemaeditor/internal/config"
)

var (
	// ErrInvalidToken is returned when a JWT token is invalid
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when a JWT token has expired
	ErrExpiredToken = errors.New("token has expired")
	// ErrMissingSubject is returned when a token is requested without a subject
	ErrMissingSubject = errors.New("token subject is required")
)

// Role grants access to a class of operations.
type Role string

const (
	// RoleRead allows reading schemas and store state.
	RoleRead Role = "read"
	// RoleWrite allows editing and submitting schemas.
	RoleWrite Role = "write"
)

// ParseRole maps a role name to a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleRead, RoleWrite:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Claims represents JWT custom claims
type Claims struct {
	Roles []Role `json:"roles"`
	jwt.RegisteredClaims
}

// Has reports whether the claims grant role. RoleWrite implies RoleRead.
func (c *Claims) Has(role Role) bool {
	for _, r := range c.Roles {
		if r == role || (r == RoleWrite && role == RoleRead) {
			return true
		}
	}
	return false
}

// JWTService issues and validates tokens
type JWTService struct {
	secret     []byte
	expiration time.Duration
	issuer     string
}

// NewJWTService creates a new JWT service from the security settings
func NewJWTService(cfg config.SecurityConfig) *JWTService {
	return &JWTService{
		secret:     []byte(cfg.JWTSecret),
		expiration: cfg.JWTExpiration,
		issuer:     "schemaeditor",
	}
}

// GenerateToken signs a token for subject with the given roles. A zero
// expiration on the service produces a token without expiry.
func (s *JWTService) GenerateToken(subject string, roles ...Role) (string, error) {
	if subject == "" {
		return "", ErrMissingSubject
	}
	if len(roles) == 0 {
		roles = []Role{RoleRead}
	}

	now := time.Now()
	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Subject:   subject,
		},
	}
	if s.expiration != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.expiration))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
