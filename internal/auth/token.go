package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken indicates a malformed, forged or mis-signed token.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken indicates the token's validity window has passed.
	ErrExpiredToken = errors.New("token expired")
	// ErrNotAdmin indicates the token belongs to a non-administrator.
	ErrNotAdmin = errors.New("token does not carry the admin role")
)

// AdminClaims carries the verified identity of an administrator calling the
// privileged user-management API.
type AdminClaims struct {
	UserID   int64  `json:"uid"`
	Email    string `json:"email"`
	RoleName string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies HS256 bearer tokens for the admin API.
// Browser traffic keeps using cookie sessions; the token exists so the admin
// console can call the privileged endpoints without ambient browser state.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer constructs a TokenIssuer.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for the given user. Only admin accounts get one.
func (t *TokenIssuer) Issue(user *User) (string, error) {
	if user == nil || user.Role != RoleAdmin {
		return "", ErrNotAdmin
	}
	now := time.Now()
	claims := AdminClaims{
		UserID:   user.ID,
		Email:    user.Email,
		RoleName: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify parses a bearer token (with or without the "Bearer " prefix) and
// returns the admin claims it carries.
func (t *TokenIssuer) Verify(raw string) (*AdminClaims, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
	if raw == "" {
		return nil, ErrInvalidToken
	}
	claims := &AdminClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.RoleName != string(RoleAdmin) {
		return nil, ErrNotAdmin
	}
	return claims, nil
}
