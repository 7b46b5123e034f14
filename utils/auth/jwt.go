package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// JWTConfig holds JWT manager configuration
type JWTConfig struct {
	Secret        string
	Expiry        time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

// Claims are the session claims carried by an access or refresh token. The
// university id is the acting tenant for every scoped operation.
type Claims struct {
	UserID       uint   `json:"user_id"`
	UniversityID uint   `json:"university_id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	TokenType    string `json:"token_type"` // access, refresh
	TokenVersion int    `json:"token_version"`
	jwt.RegisteredClaims
}

// JWTManager issues and validates session tokens. Authentication itself is
// delegated to the external identity provider; these tokens only carry the
// resulting session.
type JWTManager struct {
	config JWTConfig
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(config JWTConfig) *JWTManager {
	return &JWTManager{config: config}
}

// GenerateToken creates a signed access token for a user
func (m *JWTManager) GenerateToken(userID, universityID uint, email, role string, tokenVersion int) (string, error) {
	return m.generate(userID, universityID, email, role, tokenVersion, "access", m.config.Expiry)
}

// GenerateRefreshToken creates a signed refresh token for a user
func (m *JWTManager) GenerateRefreshToken(userID, universityID uint, email, role string, tokenVersion int) (string, error) {
	return m.generate(userID, universityID, email, role, tokenVersion, "refresh", m.config.RefreshExpiry)
}

func (m *JWTManager) generate(userID, universityID uint, email, role string, tokenVersion int, tokenType string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:       userID,
		UniversityID: universityID,
		Email:        email,
		Role:         role,
		TokenType:    tokenType,
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.Secret))
}

// ValidateToken parses and validates a signed token
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(m.config.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
