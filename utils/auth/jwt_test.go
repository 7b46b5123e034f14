package auth

import (
	"errors"
	"testing"
	"time"
)

func testManager(expiry time.Duration) *JWTManager {
	return NewJWTManager(JWTConfig{
		Secret:        "test-secret",
		Expiry:        expiry,
		RefreshExpiry: 2 * expiry,
		Issuer:        "campus-api-test",
	})
}

func TestGenerateAndValidateToken(t *testing.T) {
	m := testManager(time.Hour)

	token, err := m.GenerateToken(7, 3, "user@example.edu", "admin", 1)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != 7 || claims.UniversityID != 3 {
		t.Errorf("claims = %+v", claims)
	}
	if claims.TokenType != "access" {
		t.Errorf("TokenType = %q, want access", claims.TokenType)
	}
	if claims.TokenVersion != 1 {
		t.Errorf("TokenVersion = %d, want 1", claims.TokenVersion)
	}
	if claims.ID == "" {
		t.Error("JTI should be set")
	}
}

func TestRefreshTokenType(t *testing.T) {
	m := testManager(time.Hour)

	token, err := m.GenerateRefreshToken(7, 3, "user@example.edu", "student", 0)
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}
	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.TokenType != "refresh" {
		t.Errorf("TokenType = %q, want refresh", claims.TokenType)
	}
}

func TestExpiredToken(t *testing.T) {
	m := testManager(-time.Minute)

	token, err := m.GenerateToken(1, 1, "user@example.edu", "student", 0)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := m.ValidateToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("got %v, want ErrExpiredToken", err)
	}
}

func TestTokenFromOtherSecretRejected(t *testing.T) {
	token, err := testManager(time.Hour).GenerateToken(1, 1, "user@example.edu", "student", 0)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	other := NewJWTManager(JWTConfig{Secret: "different-secret", Expiry: time.Hour})
	if _, err := other.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("got %v, want ErrInvalidToken", err)
	}
}
