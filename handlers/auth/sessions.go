package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/campusgrid/campus-api/model"
	"github.com/campusgrid/campus-api/services/identity"
	authutil "github.com/campusgrid/campus-api/utils/auth"
	"github.com/campusgrid/campus-api/utils/middleware"
	"github.com/campusgrid/campus-api/utils/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AuthHandler exchanges identity provider sessions for local API tokens.
// Credentials never touch this service; the provider authenticates the person
// and this handler only mints session tokens for the mirrored user.
type AuthHandler struct {
	db         *gorm.DB
	jwtManager *authutil.JWTManager
	identity   *identity.Client
	blacklist  *authutil.BlacklistService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *gorm.DB, jwtManager *authutil.JWTManager, identityClient *identity.Client) *AuthHandler {
	return &AuthHandler{
		db:         db,
		jwtManager: jwtManager,
		identity:   identityClient,
		blacklist:  authutil.NewBlacklistService(db),
	}
}

// SessionRequest carries the provider-issued session token to exchange
type SessionRequest struct {
	SessionToken string `json:"session_token"`
}

// SessionResponse represents a successful session exchange
type SessionResponse struct {
	User         model.User `json:"user"`
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresIn    int        `json:"expires_in"` // in seconds
}

// CreateSession handles POST /api/v1/auth/session
func (h *AuthHandler) CreateSession(c *fiber.Ctx) error {
	var req SessionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.SessionToken == "" {
		return response.BadRequest(c, "Session token is required")
	}

	account, err := h.identity.VerifySession(c.Context(), req.SessionToken)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return response.Unauthorized(c, "Invalid session")
		}
		return response.InternalServerError(c, "Failed to verify session")
	}

	var user model.User
	if err := h.db.Where("identity_id = ?", account.ID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.Unauthorized(c, "No local account for this identity")
		}
		return response.InternalServerError(c, "Failed to load user")
	}

	accessToken, err := h.jwtManager.GenerateToken(user.ID, user.UniversityID, user.Email, user.Role, user.TokenVersion)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate access token")
	}
	refreshToken, err := h.jwtManager.GenerateRefreshToken(user.ID, user.UniversityID, user.Email, user.Role, user.TokenVersion)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate refresh token")
	}

	return response.Success(c, SessionResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    24 * 60 * 60,
	})
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshToken handles POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.RefreshToken == "" {
		return response.BadRequest(c, "Refresh token is required")
	}

	claims, err := h.jwtManager.ValidateToken(req.RefreshToken)
	if err != nil {
		if errors.Is(err, authutil.ErrExpiredToken) {
			return response.Unauthorized(c, "Refresh token has expired")
		}
		return response.Unauthorized(c, "Invalid refresh token")
	}
	if claims.TokenType != "refresh" {
		return response.Unauthorized(c, "Invalid token type")
	}

	revoked, err := h.blacklist.IsTokenRevoked(c.Context(), claims.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check token status")
	}
	if revoked {
		return response.Unauthorized(c, "Token has been revoked")
	}

	var user model.User
	if err := h.db.First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.Unauthorized(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to load user")
	}
	if user.TokenVersion != claims.TokenVersion {
		return response.Unauthorized(c, "Token has been invalidated")
	}

	accessToken, err := h.jwtManager.GenerateToken(user.ID, user.UniversityID, user.Email, user.Role, user.TokenVersion)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate access token")
	}

	return response.Success(c, fiber.Map{
		"access_token": accessToken,
		"expires_in":   24 * 60 * 60,
	})
}

// Logout handles POST /api/v1/auth/logout. The access token's JTI is
// blacklisted until it would have expired on its own.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}

	authHeader := c.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 {
		return response.Unauthorized(c, "Invalid authorization format")
	}
	claims, err := h.jwtManager.ValidateToken(parts[1])
	if err != nil {
		return response.Unauthorized(c, "Invalid token")
	}

	expiresAt := time.Now().Add(24 * time.Hour)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := h.blacklist.RevokeToken(c.Context(), claims.ID, user.ID, "logout", expiresAt); err != nil {
		return response.InternalServerError(c, "Failed to revoke token")
	}

	return response.SuccessWithMessage(c, "Logged out", nil)
}

// GetProfile handles GET /api/v1/auth/me
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return response.Unauthorized(c, "User not authenticated")
	}
	return response.Success(c, user)
}
