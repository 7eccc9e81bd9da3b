package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"clinical-lookup/internal/models"
	"clinical-lookup/internal/utils"
)

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	Store     models.RecordStore
	JWTSecret string
	TokenTTL  time.Duration
	Log       zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(store models.RecordStore, secret string, ttl time.Duration, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{Store: store, JWTSecret: secret, TokenTTL: ttl, Log: log}
}

// LoginRequest represents the request body for user login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents the response body for successful login.
type LoginResponse struct {
	AccessToken string               `json:"accessToken"`
	ExpiresAt   time.Time            `json:"expiresAt"`
	User        models.UserSanitized `json:"user"`
}

// Login handles user login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user, err := h.Store.FindUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			utils.Unauthorized(c, "Invalid email or password")
			return
		}
		h.Log.Error().Err(err).Msg("login lookup failed")
		utils.InternalServerError(c, "Database error")
		return
	}

	if !user.Active || !user.CheckPassword(req.Password) {
		utils.Unauthorized(c, "Invalid email or password")
		return
	}

	accessToken, err := utils.GenerateAccessToken(user.ID, string(user.Role), h.JWTSecret, h.TokenTTL)
	if err != nil {
		h.Log.Error().Err(err).Msg("token generation failed")
		utils.InternalServerError(c, "Failed to generate token")
		return
	}

	h.Log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user logged in")
	utils.Success(c, "Login successful", LoginResponse{
		AccessToken: accessToken,
		ExpiresAt:   time.Now().Add(h.TokenTTL),
		User:        user.Sanitize(),
	})
}
