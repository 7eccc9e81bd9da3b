package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateAccessToken("user-1", "doctor", "secret", time.Minute)
	require.NoError(t, err)

	claims, err := ValidateToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "doctor", claims.Role)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestValidateToken_Rejects(t *testing.T) {
	token, err := GenerateAccessToken("user-1", "doctor", "secret", time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token, "other-secret")
	assert.Error(t, err)

	expired, err := GenerateAccessToken("user-1", "doctor", "secret", -time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken(expired, "secret")
	assert.Error(t, err)
}

type loginBody struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func TestFormatValidationError(t *testing.T) {
	err := Validate(loginBody{Email: "not-an-email"})
	require.Error(t, err)
	msg := FormatValidationError(err)
	assert.Contains(t, msg, "loginBody.Email must satisfy email")
	assert.Contains(t, msg, "loginBody.Password must satisfy required")
}

func TestTooManyRequests_SetsRetryAfter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	TooManyRequests(c, 3)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate limit exceeded")
}
