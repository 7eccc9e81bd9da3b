package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinical-lookup/internal/config"
	"clinical-lookup/internal/utils"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&config.Config{Environment: "production", LogLevel: "warn"}, &buf)
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"message":"shown"`)

	logger = newLogger(&config.Config{Environment: "production", LogLevel: "nonsense"}, &buf)
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestTokenCmd(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")

	var out bytes.Buffer
	cmd := tokenCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--user-id", "u-9", "--role", "doctor"})
	require.NoError(t, cmd.Execute())

	claims, err := utils.ValidateToken(strings.TrimSpace(out.String()), "cli-secret")
	require.NoError(t, err)
	assert.Equal(t, "u-9", claims.UserID)
	assert.Equal(t, "doctor", claims.Role)

	cmd = tokenCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--role", "patient"})
	assert.Error(t, cmd.Execute())
}
