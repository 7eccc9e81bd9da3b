package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "3306", cfg.Database.Port)
	assert.Contains(t, cfg.Database.DSN, "tcp(localhost:3306)/clinical")
	assert.Contains(t, cfg.Database.DSN, "parseTime=true")
	assert.Equal(t, 350*time.Millisecond, cfg.Lookup.Debounce)
	assert.Equal(t, 10*time.Second, cfg.Lookup.RequestTimeout)
	assert.Equal(t, uint32(5), cfg.Lookup.BreakerFailures)
	assert.Equal(t, 20.0, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, "CLINICAL LABORATORY", cfg.Report.Name)
	assert.True(t, cfg.IsDev())
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "lab")
	t.Setenv("LOOKUP_DEBOUNCE_MS", "200")
	t.Setenv("LOOKUP_API_URL", "https://records.example/api/v1")
	t.Setenv("ENV", "production")
	t.Setenv("REPORT_CONTACT", "Tel: 809-000-0000")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "host=db.internal port=5432 user=root password= dbname=lab sslmode=disable", cfg.Database.DSN)
	assert.Equal(t, 200*time.Millisecond, cfg.Lookup.Debounce)
	assert.Equal(t, "https://records.example/api/v1", cfg.Lookup.APIURL)
	assert.Equal(t, "Tel: 809-000-0000", cfg.Report.Contact)
	assert.False(t, cfg.IsDev())
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non numeric debounce", "LOOKUP_DEBOUNCE_MS", "fast"},
		{"zero timeout", "LOOKUP_REQUEST_TIMEOUT_MS", "0"},
		{"negative burst", "RATE_LIMIT_BURST", "-1"},
		{"bad rps", "RATE_LIMIT_RPS", "lots"},
		{"unknown driver", "DB_DRIVER", "oracle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
