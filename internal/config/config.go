package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
)

// Config holds all configuration for the records backend and the lookup client.
type Config struct {
	Port                 string
	Origin               string
	Environment          string
	LogLevel             string
	JWTSecret            string
	JWTExpirationMinutes int
	Database             DatabaseConfig
	RateLimit            RateLimitConfig
	Lookup               LookupConfig
	Report               ReportConfig
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
}

// RateLimitConfig bounds requests per client on the records API.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// LookupConfig configures the terminal lookup session and its API client.
type LookupConfig struct {
	APIURL          string
	Token           string
	Debounce        time.Duration
	RequestTimeout  time.Duration
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// ReportConfig is the letterhead printed on result reports.
type ReportConfig struct {
	Name    string
	Tagline string
	Contact string
}

// LoadConfig reads configuration from the environment. Callers load .env
// into the environment beforehand.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "3001")
	v.SetDefault("ORIGIN", "http://localhost:4200")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_SECRET", "default_jwt_secret")
	v.SetDefault("JWT_EXPIRATION_MINUTES", 60)
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_USERNAME", "root")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "clinical")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("LOOKUP_API_URL", "http://localhost:3001/api/v1")
	v.SetDefault("LOOKUP_TOKEN", "")
	v.SetDefault("LOOKUP_DEBOUNCE_MS", 350)
	v.SetDefault("LOOKUP_REQUEST_TIMEOUT_MS", 10000)
	v.SetDefault("LOOKUP_BREAKER_FAILURES", 5)
	v.SetDefault("LOOKUP_BREAKER_COOLDOWN_MS", 30000)
	v.SetDefault("REPORT_NAME", "CLINICAL LABORATORY")
	v.SetDefault("REPORT_TAGLINE", "DIAGNOSTIC CENTER")
	v.SetDefault("REPORT_CONTACT", "")

	dbConfig := DatabaseConfig{
		Driver:   v.GetString("DB_DRIVER"),
		Host:     v.GetString("DB_HOST"),
		Port:     v.GetString("DB_PORT"),
		Username: v.GetString("DB_USERNAME"),
		Password: v.GetString("DB_PASSWORD"),
		Name:     v.GetString("DB_NAME"),
	}
	dsn, err := buildDSN(&dbConfig)
	if err != nil {
		return nil, err
	}
	dbConfig.DSN = dsn

	jwtExpMinutes, err := positiveInt(v, "JWT_EXPIRATION_MINUTES")
	if err != nil {
		return nil, err
	}
	debounceMs, err := positiveInt(v, "LOOKUP_DEBOUNCE_MS")
	if err != nil {
		return nil, err
	}
	timeoutMs, err := positiveInt(v, "LOOKUP_REQUEST_TIMEOUT_MS")
	if err != nil {
		return nil, err
	}
	breakerFailures, err := positiveInt(v, "LOOKUP_BREAKER_FAILURES")
	if err != nil {
		return nil, err
	}
	cooldownMs, err := positiveInt(v, "LOOKUP_BREAKER_COOLDOWN_MS")
	if err != nil {
		return nil, err
	}
	rps, err := castFloat(v, "RATE_LIMIT_RPS")
	if err != nil {
		return nil, err
	}
	burst, err := positiveInt(v, "RATE_LIMIT_BURST")
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:                 v.GetString("PORT"),
		Origin:               v.GetString("ORIGIN"),
		Environment:          v.GetString("ENV"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		JWTSecret:            v.GetString("JWT_SECRET"),
		JWTExpirationMinutes: jwtExpMinutes,
		Database:             dbConfig,
		RateLimit: RateLimitConfig{
			RequestsPerSecond: rps,
			Burst:             burst,
		},
		Lookup: LookupConfig{
			APIURL:          v.GetString("LOOKUP_API_URL"),
			Token:           v.GetString("LOOKUP_TOKEN"),
			Debounce:        time.Duration(debounceMs) * time.Millisecond,
			RequestTimeout:  time.Duration(timeoutMs) * time.Millisecond,
			BreakerFailures: uint32(breakerFailures),
			BreakerCooldown: time.Duration(cooldownMs) * time.Millisecond,
		},
		Report: ReportConfig{
			Name:    v.GetString("REPORT_NAME"),
			Tagline: v.GetString("REPORT_TAGLINE"),
			Contact: v.GetString("REPORT_CONTACT"),
		},
	}, nil
}

// IsDev reports whether the development environment is active.
func (c *Config) IsDev() bool {
	return c.Environment == "development"
}

func buildDSN(db *DatabaseConfig) (string, error) {
	switch db.Driver {
	case "mysql":
		if db.Port == "" {
			db.Port = "3306"
		}
		mc := mysql.NewConfig()
		mc.User = db.Username
		mc.Passwd = db.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(db.Host, db.Port)
		mc.DBName = db.Name
		mc.ParseTime = true
		mc.Loc = time.Local
		mc.Params = map[string]string{"charset": "utf8mb4"}
		return mc.FormatDSN(), nil
	case "postgres":
		if db.Port == "" {
			db.Port = "5432"
		}
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			db.Host, db.Port, db.Username, db.Password, db.Name), nil
	default:
		return "", fmt.Errorf("unsupported DB_DRIVER %q", db.Driver)
	}
}

func positiveInt(v *viper.Viper, key string) (int, error) {
	n, err := castInt(v, key)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive, got %d", key, n)
	}
	return n, nil
}

func castInt(v *viper.Viper, key string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func castFloat(v *viper.Viper, key string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v.GetString(key)), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if f <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return f, nil
}
