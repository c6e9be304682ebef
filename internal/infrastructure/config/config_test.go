package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"CLINIC_APP_NAME":           os.Getenv("CLINIC_APP_NAME"),
		"CLINIC_APP_ENV":            os.Getenv("CLINIC_APP_ENV"),
		"CLINIC_APP_PORT":           os.Getenv("CLINIC_APP_PORT"),
		"CLINIC_LEDGER_BASE_URL":    os.Getenv("CLINIC_LEDGER_BASE_URL"),
		"CLINIC_LEDGER_API_KEY":     os.Getenv("CLINIC_LEDGER_API_KEY"),
		"CLINIC_LEDGER_TIMEOUT":     os.Getenv("CLINIC_LEDGER_TIMEOUT"),
		"CLINIC_REDIS_HOST":         os.Getenv("CLINIC_REDIS_HOST"),
		"CLINIC_REDIS_PORT":         os.Getenv("CLINIC_REDIS_PORT"),
		"CLINIC_JWT_SECRET":         os.Getenv("CLINIC_JWT_SECRET"),
		"CLINIC_JOURNAL_PATH":       os.Getenv("CLINIC_JOURNAL_PATH"),
		"CLINIC_AUTH_PASSWORD_HASH": os.Getenv("CLINIC_AUTH_PASSWORD_HASH"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "clinic-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "http://localhost:9000", cfg.Ledger.BaseURL)
		assert.Equal(t, 30*time.Second, cfg.Ledger.Timeout)
		assert.Equal(t, "clinic-journal.db", cfg.Journal.Path)
		assert.Equal(t, "localhost", cfg.Redis.Host)
		assert.Equal(t, 6379, cfg.Redis.Port)
		assert.Equal(t, 8*time.Hour, cfg.JWT.AccessTokenExpiration)
		assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
		assert.Equal(t, "cashier", cfg.Auth.Username)
		assert.Equal(t, "cashier", cfg.Auth.Role)
	})

	t.Run("loads values from environment variables with CLINIC prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("CLINIC_APP_NAME", "test-app")
		os.Setenv("CLINIC_APP_ENV", "testing")
		os.Setenv("CLINIC_APP_PORT", "9001")
		os.Setenv("CLINIC_LEDGER_BASE_URL", "http://ledger.local:9000")
		os.Setenv("CLINIC_LEDGER_API_KEY", "test-key")
		os.Setenv("CLINIC_LEDGER_TIMEOUT", "5s")
		os.Setenv("CLINIC_REDIS_HOST", "redis.local")
		os.Setenv("CLINIC_REDIS_PORT", "6380")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testing", cfg.App.Env)
		assert.Equal(t, "9001", cfg.App.Port)
		assert.Equal(t, "http://ledger.local:9000", cfg.Ledger.BaseURL)
		assert.Equal(t, "test-key", cfg.Ledger.APIKey)
		assert.Equal(t, 5*time.Second, cfg.Ledger.Timeout)
		assert.Equal(t, "redis.local:6380", cfg.Redis.Addr())
	})

	t.Run("requires a strong jwt secret in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("CLINIC_APP_ENV", "production")
		os.Setenv("CLINIC_LEDGER_BASE_URL", "https://ledger.example.com")
		os.Setenv("CLINIC_LEDGER_API_KEY", "prod-key")
		os.Setenv("CLINIC_JWT_SECRET", "short")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret")
	})

	t.Run("rejects plain http ledger url in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("CLINIC_APP_ENV", "production")
		os.Setenv("CLINIC_JWT_SECRET", strings.Repeat("s", 32))
		os.Setenv("CLINIC_LEDGER_API_KEY", "prod-key")
		os.Setenv("CLINIC_LEDGER_BASE_URL", "http://ledger.example.com")
		os.Setenv("CLINIC_AUTH_PASSWORD_HASH", "$2a$10$placeholder")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ledger.base_url")
	})

	t.Run("requires ledger api key in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("CLINIC_APP_ENV", "production")
		os.Setenv("CLINIC_JWT_SECRET", strings.Repeat("s", 32))
		os.Setenv("CLINIC_LEDGER_BASE_URL", "https://ledger.example.com")
		os.Setenv("CLINIC_AUTH_PASSWORD_HASH", "$2a$10$placeholder")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ledger.api_key")
	})

	t.Run("requires cashier password hash in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("CLINIC_APP_ENV", "production")
		os.Setenv("CLINIC_JWT_SECRET", strings.Repeat("s", 32))
		os.Setenv("CLINIC_LEDGER_BASE_URL", "https://ledger.example.com")
		os.Setenv("CLINIC_LEDGER_API_KEY", "prod-key")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "auth.password_hash")
	})
}
