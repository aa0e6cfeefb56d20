package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")

		cfg, err := LoadConfig()

		require.NoError(t, err)
		assert.Equal(t, "8080", cfg.ServerPort)
		assert.Equal(t, "resepku", cfg.DBName)
		assert.Equal(t, "gemini-1.5-flash", cfg.GeminiModel)
		assert.Equal(t, "text-embedding-004", cfg.EmbeddingModel)
		assert.Equal(t, 30*time.Second, cfg.LLMTimeout)
		assert.False(t, cfg.StrictDietary)
		assert.True(t, cfg.RateLimitEnabled)
	})

	t.Run("reads environment overrides", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("SERVER_PORT", "9090")
		t.Setenv("DB_NAME", "resepku_staging")
		t.Setenv("STRICT_DIETARY", "true")
		t.Setenv("LLM_TIMEOUT", "45s")

		cfg, err := LoadConfig()

		require.NoError(t, err)
		assert.Equal(t, "9090", cfg.ServerPort)
		assert.Equal(t, "resepku_staging", cfg.DBName)
		assert.True(t, cfg.StrictDietary)
		assert.Equal(t, 45*time.Second, cfg.LLMTimeout)
	})
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ServerPort:        "8080",
			DBHost:            "localhost",
			DBPort:            "5432",
			DBName:            "resepku",
			JWTSecret:         "secret",
			LLMTimeout:        30 * time.Second,
			EmbedTimeout:      10 * time.Second,
			RateLimitEnabled:  true,
			RateLimitRequests: 20,
		}
	}

	t.Run("accepts a complete config", func(t *testing.T) {
		assert.NoError(t, ValidateConfig(valid()))
	})

	t.Run("does not require a Gemini key", func(t *testing.T) {
		cfg := valid()
		cfg.GeminiAPIKey = ""
		assert.NoError(t, ValidateConfig(cfg))
	})

	t.Run("rejects missing jwt secret", func(t *testing.T) {
		cfg := valid()
		cfg.JWTSecret = ""

		err := ValidateConfig(cfg)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt_secret")
	})

	t.Run("rejects non-positive timeouts", func(t *testing.T) {
		cfg := valid()
		cfg.LLMTimeout = 0
		assert.Error(t, ValidateConfig(cfg))
	})

	t.Run("rejects zero request limit when rate limiting is on", func(t *testing.T) {
		cfg := valid()
		cfg.RateLimitRequests = 0
		assert.Error(t, ValidateConfig(cfg))
	})
}
