package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerHost string `mapstructure:"server_host"`
	ServerPort string `mapstructure:"server_port"`

	// Database configuration
	DBHost     string `mapstructure:"db_host"`
	DBPort     string `mapstructure:"db_port"`
	DBUser     string `mapstructure:"db_user"`
	DBPassword string `mapstructure:"db_password"`
	DBName     string `mapstructure:"db_name"`
	DBSSLMode  string `mapstructure:"db_ssl_mode"`

	// Redis configuration
	RedisHost     string `mapstructure:"redis_host"`
	RedisPort     string `mapstructure:"redis_port"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisURL      string `mapstructure:"redis_url"`

	// JWT configuration
	JWTSecret string `mapstructure:"jwt_secret"`

	// Gemini configuration. An empty API key puts generation into stub mode
	// and disables embeddings.
	GeminiAPIKey   string        `mapstructure:"gemini_api_key"`
	GeminiModel    string        `mapstructure:"gemini_model"`
	EmbeddingModel string        `mapstructure:"embedding_model"`
	LLMTimeout     time.Duration `mapstructure:"llm_timeout"`
	EmbedTimeout   time.Duration `mapstructure:"embed_timeout"`

	// Pipeline policies
	StrictDietary  bool `mapstructure:"strict_dietary"`
	GenerationLock bool `mapstructure:"generation_lock"`

	// Rate limiting for the generation endpoint
	RateLimitEnabled  bool          `mapstructure:"rate_limit_enabled"`
	RateLimitRequests int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow   time.Duration `mapstructure:"rate_limit_window"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
}

// LoadConfig creates a new Config instance from environment variables,
// falling back to a .env file when present.
func LoadConfig() (*Config, error) {
	// A missing .env is fine; the environment still wins.
	_ = godotenv.Load()

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.BindEnv("server_host", "SERVER_HOST")
	viper.BindEnv("server_port", "SERVER_PORT")
	viper.BindEnv("db_host", "DB_HOST")
	viper.BindEnv("db_port", "DB_PORT")
	viper.BindEnv("db_user", "DB_USER")
	viper.BindEnv("db_password", "DB_PASSWORD")
	viper.BindEnv("db_name", "DB_NAME")
	viper.BindEnv("db_ssl_mode", "DB_SSL_MODE")
	viper.BindEnv("redis_host", "REDIS_HOST")
	viper.BindEnv("redis_port", "REDIS_PORT")
	viper.BindEnv("redis_password", "REDIS_PASSWORD")
	viper.BindEnv("redis_db", "REDIS_DB")
	viper.BindEnv("redis_url", "REDIS_URL")
	viper.BindEnv("jwt_secret", "JWT_SECRET")
	viper.BindEnv("gemini_api_key", "GEMINI_API_KEY")
	viper.BindEnv("gemini_model", "GEMINI_MODEL")
	viper.BindEnv("embedding_model", "EMBEDDING_MODEL")
	viper.BindEnv("llm_timeout", "LLM_TIMEOUT")
	viper.BindEnv("embed_timeout", "EMBED_TIMEOUT")
	viper.BindEnv("strict_dietary", "STRICT_DIETARY")
	viper.BindEnv("generation_lock", "GENERATION_LOCK")
	viper.BindEnv("rate_limit_enabled", "RATE_LIMIT_ENABLED")
	viper.BindEnv("rate_limit_requests", "RATE_LIMIT_REQUESTS")
	viper.BindEnv("rate_limit_window", "RATE_LIMIT_WINDOW")
	viper.BindEnv("log_level", "LOG_LEVEL")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server_host", "0.0.0.0")
	viper.SetDefault("server_port", "8080")
	viper.SetDefault("db_host", "localhost")
	viper.SetDefault("db_port", "5432")
	viper.SetDefault("db_user", "postgres")
	viper.SetDefault("db_name", "resepku")
	viper.SetDefault("db_ssl_mode", "disable")
	viper.SetDefault("redis_host", "localhost")
	viper.SetDefault("redis_port", "6379")
	viper.SetDefault("redis_db", 0)
	viper.SetDefault("gemini_model", "gemini-1.5-flash")
	viper.SetDefault("embedding_model", "text-embedding-004")
	viper.SetDefault("llm_timeout", 30*time.Second)
	viper.SetDefault("embed_timeout", 10*time.Second)
	viper.SetDefault("strict_dietary", false)
	viper.SetDefault("generation_lock", false)
	viper.SetDefault("rate_limit_enabled", true)
	viper.SetDefault("rate_limit_requests", 20)
	viper.SetDefault("rate_limit_window", time.Hour)
	viper.SetDefault("log_level", "info")
}
