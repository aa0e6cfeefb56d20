package config

import "fmt"

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks that settings a running server cannot do without are
// present and coherent. The Gemini key is deliberately not required: an empty
// key is the documented stub/no-embedding mode.
func ValidateConfig(cfg *Config) error {
	if cfg.ServerPort == "" {
		return ValidationError{Field: "server_port", Message: "must not be empty"}
	}
	if cfg.DBHost == "" || cfg.DBPort == "" {
		return ValidationError{Field: "db_host/db_port", Message: "must not be empty"}
	}
	if cfg.DBName == "" {
		return ValidationError{Field: "db_name", Message: "must not be empty"}
	}
	if cfg.JWTSecret == "" {
		return ValidationError{Field: "jwt_secret", Message: "must not be empty"}
	}
	if cfg.LLMTimeout <= 0 {
		return ValidationError{Field: "llm_timeout", Message: "must be positive"}
	}
	if cfg.EmbedTimeout <= 0 {
		return ValidationError{Field: "embed_timeout", Message: "must be positive"}
	}
	if cfg.RateLimitEnabled && cfg.RateLimitRequests <= 0 {
		return ValidationError{Field: "rate_limit_requests", Message: "must be positive when rate limiting is enabled"}
	}
	return nil
}
