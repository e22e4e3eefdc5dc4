package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" validate:"required"`
	LLM     LLMConfig     `mapstructure:"llm" validate:"required"`
	Retry   RetryConfig   `mapstructure:"retry" validate:"required"`
	Session SessionConfig `mapstructure:"session" validate:"required"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	GeminiAPIKey          string  `mapstructure:"gemini_api_key" validate:"required"`
	ModelName             string  `mapstructure:"model_name" validate:"required"`
	PromptTemplatePath    string  `mapstructure:"prompt_template_path"`
	BaseURL               string  `mapstructure:"base_url" validate:"omitempty,url"`
	Temperature           float64 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	RequestTimeoutSeconds int     `mapstructure:"request_timeout_seconds" validate:"required,gt=0"`
	// AcceptUnfenced lets a response that is a bare JSON array through
	// when no fenced block is present.
	AcceptUnfenced bool `mapstructure:"accept_unfenced"`
	// MaxConcurrentRequests caps in-flight generative calls across all sessions.
	MaxConcurrentRequests int `mapstructure:"max_concurrent_requests" validate:"gt=0"`
}

// RequestTimeout returns the per-call timeout for the generative service.
func (c LLMConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// RetryConfig controls retries of transient generative service failures.
// MaxAttempts of 1 disables retrying.
type RetryConfig struct {
	MaxAttempts   int `mapstructure:"max_attempts" validate:"gte=1,lte=10"`
	BaseDelayMS   int `mapstructure:"base_delay_ms" validate:"gt=0"`
	MaxDelayMS    int `mapstructure:"max_delay_ms" validate:"gtefield=BaseDelayMS"`
	JitterPercent int `mapstructure:"jitter_percent" validate:"gte=0,lte=100"`
}

// BaseDelay returns the initial backoff delay.
func (c RetryConfig) BaseDelay() time.Duration {
	return time.Duration(c.BaseDelayMS) * time.Millisecond
}

// MaxDelay returns the cap applied to each backoff delay.
func (c RetryConfig) MaxDelay() time.Duration {
	return time.Duration(c.MaxDelayMS) * time.Millisecond
}

// SessionConfig contains session token and lifetime settings.
type SessionConfig struct {
	TokenSecret          string `mapstructure:"token_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"gt=0"`
	IdleTimeoutMinutes   int    `mapstructure:"idle_timeout_minutes" validate:"gt=0"`
}

// TokenLifetime returns how long an issued session token stays valid.
func (c SessionConfig) TokenLifetime() time.Duration {
	return time.Duration(c.TokenLifetimeMinutes) * time.Minute
}

// IdleTimeout returns how long a session may go untouched before it is reaped.
func (c SessionConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutMinutes) * time.Minute
}

// CacheConfig controls the Redis completion cache.
type CacheConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	RedisURL   string `mapstructure:"redis_url" validate:"required_if=Enabled true,omitempty,url"`
	TTLMinutes int    `mapstructure:"ttl_minutes" validate:"gt=0"`
}

// TTL returns how long a cached completion is kept.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// TracingConfig controls OpenTelemetry span export.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name" validate:"required"`
}
