package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load,
// e.g. STUDYGEN_SERVER_PORT.
const EnvPrefix = "STUDYGEN"

// keys without a default that must still be picked up from the environment
var envOnlyKeys = []string{
	"llm.gemini_api_key",
	"llm.prompt_template_path",
	"llm.base_url",
	"session.token_secret",
	"cache.redis_url",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.request_timeout_seconds", 60)
	v.SetDefault("llm.accept_unfenced", false)
	v.SetDefault("llm.max_concurrent_requests", 4)

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay_ms", 500)
	v.SetDefault("retry.max_delay_ms", 8000)
	v.SetDefault("retry.jitter_percent", 20)

	v.SetDefault("session.token_lifetime_minutes", 120)
	v.SetDefault("session.idle_timeout_minutes", 60)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl_minutes", 1440)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "scry-studygen")
}

// Load configuration from environment variables and optionally a
// config.yaml in the working directory. Environment variables take
// precedence over values from the config file.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envOnlyKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
