package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "LEXIS"

var defaults = map[string]any{
	"server.port":                 8080,
	"server.log_level":            "info",
	"server.allowed_origins":      []string{"*"},
	"server.rate_limit_rps":       20.0,
	"server.rate_limit_burst":     40,
	"database.driver":             "postgres",
	"database.url":                "",
	"database.max_open_conns":     10,
	"database.auto_migrate":       false,
	"auth.jwt_secret":             "",
	"auth.token_lifetime_minutes": 60,
	"telemetry.enabled":           false,
	"telemetry.endpoint":          "",
	"telemetry.service_name":      "lexis-api",
}

// Load configuration from environment variables and optionally a config.yaml
// in the working directory. Environment variables (LEXIS_SERVER_PORT,
// LEXIS_DATABASE_URL, ...) take precedence over values from the file.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return load(".")
}

func load(configPaths ...string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key := range defaults {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
