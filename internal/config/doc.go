// Package config loads the service settings with viper (defaults, an
// optional config.yaml, then LEXIS_* environment variables) and validates
// them with validator struct tags.
package config
