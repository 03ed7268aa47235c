// Package config loads the supervisor's configuration from YAML files
// and environment variables.
//
// It uses Viper for file parsing and godotenv for .env files.
// Environment variables override file values; nested keys map from
// underscore-separated names (e.g. REGISTRY_MAX_RECOVERY_ATTEMPTS ->
// registry.max_recovery_attempts).
//
// # Usage
//
//	var cfg AppConfig
//	err := config.LoadConfig("supervisor", &cfg)
package config
