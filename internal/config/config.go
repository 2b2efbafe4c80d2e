// Package config provides application configuration loaded from environment variables.
package config

import (
	"os"
	"strconv"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Files    FilesConfig
	App      AppConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// DatabaseConfig holds the store connection. DSN selects the backend: a
// postgres:// URL targets the hosted variant, anything else is treated as a
// sqlite file path.
type DatabaseConfig struct {
	DSN string
}

// FilesConfig holds the two file store directories: generated/uploaded
// documents on one side, signature images on the other.
type FilesConfig struct {
	UploadsDir    string
	SignaturesDir string
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev        bool
	Migrations bool // run SQL migrations instead of AutoMigrate (postgres only)
}

// Load reads configuration from environment variables with local-development
// defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8000"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			DSN: getEnv("DATABASE_DSN", "data.db"),
		},
		Files: FilesConfig{
			UploadsDir:    getEnv("UPLOADS_DIR", "static/uploads"),
			SignaturesDir: getEnv("SIGNATURES_DIR", "static/signatures"),
		},
		App: AppConfig{
			Dev:        getEnvBool("DEV", true),
			Migrations: getEnvBool("MIGRATIONS", false),
		},
	}
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}
