package config

import (
	"os"

	"github.com/joho/godotenv"

	apperrors "github.com/kurihiro0119/mosscheck/internal/errors"
)

// Config holds the application configuration
type Config struct {
	// MOSS
	MossUserID string
	MossServer string

	// GitLab
	GitLabURL   string
	GitLabToken string

	// Storage
	StorageType string // "sqlite" or "postgres"
	SQLitePath  string
	PostgresURL string

	// API Server
	APIPort string
	APIHost string

	// CLI
	APIEndpoint string
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	return &Config{
		MossUserID:  getEnv("USER_ID", ""),
		MossServer:  getEnv("MOSS_SERVER", "moss.stanford.edu:7690"),
		GitLabURL:   getEnv("GITLAB_URL", ""),
		GitLabToken: getEnv("GITLAB_TOKEN", ""),
		StorageType: getEnv("STORAGE_TYPE", "sqlite"),
		SQLitePath:  getEnv("SQLITE_PATH", "./mosscheck.db"),
		PostgresURL: getEnv("POSTGRES_URL", ""),
		APIPort:     getEnv("API_PORT", "8080"),
		APIHost:     getEnv("API_HOST", "localhost"),
		APIEndpoint: getEnv("API_ENDPOINT", "http://localhost:8080"),
	}, nil
}

// LoadFrom loads environment variables from the given dotenv file first
func LoadFrom(envPath string) (*Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return nil, apperrors.NewConfigError("could not load env file "+envPath, err)
		}
	}
	return Load()
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Validate validates settings shared by every mode
func (c *Config) Validate() error {
	if c.StorageType != "sqlite" && c.StorageType != "postgres" {
		return &ConfigError{Field: "STORAGE_TYPE", Message: "must be 'sqlite' or 'postgres'"}
	}
	if c.StorageType == "postgres" && c.PostgresURL == "" {
		return &ConfigError{Field: "POSTGRES_URL", Message: "PostgreSQL URL is required when STORAGE_TYPE is 'postgres'"}
	}
	return nil
}

// ValidateClone checks the credentials required by clone mode
func (c *Config) ValidateClone() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.GitLabToken == "" {
		return apperrors.NewCredentialError("GITLAB_TOKEN is required")
	}
	if c.GitLabURL == "" {
		return apperrors.NewCredentialError("GITLAB_URL is required")
	}
	return nil
}

// ValidateSubmit checks the credentials required by submit mode
func (c *Config) ValidateSubmit() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.MossUserID == "" {
		return apperrors.NewCredentialError("USER_ID is required")
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
