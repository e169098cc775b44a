package config

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"biodelta/domain/diversity"
	"biodelta/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Analysis AnalysisConfig
	Server   ServerConfig
	Export   ExportConfig
}

// AnalysisConfig holds entropy comparison settings
type AnalysisConfig struct {
	// LossThreshold is the ΔH above which a diversity loss is significant.
	LossThreshold float64
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port        string
	MaxUploadMB int
}

// ExportConfig holds workbook export settings
type ExportConfig struct {
	IncludeChart bool
}

// Default returns the configuration used when no environment is set
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{LossThreshold: diversity.DefaultLossThreshold},
		Server:   ServerConfig{Port: "8080", MaxUploadMB: 32},
		Export:   ExportConfig{IncludeChart: true},
	}
}

// Load reads configuration from environment variables and validates it.
// Unset variables keep the values from Default.
func Load() (*Config, error) {
	config := Default()

	threshold, err := getEnvFloat("ENTROPY_LOSS_THRESHOLD", config.Analysis.LossThreshold)
	if err != nil {
		return nil, err
	}
	maxUpload, err := getEnvInt("MAX_UPLOAD_MB", config.Server.MaxUploadMB)
	if err != nil {
		return nil, err
	}
	includeChart, err := getEnvBool("EXPORT_CHART", config.Export.IncludeChart)
	if err != nil {
		return nil, err
	}

	config.Analysis.LossThreshold = threshold
	config.Server.Port = getEnvOrDefault("PORT", config.Server.Port)
	config.Server.MaxUploadMB = maxUpload
	config.Export.IncludeChart = includeChart

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if err := ValidateThreshold(c.Analysis.LossThreshold); err != nil {
		return err
	}
	if c.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if c.Server.MaxUploadMB <= 0 {
		return errors.ConfigInvalid(fmt.Sprintf("max upload size must be positive, got %d", c.Server.MaxUploadMB))
	}
	return nil
}

// ValidateThreshold accepts finite, non-negative loss thresholds
func ValidateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) || threshold < 0 {
		return errors.ConfigInvalid(fmt.Sprintf("loss threshold must be a finite number >= 0, got %g", threshold))
	}
	return nil
}

// Helper functions for environment variable parsing. A set but malformed
// value returns CONFIG_INVALID; an unset one returns the default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s must be an integer, got %q", key, value))
	}
	return intValue, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s must be a number, got %q", key, value))
	}
	return floatValue, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return false, errors.ConfigInvalid(fmt.Sprintf("%s must be a boolean, got %q", key, value))
	}
	return boolValue, nil
}
