// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aristath/steward/internal/modules/settings"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir         string // Base directory for all databases (always absolute)
	LogLevel        string
	DisplayCurrency string // Default display currency for API responses
	Backup          *BackupConfig
	PriceTTL        time.Duration // Freshness window for cached quotes
	RateTTL         time.Duration // Freshness window for cached exchange rates
	Port            int
	DevMode         bool
}

// BackupConfig holds cloud backup configuration (Cloudflare R2, S3-compatible)
type BackupConfig struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	RetentionDays   int
	Enabled         bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory with fallback logic
	// 1. Check STEWARD_DATA_DIR environment variable
	// 2. If not set, default to ./data
	// 3. Always resolve to absolute path
	// 4. Ensure directory exists
	dataDir := getEnv("STEWARD_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:         absDataDir,
		Port:            getEnvAsInt("PORT", 8090),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DisplayCurrency: getEnv("DISPLAY_CURRENCY", "AUD"),
		PriceTTL:        time.Duration(getEnvAsInt("PRICE_TTL_MINUTES", 15)) * time.Minute,
		RateTTL:         time.Duration(getEnvAsInt("RATE_TTL_MINUTES", 60)) * time.Minute,
		Backup:          loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// UpdateFromSettings updates configuration from the settings database.
// This should be called after the config database is initialized.
// Settings DB values take precedence over environment variables.
func (c *Config) UpdateFromSettings(settingsRepo *settings.Repository) error {
	accountID, err := settingsRepo.Get("r2_account_id")
	if err != nil {
		return fmt.Errorf("failed to get r2_account_id from settings: %w", err)
	}
	if accountID != nil && *accountID != "" {
		c.Backup.AccountID = *accountID
	}

	accessKey, err := settingsRepo.Get("r2_access_key_id")
	if err != nil {
		return fmt.Errorf("failed to get r2_access_key_id from settings: %w", err)
	}
	if accessKey != nil && *accessKey != "" {
		c.Backup.AccessKeyID = *accessKey
	}

	secretKey, err := settingsRepo.Get("r2_secret_access_key")
	if err != nil {
		return fmt.Errorf("failed to get r2_secret_access_key from settings: %w", err)
	}
	if secretKey != nil && *secretKey != "" {
		c.Backup.SecretAccessKey = *secretKey
	}

	bucket, err := settingsRepo.Get("r2_bucket")
	if err != nil {
		return fmt.Errorf("failed to get r2_bucket from settings: %w", err)
	}
	if bucket != nil && *bucket != "" {
		c.Backup.Bucket = *bucket
	}

	// Backups stay disabled until credentials are complete
	c.Backup.Enabled = c.Backup.AccountID != "" &&
		c.Backup.AccessKeyID != "" &&
		c.Backup.SecretAccessKey != "" &&
		c.Backup.Bucket != ""

	return nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.PriceTTL <= 0 {
		return fmt.Errorf("price TTL must be positive")
	}
	if c.RateTTL <= 0 {
		return fmt.Errorf("rate TTL must be positive")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// loadBackupConfig loads cloud backup configuration from the environment.
// Credentials may be overridden later from the settings database.
func loadBackupConfig() *BackupConfig {
	cfg := &BackupConfig{
		AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		Bucket:          getEnv("R2_BUCKET", ""),
		RetentionDays:   getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
	}
	cfg.Enabled = cfg.AccountID != "" && cfg.AccessKeyID != "" &&
		cfg.SecretAccessKey != "" && cfg.Bucket != ""
	return cfg
}
