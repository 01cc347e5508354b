package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all storage service configuration
type Config struct {
	// HTTP server settings
	HTTPAddress string

	// Metadata database
	DatabaseURL string

	// Bulk file gateway (telegram-backed storage API)
	TelegramAPIURL string
	TelegramAPIKey string

	// Media backend (cloudinary)
	CloudinaryCloudName    string
	CloudinaryUploadPreset string
	CloudinaryAPIKey       string // optional, enables media deletion
	CloudinaryAPISecret    string // optional, enables media deletion

	// Shared secret for project-scoped JWT auth
	ServiceJWTSecret string

	// Optional Redis-backed rate limiting (disabled when RedisAddr is empty)
	RedisAddr              string
	RedisPassword          string
	RateLimitMaxRequests   int
	RateLimitWindowSeconds int
}

// LoadConfig loads configuration from files and environment variables
func LoadConfig() (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Configure environment variables - do this BEFORE reading config
	v.AutomaticEnv()
	v.SetEnvPrefix("") // No prefix for env vars
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set up explicit mappings between struct fields and environment variables
	envMappings := map[string]string{
		"HTTPAddress":            "HTTP_ADDRESS",
		"DatabaseURL":            "DATABASE_URL",
		"TelegramAPIURL":         "TELEGRAM_STORAGE_API_URL",
		"TelegramAPIKey":         "TELEGRAM_STORAGE_API_KEY",
		"CloudinaryCloudName":    "CLOUDINARY_CLOUD_NAME",
		"CloudinaryUploadPreset": "CLOUDINARY_UPLOAD_PRESET",
		"CloudinaryAPIKey":       "CLOUDINARY_API_KEY",
		"CloudinaryAPISecret":    "CLOUDINARY_API_SECRET",
		"ServiceJWTSecret":       "SERVICE_JWT_SECRET",
		"RedisAddr":              "REDIS_ADDR",
		"RedisPassword":          "REDIS_PASSWORD",
		"RateLimitMaxRequests":   "RATE_LIMIT_MAX_REQUESTS",
		"RateLimitWindowSeconds": "RATE_LIMIT_WINDOW_SECONDS",
	}

	for configKey, envVar := range envMappings {
		if err := v.BindEnv(configKey, envVar); err != nil {
			log.Warn().Err(err).Msgf("Failed to bind environment variable %s for %s", envVar, configKey)
		}
	}

	// Configure the config file settings
	v.SetConfigName("filestore_config") // Name of config file without extension
	v.SetConfigType("yaml")             // Type of config file
	// Add search paths for the config file
	v.AddConfigPath(".")                // Current working directory
	v.AddConfigPath("./config")         // Config subdirectory
	v.AddConfigPath("$HOME/.filestore") // Home directory

	// Try to read from config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, will just use environment variables and defaults
		log.Debug().Msg("Config file not found, using environment variables and defaults")
	} else {
		log.Info().Msgf("Using config file: %s", v.ConfigFileUsed())
	}

	// Unmarshal config into struct
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	// Validate required fields
	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	log.Debug().Msgf("Config loaded: HTTPAddress=%s, TelegramAPIURL=%s, CloudinaryCloudName=%s",
		config.HTTPAddress, config.TelegramAPIURL, config.CloudinaryCloudName)

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server settings
	v.SetDefault("HTTPAddress", ":8080")

	// Rate limiting
	v.SetDefault("RateLimitMaxRequests", 100)
	v.SetDefault("RateLimitWindowSeconds", 60)
}

// validateConfig validates the required configuration fields
func validateConfig(config *Config) error {
	var missingVars []string

	if config.DatabaseURL == "" {
		missingVars = append(missingVars, "DATABASE_URL")
	}

	if config.TelegramAPIURL == "" {
		missingVars = append(missingVars, "TELEGRAM_STORAGE_API_URL")
	}

	if config.TelegramAPIKey == "" {
		missingVars = append(missingVars, "TELEGRAM_STORAGE_API_KEY")
	}

	if config.CloudinaryCloudName == "" {
		missingVars = append(missingVars, "CLOUDINARY_CLOUD_NAME")
	}

	if config.CloudinaryUploadPreset == "" {
		missingVars = append(missingVars, "CLOUDINARY_UPLOAD_PRESET")
	}

	if config.ServiceJWTSecret == "" {
		missingVars = append(missingVars, "SERVICE_JWT_SECRET")
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missingVars, ", "))
	}

	return nil
}
