package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// Environment variable prefix for configuration overrides
	envPrefix = "WEATHERBOT_"
)

// Config represents the application configuration
type Config struct {
	LogLevel string         `yaml:"log_level"`
	Telegram TelegramConfig `yaml:"telegram"`
	Storage  StorageConfig  `yaml:"storage"`
	Spam     SpamConfig     `yaml:"spam"`
	Quota    QuotaConfig    `yaml:"quota"`
	Weather  WeatherConfig  `yaml:"weather"`
	Language LanguageConfig `yaml:"language"`
	API      APIConfig      `yaml:"api"`
	WebUI    WebUIConfig    `yaml:"webui"`
	Backup   BackupConfig   `yaml:"backup"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	Token         string  `yaml:"token"`
	AdminIDs      []int64 `yaml:"admin_ids"`
	AdminLanguage string  `yaml:"admin_language"`
	Timezone      string  `yaml:"timezone"`
}

// StorageConfig holds user-profile storage configuration
type StorageConfig struct {
	Type             string `yaml:"type"`
	ConnectionString string `yaml:"connection_string"`
}

// SpamConfig holds abuse-mitigation settings
type SpamConfig struct {
	MaxRequestsPerMinute  int     `yaml:"max_requests_per_minute"`
	MaxRequestsPerHour    int     `yaml:"max_requests_per_hour"`
	MaxRequestsPerDay     int     `yaml:"max_requests_per_day"`
	BlockDuration         int     `yaml:"block_duration_seconds"`
	ExtendedBlockDuration int     `yaml:"extended_block_duration_seconds"`
	MinCooldown           float64 `yaml:"min_cooldown_seconds"`
	MaxMessageLength      int     `yaml:"max_message_length"`
}

// QuotaConfig holds the weather API quota ledger settings
type QuotaConfig struct {
	DailyLimit int    `yaml:"daily_limit"`
	Path       string `yaml:"path"`
}

// WeatherConfig selects the weather and geocoding providers
type WeatherConfig struct {
	Provider        string `yaml:"provider"`
	GeocodeProvider string `yaml:"geocode_provider"`
}

// LanguageConfig holds language settings
type LanguageConfig struct {
	DefaultLanguage string   `yaml:"default_language"`
	Enabled         []string `yaml:"enabled"`
}

// APIConfig holds the operations REST endpoint settings
type APIConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Port       int      `yaml:"port"`
	AuthTokens []string `yaml:"auth_tokens"`
	TokensFile string   `yaml:"tokens_file"`
}

// WebUIConfig holds the operations dashboard settings. The dashboard
// reads its data from the API server, so enabling it requires api.enabled.
type WebUIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// BackupConfig holds the daily storage-backup settings. Backups only
// apply to file-based storage backends (json, sqlite).
type BackupConfig struct {
	Enabled       bool `yaml:"enabled"`
	RetentionDays int  `yaml:"retention_days"`
	Hour          int  `yaml:"hour"`
}

// New creates a new default configuration
func New() *Config {
	return &Config{
		LogLevel: "info",
		Telegram: TelegramConfig{
			AdminLanguage: "ru",
			Timezone:      "Europe/Berlin",
		},
		Storage: StorageConfig{
			Type:             "json",
			ConnectionString: "./data/storage.json",
		},
		Spam: SpamConfig{
			MaxRequestsPerMinute:  30,
			MaxRequestsPerHour:    200,
			MaxRequestsPerDay:     300,
			BlockDuration:         300,
			ExtendedBlockDuration: 3600,
			MinCooldown:           1.0,
			MaxMessageLength:      1000,
		},
		Quota: QuotaConfig{
			DailyLimit: 1000,
			Path:       "./data/weather_api_quota.json",
		},
		Weather: WeatherConfig{
			Provider:        "open-meteo",
			GeocodeProvider: "nominatim",
		},
		Language: LanguageConfig{
			DefaultLanguage: "ru",
			Enabled:         []string{"en", "ru", "de"},
		},
		API: APIConfig{
			Enabled: false,
			Port:    8080,
		},
		WebUI: WebUIConfig{
			Enabled: false,
			Port:    8081,
		},
		Backup: BackupConfig{
			Enabled:       true,
			RetentionDays: 30,
			Hour:          3,
		},
	}
}

// Load loads configuration from file and environment variables
func Load(path string) (*Config, error) {
	// Create default config
	cfg := New()

	// If path is provided, load from file
	if path != "" {
		err := loadFromFile(path, cfg)
		if err != nil {
			return nil, err
		}
	}

	// Override with environment variables
	loadFromEnvironment(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile loads configuration from the YAML file
func loadFromFile(path string, cfg *Config) error {
	// Ensure the file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return err
	}

	// Read the file
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// Parse YAML
	return yaml.Unmarshal(data, cfg)
}

// loadFromEnvironment overrides configuration with environment variables
func loadFromEnvironment(cfg *Config) {
	// Log level
	if value := os.Getenv(envPrefix + "LOG_LEVEL"); value != "" {
		cfg.LogLevel = value
	}

	// Telegram
	if value := os.Getenv(envPrefix + "TELEGRAM_TOKEN"); value != "" {
		cfg.Telegram.Token = value
	}
	if value := os.Getenv(envPrefix + "ADMIN_IDS"); value != "" {
		ids := make([]int64, 0)
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if id, err := strconv.ParseInt(part, 10, 64); err == nil {
				ids = append(ids, id)
			}
		}
		if len(ids) > 0 {
			cfg.Telegram.AdminIDs = ids
		}
	}
	if value := os.Getenv(envPrefix + "ADMIN_LANGUAGE"); value != "" {
		cfg.Telegram.AdminLanguage = value
	}
	if value := os.Getenv(envPrefix + "TIMEZONE"); value != "" {
		cfg.Telegram.Timezone = value
	}

	// Storage
	if value := os.Getenv(envPrefix + "STORAGE_TYPE"); value != "" {
		cfg.Storage.Type = value
	}
	if value := os.Getenv(envPrefix + "STORAGE_CONNECTION_STRING"); value != "" {
		cfg.Storage.ConnectionString = value
	}

	// Spam protection
	setEnvInt(&cfg.Spam.MaxRequestsPerMinute, "SPAM_MAX_REQUESTS_PER_MINUTE")
	setEnvInt(&cfg.Spam.MaxRequestsPerHour, "SPAM_MAX_REQUESTS_PER_HOUR")
	setEnvInt(&cfg.Spam.MaxRequestsPerDay, "SPAM_MAX_REQUESTS_PER_DAY")
	setEnvInt(&cfg.Spam.BlockDuration, "SPAM_BLOCK_DURATION")
	setEnvInt(&cfg.Spam.ExtendedBlockDuration, "SPAM_EXTENDED_BLOCK_DURATION")
	setEnvInt(&cfg.Spam.MaxMessageLength, "SPAM_MAX_MESSAGE_LENGTH")
	if value := os.Getenv(envPrefix + "SPAM_MIN_COOLDOWN"); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			cfg.Spam.MinCooldown = f
		}
	}

	// Quota
	setEnvInt(&cfg.Quota.DailyLimit, "QUOTA_DAILY_LIMIT")
	if value := os.Getenv(envPrefix + "QUOTA_PATH"); value != "" {
		cfg.Quota.Path = value
	}

	// Providers
	if value := os.Getenv(envPrefix + "WEATHER_PROVIDER"); value != "" {
		cfg.Weather.Provider = strings.ToLower(value)
	}
	if value := os.Getenv(envPrefix + "GEOCODE_PROVIDER"); value != "" {
		cfg.Weather.GeocodeProvider = strings.ToLower(value)
	}

	// API
	if value := os.Getenv(envPrefix + "API_ENABLED"); value != "" {
		cfg.API.Enabled = strings.EqualFold(value, "true") || value == "1"
	}
	setEnvInt(&cfg.API.Port, "API_PORT")
	if value := os.Getenv(envPrefix + "API_AUTH_TOKENS"); value != "" {
		tokens := make([]string, 0)
		for _, token := range strings.Split(value, ",") {
			if token = strings.TrimSpace(token); token != "" {
				tokens = append(tokens, token)
			}
		}
		if len(tokens) > 0 {
			cfg.API.AuthTokens = tokens
		}
	}
	if value := os.Getenv(envPrefix + "API_TOKENS_FILE"); value != "" {
		cfg.API.TokensFile = value
	}

	// Backup
	if value := os.Getenv(envPrefix + "BACKUP_ENABLED"); value != "" {
		cfg.Backup.Enabled = strings.EqualFold(value, "true") || value == "1"
	}
	setEnvInt(&cfg.Backup.RetentionDays, "BACKUP_RETENTION_DAYS")
	if value := os.Getenv(envPrefix + "BACKUP_HOUR"); value != "" {
		if hour, err := strconv.Atoi(value); err == nil && hour >= 0 && hour <= 23 {
			cfg.Backup.Hour = hour
		}
	}

	// Web UI
	if value := os.Getenv(envPrefix + "WEBUI_ENABLED"); value != "" {
		cfg.WebUI.Enabled = strings.EqualFold(value, "true") || value == "1"
	}
	if value := os.Getenv(envPrefix + "WEBUI_HOST"); value != "" {
		cfg.WebUI.Host = value
	}
	setEnvInt(&cfg.WebUI.Port, "WEBUI_PORT")

	// Language
	if value := os.Getenv(envPrefix + "LANGUAGE_DEFAULT"); value != "" {
		cfg.Language.DefaultLanguage = value
	}
	if value := os.Getenv(envPrefix + "LANGUAGE_ENABLED"); value != "" {
		languages := strings.Split(value, ",")
		cfg.Language.Enabled = make([]string, 0, len(languages))
		// Trim spaces from language codes and filter out empty strings
		for _, lang := range languages {
			trimmed := strings.TrimSpace(lang)
			if trimmed != "" {
				cfg.Language.Enabled = append(cfg.Language.Enabled, trimmed)
			}
		}
	}
}

// setEnvInt overrides an int option if the variable parses as a positive integer
func setEnvInt(target *int, name string) {
	if value := os.Getenv(envPrefix + name); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue > 0 {
			*target = intValue
		}
	}
}

// GetConfigPath returns the config file path based on the provided path or default
func GetConfigPath(configPath string) string {
	if configPath != "" {
		// Use provided path
		return configPath
	}

	// Use default paths
	candidates := []string{
		"config.yaml",
		"config.yml",
		filepath.Join("config", "config.yaml"),
		filepath.Join("config", "config.yml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	// Return default if no file found
	return "config.yaml"
}

// Validate checks if the configuration is valid. Limit misconfiguration is
// surfaced here, at construction time, not when a request is evaluated.
func (c *Config) Validate() error {
	if c.Spam.MaxRequestsPerMinute <= 0 {
		return fmt.Errorf("spam.max_requests_per_minute must be positive, got %d", c.Spam.MaxRequestsPerMinute)
	}
	if c.Spam.MaxRequestsPerHour <= 0 {
		return fmt.Errorf("spam.max_requests_per_hour must be positive, got %d", c.Spam.MaxRequestsPerHour)
	}
	if c.Spam.MaxRequestsPerDay <= 0 {
		return fmt.Errorf("spam.max_requests_per_day must be positive, got %d", c.Spam.MaxRequestsPerDay)
	}
	if c.Spam.BlockDuration <= 0 || c.Spam.ExtendedBlockDuration <= 0 {
		return fmt.Errorf("spam block durations must be positive")
	}
	if c.Spam.MinCooldown < 0 {
		return fmt.Errorf("spam.min_cooldown_seconds must not be negative, got %v", c.Spam.MinCooldown)
	}
	if c.Spam.MaxMessageLength <= 0 {
		return fmt.Errorf("spam.max_message_length must be positive, got %d", c.Spam.MaxMessageLength)
	}
	if c.Quota.DailyLimit <= 0 {
		return fmt.Errorf("quota.daily_limit must be positive, got %d", c.Quota.DailyLimit)
	}
	if c.Quota.Path == "" {
		return fmt.Errorf("quota.path must not be empty")
	}
	if c.API.Enabled && (c.API.Port <= 0 || c.API.Port > 65535) {
		return fmt.Errorf("api.port must be a valid port, got %d", c.API.Port)
	}
	if c.Backup.Enabled {
		if c.Backup.Hour < 0 || c.Backup.Hour > 23 {
			return fmt.Errorf("backup.hour must be 0-23, got %d", c.Backup.Hour)
		}
		if c.Backup.RetentionDays < 0 {
			return fmt.Errorf("backup.retention_days must not be negative, got %d", c.Backup.RetentionDays)
		}
	}
	if c.WebUI.Enabled {
		if c.WebUI.Port <= 0 || c.WebUI.Port > 65535 {
			return fmt.Errorf("webui.port must be a valid port, got %d", c.WebUI.Port)
		}
		if !c.API.Enabled {
			return fmt.Errorf("webui requires api.enabled")
		}
	}
	return nil
}

// LoadAuthTokens merges tokens from the configured tokens file into the
// API token list. One token per line, blank lines and # comments skipped.
func (c *Config) LoadAuthTokens() error {
	if c.API.TokensFile == "" {
		return nil
	}

	data, err := os.ReadFile(c.API.TokensFile)
	if err != nil {
		return fmt.Errorf("failed to read tokens file: %w", err)
	}

	seen := make(map[string]bool, len(c.API.AuthTokens))
	for _, token := range c.API.AuthTokens {
		seen[token] = true
	}

	for _, line := range strings.Split(string(data), "\n") {
		token := strings.TrimSpace(line)
		if token == "" || strings.HasPrefix(token, "#") {
			continue
		}
		if !seen[token] {
			c.API.AuthTokens = append(c.API.AuthTokens, token)
			seen[token] = true
		}
	}

	return nil
}

// MinCooldownDuration returns the cooldown as a time.Duration
func (c *SpamConfig) MinCooldownDuration() time.Duration {
	return time.Duration(c.MinCooldown * float64(time.Second))
}

// StorageFilePath returns the path of the storage file and whether the
// configured backend is file-based and thus backupable.
func (c *Config) StorageFilePath() (string, bool) {
	switch c.GetStorageType() {
	case "json", "sqlite":
		return c.Storage.ConnectionString, true
	default:
		return "", false
	}
}

// GetStorageType returns the storage type (lowercase)
func (c *Config) GetStorageType() string {
	return strings.ToLower(c.Storage.Type)
}

// GetDefaultLanguage returns the default language
func (c *Config) GetDefaultLanguage() string {
	if c.Language.DefaultLanguage == "" {
		return "ru"
	}
	return c.Language.DefaultLanguage
}

// GetEnabledLanguages returns the list of enabled languages
func (c *Config) GetEnabledLanguages() []string {
	if len(c.Language.Enabled) == 0 {
		return []string{"ru"}
	}
	// Make a copy to avoid potential modification of the original slice
	result := make([]string, len(c.Language.Enabled))
	copy(result, c.Language.Enabled)
	return result
}

// IsLanguageEnabled checks if a specific language is enabled
func (c *Config) IsLanguageEnabled(lang string) bool {
	for _, l := range c.Language.Enabled {
		if strings.EqualFold(l, lang) {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the user id belongs to a configured administrator
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Telegram.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// SupportedStorageTypes returns a list of supported storage backends
func SupportedStorageTypes() []string {
	return []string{
		"json",
		"sqlite",
		"googlesheet",
		"postgresql",
		"mysql",
		"mongodb",
	}
}
