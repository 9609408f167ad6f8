package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/akarpov/weatherbot/internal/config"
	"github.com/akarpov/weatherbot/internal/logger"
)

func main() {
	fmt.Println("Weather Bot Configuration Demo")
	fmt.Println("==============================")

	configPath := flag.String("config", "", "Path to config file (defaults to config.yaml)")
	createExample := flag.Bool("create-example", false, "Create example config file")
	flag.Parse()

	if *createExample {
		createExampleConfig()
		return
	}

	cfg, err := config.Load(config.GetConfigPath(*configPath))
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.RedactSecret(cfg.Telegram.Token)
	log.Info("Configuration loaded successfully")

	fmt.Println("Configuration Summary:")
	fmt.Printf("- Log Level: %s\n", cfg.LogLevel)
	fmt.Printf("- Telegram Token: %s\n", maskToken(cfg.Telegram.Token))
	fmt.Printf("- Admin IDs: %v\n", cfg.Telegram.AdminIDs)
	fmt.Printf("- Timezone: %s\n", cfg.Telegram.Timezone)
	fmt.Printf("- Storage Type: %s\n", cfg.GetStorageType())
	fmt.Printf("- Connection String: %s\n", cfg.Storage.ConnectionString)
	fmt.Printf("- Spam Limits: %d/min, %d/hour, %d/day\n",
		cfg.Spam.MaxRequestsPerMinute, cfg.Spam.MaxRequestsPerHour, cfg.Spam.MaxRequestsPerDay)
	fmt.Printf("- Quota: %d requests/day, ledger at %s\n", cfg.Quota.DailyLimit, cfg.Quota.Path)
	fmt.Printf("- Backups: enabled=%v, daily at %02d:05, retention %d days\n",
		cfg.Backup.Enabled, cfg.Backup.Hour, cfg.Backup.RetentionDays)
	fmt.Printf("- Default Language: %s (enabled: %v)\n",
		cfg.GetDefaultLanguage(), cfg.GetEnabledLanguages())
	fmt.Printf("- Operations API: enabled=%v, port=%d\n", cfg.API.Enabled, cfg.API.Port)
	fmt.Printf("- Web UI: enabled=%v, port=%d\n", cfg.WebUI.Enabled, cfg.WebUI.Port)

	fmt.Println("\nSupported Storage Types:")
	for _, storageType := range config.SupportedStorageTypes() {
		fmt.Printf("- %s\n", storageType)
	}

	fmt.Println("\nDemo completed successfully!")
}

// createExampleConfig creates an example config.yaml file
func createExampleConfig() {
	content := `# Weather Bot Configuration Example
# Generated on ` + time.Now().Format("2006-01-02 15:04:05") + `

# Log level (debug, info, warn, error)
log_level: info

# Telegram settings
telegram:
  # Bot token (get from BotFather)
  token: "YOUR_TELEGRAM_BOT_TOKEN"
  # User ids allowed to run admin commands
  admin_ids: []
  # Language used for admin notifications
  admin_language: "ru"
  # Fallback timezone for subscriptions and admin timestamps
  timezone: "Europe/Berlin"

# User profile storage
storage:
  # Storage type (json, sqlite, googlesheet, postgresql, mysql, mongodb)
  type: "json"
  # Connection string or path
  connection_string: "./data/storage.json"

# Abuse mitigation
spam:
  max_requests_per_minute: 30
  max_requests_per_hour: 200
  max_requests_per_day: 300
  block_duration_seconds: 300
  extended_block_duration_seconds: 3600
  min_cooldown_seconds: 1.0
  max_message_length: 1000

# Daily storage backups (file-based backends only)
backup:
  enabled: true
  retention_days: 30
  hour: 3

# External weather API budget
quota:
  daily_limit: 1000
  path: "./data/weather_api_quota.json"

# Weather providers
weather:
  provider: "open-meteo"
  geocode_provider: "nominatim"

# Languages
language:
  default_language: "ru"
  enabled: ["en", "ru", "de"]

# Operations REST endpoint
api:
  enabled: false
  port: 8080
  auth_tokens: []
  tokens_file: ""

# Operations dashboard (requires the API endpoint)
webui:
  enabled: false
  host: ""
  port: 8081
`

	err := os.WriteFile("config.example.yaml", []byte(content), 0644)
	if err != nil {
		fmt.Printf("Error creating example config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Example configuration file created: config.example.yaml")
}

// maskToken masks a token for display
func maskToken(token string) string {
	if len(token) <= 8 {
		return "********"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
