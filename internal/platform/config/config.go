package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	// Plaid credentials and environment (sandbox, development, production).
	PlaidClientID string `mapstructure:"PLAID_CLIENT_ID"`
	PlaidSecret   string `mapstructure:"PLAID_SECRET"`
	PlaidEnv      string `mapstructure:"PLAID_ENV"`

	// Gemini model used by the categorization engine.
	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel  string `mapstructure:"GEMINI_MODEL"`

	// Hex-encoded 32-byte key sealing provider access tokens at rest.
	TokenEncryptionKey string `mapstructure:"TOKEN_ENCRYPTION_KEY"`

	// HistoryStartDate bounds historical backfill and investment history.
	HistoryStartDate time.Time
	// SyncPageSize is the page size used for provider pagination.
	SyncPageSize int
	// ConfidenceThreshold gates AI categorization; results at or below it
	// are discarded (0-100).
	ConfidenceThreshold int
	// SyncInterval drives the background scheduler; zero disables it.
	SyncInterval time.Duration

	// ReceiptImageTransformURL is a format string turning a PDF receipt URL
	// into a rendered-image URL. Empty disables PDF receipts.
	ReceiptImageTransformURL string `mapstructure:"RECEIPT_IMAGE_TRANSFORM_URL"`

	PosthogAPIKey   string `mapstructure:"POSTHOG_API_KEY"`
	PosthogEndpoint string `mapstructure:"POSTHOG_ENDPOINT"`
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("PLAID_CLIENT_ID", "")
	viper.SetDefault("PLAID_SECRET", "")
	viper.SetDefault("PLAID_ENV", "sandbox")
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	viper.SetDefault("TOKEN_ENCRYPTION_KEY", "")
	viper.SetDefault("HISTORY_START_DATE", "2018-01-01")
	viper.SetDefault("SYNC_PAGE_SIZE", 100)
	viper.SetDefault("CONFIDENCE_THRESHOLD", 60)
	viper.SetDefault("SYNC_INTERVAL", "")
	viper.SetDefault("RECEIPT_IMAGE_TRANSFORM_URL", "")
	viper.SetDefault("POSTHOG_API_KEY", "")
	viper.SetDefault("POSTHOG_ENDPOINT", "https://app.posthog.com")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.PlaidClientID = viper.GetString("PLAID_CLIENT_ID")
	cfg.PlaidSecret = viper.GetString("PLAID_SECRET")
	cfg.PlaidEnv = viper.GetString("PLAID_ENV")
	if cfg.PlaidClientID == "" || cfg.PlaidSecret == "" {
		log.Println("Warning: PLAID_CLIENT_ID or PLAID_SECRET not set. Provider sync will not function.")
	}

	cfg.GeminiAPIKey = viper.GetString("GEMINI_API_KEY")
	cfg.GeminiModel = viper.GetString("GEMINI_MODEL")
	if cfg.GeminiAPIKey == "" {
		log.Println("Warning: GEMINI_API_KEY not set. AI categorization will not function.")
	}

	cfg.TokenEncryptionKey = viper.GetString("TOKEN_ENCRYPTION_KEY")
	if cfg.TokenEncryptionKey == "" {
		log.Println("Warning: TOKEN_ENCRYPTION_KEY not set. Access tokens cannot be unsealed.")
	}

	historyStartStr := viper.GetString("HISTORY_START_DATE")
	historyStart, err := time.Parse("2006-01-02", historyStartStr)
	if err != nil {
		historyStart = time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
		log.Printf("Warning: Invalid value for HISTORY_START_DATE ('%s'). Defaulting to %s.\n", historyStartStr, historyStart.Format("2006-01-02"))
	}
	cfg.HistoryStartDate = historyStart

	cfg.SyncPageSize = viper.GetInt("SYNC_PAGE_SIZE")
	if cfg.SyncPageSize <= 0 {
		cfg.SyncPageSize = 100
	}

	cfg.ConfidenceThreshold = viper.GetInt("CONFIDENCE_THRESHOLD")
	if cfg.ConfidenceThreshold <= 0 || cfg.ConfidenceThreshold > 100 {
		log.Printf("Warning: Invalid value for CONFIDENCE_THRESHOLD (%d). Defaulting to 60.\n", cfg.ConfidenceThreshold)
		cfg.ConfidenceThreshold = 60
	}

	syncIntervalStr := viper.GetString("SYNC_INTERVAL")
	if syncIntervalStr != "" {
		syncInterval, err := time.ParseDuration(syncIntervalStr)
		if err != nil {
			log.Printf("Warning: Invalid value for SYNC_INTERVAL ('%s'). Scheduler disabled.\n", syncIntervalStr)
		} else {
			cfg.SyncInterval = syncInterval
		}
	}

	cfg.ReceiptImageTransformURL = viper.GetString("RECEIPT_IMAGE_TRANSFORM_URL")
	cfg.PosthogAPIKey = viper.GetString("POSTHOG_API_KEY")
	cfg.PosthogEndpoint = viper.GetString("POSTHOG_ENDPOINT")

	return cfg, nil
}
