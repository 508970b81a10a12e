package config

import (
	"github.com/spf13/viper"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	// Server
	Port           int    `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"` // development | production
	WorkerPoolSize int    `mapstructure:"WORKER_POOL_SIZE"`
	// Comma-separated browser origins for the ops dashboard. Empty disables
	// CORS entirely; the bot clients are server-side and never need it.
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	// Remote spreadsheet (system of record)
	SheetsDriver          string `mapstructure:"SHEETS_DRIVER"` // google | memory
	SheetsSpreadsheetID   string `mapstructure:"SHEETS_SPREADSHEET_ID"`
	SheetsCredentialsFile string `mapstructure:"SHEETS_CREDENTIALS_FILE"`
	ProductSheet          string `mapstructure:"PRODUCT_SHEET"`
	IntakeSheet           string `mapstructure:"INTAKE_SHEET"`
	WriteoffSheet         string `mapstructure:"WRITEOFF_SHEET"`
	DedupLookbackRows     int    `mapstructure:"DEDUP_LOOKBACK_ROWS"`
	CacheTTLSeconds       int    `mapstructure:"CACHE_TTL_SECONDS"`

	// Local store (pending actions, intake sessions)
	DatabasePath string `mapstructure:"DATABASE_PATH"`

	// Redis (job queue)
	RedisURL string `mapstructure:"REDIS_URL"`

	// Auth
	JWTSecret          string `mapstructure:"JWT_SECRET"`
	JWTExpirationHours int    `mapstructure:"JWT_EXPIRATION_HOURS"`

	// Confirmations
	ConfirmTTLSeconds int `mapstructure:"CONFIRM_TTL_SECONDS"`

	// Low-stock alerts
	LowStockThreshold int    `mapstructure:"LOW_STOCK_THRESHOLD"`
	AlertEmail        string `mapstructure:"ALERT_EMAIL"`

	// SMTP
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
}

// Load reads configuration from environment variables (and optional .env file).
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Sensible defaults for development
	viper.SetDefault("PORT", 8000)
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("WORKER_POOL_SIZE", 3)
	viper.SetDefault("SHEETS_DRIVER", "google")
	viper.SetDefault("PRODUCT_SHEET", "Stock")
	viper.SetDefault("INTAKE_SHEET", "Intake")
	viper.SetDefault("WRITEOFF_SHEET", "Writeoff")
	viper.SetDefault("DEDUP_LOOKBACK_ROWS", 200)
	viper.SetDefault("CACHE_TTL_SECONDS", 300)
	viper.SetDefault("DATABASE_PATH", "data/agrosnab.db")
	viper.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	viper.SetDefault("JWT_EXPIRATION_HOURS", 24)
	viper.SetDefault("CONFIRM_TTL_SECONDS", 300)
	viper.SetDefault("LOW_STOCK_THRESHOLD", 3)
	viper.SetDefault("SMTP_PORT", 587)

	// Optional .env file for local development — does not fail if missing
	_ = viper.ReadInConfig()

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
