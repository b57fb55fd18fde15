package utils

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the settings read from the environment
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	MongoURI      string
	MongoDatabase string
	JWTSecret     string
	SessionSecret string
	CookieSecure  bool

	EmailProvider    string // "postmark", "sendgrid" or empty for none
	PostmarkToken    string
	SendgridKey      string
	EmailSender      string
	OrderNotifyEmail string
}

// LoadConfig reads Config from environment variables. Call godotenv.Load
// first when a .env file should be honoured.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:             getenv("PORT", "8000"),
		Env:              getenv("APP_ENV", "development"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		MongoURI:         getenv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:    getenv("MONGODB_DATABASE", "farmstore"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		SessionSecret:    os.Getenv("SESSION_SECRET"),
		EmailProvider:    os.Getenv("EMAIL_PROVIDER"),
		PostmarkToken:    os.Getenv("POSTMARK_API_TOKEN"),
		SendgridKey:      os.Getenv("SENDGRID_API_KEY"),
		EmailSender:      os.Getenv("EMAIL_SENDER"),
		OrderNotifyEmail: os.Getenv("ORDER_NOTIFY_EMAIL"),
	}

	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("COOKIE_SECURE: %w", err)
		}
		cfg.CookieSecure = secure
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is not set")
	}

	switch cfg.EmailProvider {
	case "":
	case "postmark":
		if cfg.PostmarkToken == "" {
			return nil, fmt.Errorf("POSTMARK_API_TOKEN is required for the postmark provider")
		}
	case "sendgrid":
		if cfg.SendgridKey == "" {
			return nil, fmt.Errorf("SENDGRID_API_KEY is required for the sendgrid provider")
		}
	default:
		return nil, fmt.Errorf("unknown EMAIL_PROVIDER %q", cfg.EmailProvider)
	}

	return cfg, nil
}

// IsProduction reports whether the app runs with production settings
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
