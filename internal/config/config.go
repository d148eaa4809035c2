package config

import (
	"log"
	"os"
)

// Config holds application configuration loaded from environment variables
type Config struct {
	Env           string
	Port          string
	PublicBaseURL string
	DatabaseURL   string
	RedisURL      string

	SessionSecret string
	EncryptionKey string

	LogLevel  string
	LogFormat string

	// Vendor credentials. When VendorStubMode is set, the Stripe, Mux and
	// print-shop clients return canned responses instead of calling out.
	StripeSecretKey     string
	MuxTokenID          string
	MuxTokenSecret      string
	PrintShopWebhookURL string
	PrintShopSecret     string
	VendorStubMode      bool

	// Object storage for mockups and QR codes
	S3Bucket          string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3PublicBaseURL   string

	// Product template discovery
	ProductDir string

	// Partner sign-in (print-shop dashboard)
	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string
}

// Load reads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		Env:           getEnvWithDefault("ENV", "development"),
		Port:          getEnvWithDefault("PORT", "8080"),
		PublicBaseURL: getEnvWithDefault("PUBLIC_BASE_URL", "http://localhost:8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      getEnvWithDefault("REDIS_URL", "redis://localhost:6379/0"),

		SessionSecret: os.Getenv("SESSION_SECRET"),
		EncryptionKey: os.Getenv("ENCRYPTION_KEY"),

		LogLevel:  getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvWithDefault("LOG_FORMAT", "text"),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		MuxTokenID:          os.Getenv("MUX_TOKEN_ID"),
		MuxTokenSecret:      os.Getenv("MUX_TOKEN_SECRET"),
		PrintShopWebhookURL: os.Getenv("PRINT_SHOP_WEBHOOK_URL"),
		PrintShopSecret:     os.Getenv("PRINT_SHOP_SECRET"),
		VendorStubMode:      getEnvWithDefault("VENDOR_STUB_MODE", "false") == "true",

		S3Bucket:          os.Getenv("S3_BUCKET"),
		S3Region:          getEnvWithDefault("S3_REGION", "us-east-1"),
		S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		S3PublicBaseURL:   os.Getenv("S3_PUBLIC_BASE_URL"),

		ProductDir: getEnvWithDefault("PRODUCT_DIR", "./products"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:  os.Getenv("GOOGLE_CALLBACK_URL"),
	}

	// Warn if using default session secret (insecure for production)
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = "dev-secret-change-in-production-use-openssl-rand-hex-32"
		log.Println("WARNING: Using default SESSION_SECRET. Generate a secure secret with: openssl rand -hex 32")
	}

	// Without vendor credentials the external clients cannot do anything
	// useful, so fall back to stub mode rather than failing every request.
	if cfg.StripeSecretKey == "" && !cfg.VendorStubMode {
		log.Println("WARNING: STRIPE_SECRET_KEY not set, enabling vendor stub mode")
		cfg.VendorStubMode = true
	}

	return cfg
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
