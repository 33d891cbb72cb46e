package config

import (
	"encoding/json"
	"errors"
	"os"
)

type Config struct {
	Server    ServerConfig    `json:"server"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Currency  CurrencyConfig  `json:"currency"`
	CORS      CORSConfig      `json:"cors"`
	Redirect  RedirectConfig  `json:"redirect"`

	Database  DatabaseConfig  `json:"-"`
	Redis     RedisConfig     `json:"-"`
	Providers ProvidersConfig `json:"-"`
	Admin     AdminConfig     `json:"-"`
	JWTSecret string          `json:"-"`
}

type ServerConfig struct {
	Port        string `json:"port"`
	Environment string `json:"environment"`
	PublicURL   string `json:"public_url"` // externally reachable base, used in provider callback URLs
}

type RateLimitConfig struct {
	Backend string `json:"backend"` // "memory" or "redis"
}

type CurrencyConfig struct {
	ProviderURL string `json:"provider_url"`
}

type CORSConfig struct {
	AllowedOrigins []string `json:"allowed_origins"`
}

type RedirectConfig struct {
	BaseURL string `json:"base_url"`
}

type DatabaseConfig struct {
	DSN string
}

// Bootstrap credentials for the support-lookup account, env only. When unset
// no account is seeded and /admin/login always rejects.
type AdminConfig struct {
	Email    string
	Password string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Secrets for each payment provider. Loaded from env only, never from the
// config file, never serialized back out.
type ProvidersConfig struct {
	StripeSecretKey       string
	StripeWebhookSecret   string
	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string
	PayUMerchantKey       string
	PayUSalt              string
}

func Load(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	applyEnv(&config)

	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}
	if config.RateLimit.Backend == "" {
		config.RateLimit.Backend = "memory"
	}
	if config.Redirect.BaseURL == "" {
		config.Redirect.BaseURL = "http://localhost:3000"
	}
	if config.Server.PublicURL == "" {
		config.Server.PublicURL = "http://localhost:" + config.Server.Port
	}

	return &config, nil
}

func applyEnv(config *Config) {
	config.Database.DSN = os.Getenv("DATABASE_DSN")
	config.Redis.Addr = os.Getenv("REDIS_ADDR")
	config.Redis.Password = os.Getenv("REDIS_PASSWORD")
	config.JWTSecret = os.Getenv("JWT_SECRET")
	config.Admin.Email = os.Getenv("ADMIN_EMAIL")
	config.Admin.Password = os.Getenv("ADMIN_PASSWORD")

	config.Providers = ProvidersConfig{
		StripeSecretKey:       os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret:   os.Getenv("STRIPE_WEBHOOK_SECRET"),
		RazorpayKeyID:         os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:     os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayWebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
		PayUMerchantKey:       os.Getenv("PAYU_MERCHANT_KEY"),
		PayUSalt:              os.Getenv("PAYU_SALT"),
	}

	if port := os.Getenv("PORT"); port != "" {
		config.Server.Port = port
	}
	if publicURL := os.Getenv("PUBLIC_URL"); publicURL != "" {
		config.Server.PublicURL = publicURL
	}
}

var ErrMissingDSN = errors.New("DATABASE_DSN is not set")

func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return ErrMissingDSN
	}
	return nil
}
