package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	OAuthProviderDemo   = "demo"
	OAuthProviderGoogle = "google"

	SMSProviderLog    = "log"
	SMSProviderTwilio = "twilio"
)

type Config struct {
	HTTPAddr    string `mapstructure:"HTTP_ADDR"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	AutoMigrate bool   `mapstructure:"AUTO_MIGRATE"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	Env         string `mapstructure:"APP_ENV"`

	JWTSecret    string `mapstructure:"JWT_SECRET"`
	JWTIssuer    string `mapstructure:"JWT_ISSUER"`
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`

	OAuthProvider      string `mapstructure:"OAUTH_PROVIDER"`
	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	OAuthRedirectURL   string `mapstructure:"OAUTH_REDIRECT_URL"`

	SMSProvider      string `mapstructure:"SMS_PROVIDER"`
	TwilioAccountSID string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioFromPhone  string `mapstructure:"TWILIO_FROM_PHONE"`

	ResendAPIKey string `mapstructure:"RESEND_API_KEY"`
	ResendFrom   string `mapstructure:"RESEND_FROM"`

	CookieDomain string `mapstructure:"COOKIE_DOMAIN"`
	CookieSecure bool   `mapstructure:"COOKIE_SECURE"`

	RateLimitPerMinute int `mapstructure:"RATE_LIMIT_PER_MINUTE"`
}

// Load reads .env when present and then the environment. Environment
// variables win over .env values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("AUTO_MIGRATE", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "smssignup")
	v.SetDefault("JWT_ACCESS_TTL", "24h")
	v.SetDefault("OAUTH_PROVIDER", OAuthProviderDemo)
	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("OAUTH_REDIRECT_URL", "http://localhost:8080/auth/callback")
	v.SetDefault("SMS_PROVIDER", SMSProviderLog)
	v.SetDefault("TWILIO_ACCOUNT_SID", "")
	v.SetDefault("TWILIO_AUTH_TOKEN", "")
	v.SetDefault("TWILIO_FROM_PHONE", "")
	v.SetDefault("RESEND_API_KEY", "")
	v.SetDefault("RESEND_FROM", "")
	v.SetDefault("COOKIE_DOMAIN", "")
	v.SetDefault("COOKIE_SECURE", true)
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 30)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return errors.New("config: HTTP_ADDR must be set")
	}
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required")
	}

	switch c.OAuthProvider {
	case OAuthProviderDemo:
	case OAuthProviderGoogle:
		if c.GoogleClientID == "" || c.GoogleClientSecret == "" {
			return errors.New("config: GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required for the google provider")
		}
	default:
		return errors.New("config: OAUTH_PROVIDER must be demo or google")
	}

	switch c.SMSProvider {
	case SMSProviderLog:
	case SMSProviderTwilio:
		if c.TwilioAccountSID == "" || c.TwilioAuthToken == "" || c.TwilioFromPhone == "" {
			return errors.New("config: TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM_PHONE are required for the twilio provider")
		}
	default:
		return errors.New("config: SMS_PROVIDER must be log or twilio")
	}

	if c.IsProduction() {
		if c.OAuthProvider == OAuthProviderDemo {
			return errors.New("config: OAUTH_PROVIDER=demo must not be used when APP_ENV=production")
		}
		if c.SMSProvider == SMSProviderLog {
			return errors.New("config: SMS_PROVIDER=log must not be used when APP_ENV=production")
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// AccessTTL parses JWT_ACCESS_TTL, falling back to 24h.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTAccessTTL)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}
