package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	Env     string
	Port    string
	AppURL  string
	Version string

	DatabaseURL string
	JWTSecret   string

	UploadDir      string
	MaxUploadBytes int64
	SampleLimit    int

	GeminiAPIKey     string
	GeminiModel      string
	NarrativeTimeout time.Duration

	StripeSecretKey     string
	StripeWebhookSecret string

	RedisURL        string
	RateLimitMax    int
	RateLimitWindow time.Duration

	CORSOrigins string
}

var requiredVars = []string{"DATABASE_URL", "JWT_SECRET", "APP_URL"}

var requiredInProduction = []string{"GEMINI_API_KEY", "STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET"}

var optionalVars = []string{"GEMINI_API_KEY", "STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET", "REDIS_URL"}

// Load reads a .env file if present and builds a Config from the process
// environment. A missing .env file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv(os.Getenv), nil
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) *Config {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	return &Config{
		Env:     get("APP_ENV", "development"),
		Port:    get("PORT", "3000"),
		AppURL:  strings.TrimRight(get("APP_URL", ""), "/"),
		Version: get("APP_VERSION", "dev"),

		DatabaseURL: get("DATABASE_URL", ""),
		JWTSecret:   get("JWT_SECRET", ""),

		UploadDir:      get("UPLOAD_DIR", "tmp/uploads"),
		MaxUploadBytes: cast.ToInt64(get("MAX_UPLOAD_BYTES", "10485760")),
		SampleLimit:    cast.ToInt(get("SAMPLE_LIMIT", "5000")),

		GeminiAPIKey:     get("GEMINI_API_KEY", ""),
		GeminiModel:      get("GEMINI_MODEL", "gemini-1.5-flash"),
		NarrativeTimeout: cast.ToDuration(get("NARRATIVE_TIMEOUT", "8s")),

		StripeSecretKey:     get("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: get("STRIPE_WEBHOOK_SECRET", ""),

		RedisURL:        get("REDIS_URL", ""),
		RateLimitMax:    cast.ToInt(get("RATE_LIMIT_MAX", "10")),
		RateLimitWindow: cast.ToDuration(get("RATE_LIMIT_WINDOW", "1m")),

		CORSOrigins: get("CORS_ORIGINS", "*"),
	}
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Validate checks required settings. It returns the names of unset optional
// variables as warnings; features depending on them run in a reduced mode.
func (c *Config) Validate() (warnings []string, err error) {
	values := c.values()

	var missing []string
	for _, k := range requiredVars {
		if values[k] == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if c.IsProduction() {
		var prodMissing []string
		for _, k := range requiredInProduction {
			if values[k] == "" {
				prodMissing = append(prodMissing, k)
			}
		}
		if len(prodMissing) > 0 {
			return nil, fmt.Errorf("missing required production environment variables: %s", strings.Join(prodMissing, ", "))
		}
	}

	if !strings.HasPrefix(c.DatabaseURL, "postgres://") && !strings.HasPrefix(c.DatabaseURL, "postgresql://") {
		return nil, errors.New("DATABASE_URL must be a valid PostgreSQL connection string")
	}
	if c.IsProduction() && !strings.HasPrefix(c.AppURL, "https://") {
		return nil, errors.New("APP_URL must use HTTPS in production")
	}
	if c.SampleLimit <= 0 {
		return nil, errors.New("SAMPLE_LIMIT must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return nil, errors.New("MAX_UPLOAD_BYTES must be positive")
	}

	for _, k := range optionalVars {
		if values[k] == "" {
			warnings = append(warnings, k)
		}
	}
	return warnings, nil
}

// MissingRequired lists required variables that are unset.
func (c *Config) MissingRequired() []string {
	values := c.values()
	var missing []string
	for _, k := range requiredVars {
		if values[k] == "" {
			missing = append(missing, k)
		}
	}
	return missing
}

func (c *Config) values() map[string]string {
	return map[string]string{
		"DATABASE_URL":          c.DatabaseURL,
		"JWT_SECRET":            c.JWTSecret,
		"APP_URL":               c.AppURL,
		"GEMINI_API_KEY":        c.GeminiAPIKey,
		"STRIPE_SECRET_KEY":     c.StripeSecretKey,
		"STRIPE_WEBHOOK_SECRET": c.StripeWebhookSecret,
		"REDIS_URL":             c.RedisURL,
	}
}
