package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Auth modes. "jwt" verifies self-issued HS256 tokens against JWT_SECRET;
// "supabase" delegates verification to the Supabase auth service.
const (
	AuthModeJWT      = "jwt"
	AuthModeSupabase = "supabase"
)

type Config struct {
	Port               string   `mapstructure:"PORT"`
	Env                string   `mapstructure:"ENV"`
	DatabaseURL        string   `mapstructure:"DATABASE_URL"`
	DBMaxConns         int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns         int32    `mapstructure:"DB_MIN_CONNS"`
	AuthMode           string   `mapstructure:"AUTH_MODE"`
	JWTSecret          string   `mapstructure:"JWT_SECRET"`
	SupabaseURL        string   `mapstructure:"SUPABASE_URL"`
	SupabaseServiceKey string   `mapstructure:"SUPABASE_SERVICE_KEY"`
	StorageBucket      string   `mapstructure:"STORAGE_BUCKET"`
	CORSOrigins        []string `mapstructure:"CORS_ORIGINS"`
	BodyLimit          string   `mapstructure:"BODY_LIMIT"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "3000")
	v.SetDefault("ENV", "development")
	v.SetDefault("AUTH_MODE", "") // auto-detect: "" -> inferred from SUPABASE_URL
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("STORAGE_BUCKET", "patient-photos")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("BODY_LIMIT", "10M")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("AUTH_MODE")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("SUPABASE_URL")
	v.BindEnv("SUPABASE_SERVICE_KEY")
	v.BindEnv("STORAGE_BUCKET")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("BODY_LIMIT")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// ResolvedAuthMode returns the effective auth mode. If AUTH_MODE is explicitly
// set, it is returned. Otherwise the mode is inferred: SUPABASE_URL set →
// "supabase", else "jwt".
func (c *Config) ResolvedAuthMode() string {
	if c.AuthMode != "" {
		return c.AuthMode
	}
	if c.SupabaseURL != "" {
		return AuthModeSupabase
	}
	return AuthModeJWT
}

// Validate checks that the configuration is safe to run. A missing token
// secret (or Supabase credentials in supabase mode) is a startup error, not
// something to discover per request.
func (c *Config) Validate() error {
	switch mode := c.ResolvedAuthMode(); mode {
	case AuthModeJWT:
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when AUTH_MODE is %q", AuthModeJWT)
		}
	case AuthModeSupabase:
		if c.SupabaseURL == "" {
			return fmt.Errorf("SUPABASE_URL is required when AUTH_MODE is %q", AuthModeSupabase)
		}
		if c.SupabaseServiceKey == "" {
			return fmt.Errorf("SUPABASE_SERVICE_KEY is required when AUTH_MODE is %q", AuthModeSupabase)
		}
	default:
		return fmt.Errorf("AUTH_MODE must be %q or %q, got %q", AuthModeJWT, AuthModeSupabase, mode)
	}
	return nil
}
