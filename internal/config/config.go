package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port             string   `mapstructure:"PORT"`
	Env              string   `mapstructure:"ENV"`
	Timezone         string   `mapstructure:"TIMEZONE"`
	ToleranceMinutes int      `mapstructure:"CHECKIN_TOLERANCE_MIN"`
	MinOffsetDays    int      `mapstructure:"MIN_OFFSET_DAYS"`
	RetentionHours   int      `mapstructure:"RETENTION_HOURS"`
	MatchFallback    string   `mapstructure:"MATCH_FALLBACK"`
	AdminJWTSecret   string   `mapstructure:"ADMIN_JWT_SECRET"`
	CORSOrigins      []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS     float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst   int      `mapstructure:"RATE_LIMIT_BURST"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("TIMEZONE", "America/Vancouver")
	v.SetDefault("CHECKIN_TOLERANCE_MIN", 30)
	v.SetDefault("MIN_OFFSET_DAYS", 21)
	v.SetDefault("RETENTION_HOURS", 24)
	v.SetDefault("MATCH_FALLBACK", "earliest")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 25)
	v.SetDefault("RATE_LIMIT_BURST", 50)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("TIMEZONE")
	v.BindEnv("CHECKIN_TOLERANCE_MIN")
	v.BindEnv("MIN_OFFSET_DAYS")
	v.BindEnv("RETENTION_HOURS")
	v.BindEnv("MATCH_FALLBACK")
	v.BindEnv("ADMIN_JWT_SECRET")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")

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

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Location resolves the configured service timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Tolerance is the check-in window half-width.
func (c *Config) Tolerance() time.Duration {
	return time.Duration(c.ToleranceMinutes) * time.Minute
}

// Retention is how long records are kept after creation.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.RetentionHours) * time.Hour
}

// FallbackToEarliest reports whether multi-match disambiguation may fall
// back to the earliest record when nothing is scheduled today.
func (c *Config) FallbackToEarliest() bool {
	return c.MatchFallback != "strict"
}

// Validate checks that the configuration is safe to run. Outside
// development the admin routes require a signing secret.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q is not a valid IANA zone: %w", c.Timezone, err)
	}
	if c.ToleranceMinutes <= 0 {
		return fmt.Errorf("CHECKIN_TOLERANCE_MIN must be positive, got %d", c.ToleranceMinutes)
	}
	if c.MinOffsetDays <= 0 {
		return fmt.Errorf("MIN_OFFSET_DAYS must be positive, got %d", c.MinOffsetDays)
	}
	if c.RetentionHours <= 0 {
		return fmt.Errorf("RETENTION_HOURS must be positive, got %d", c.RetentionHours)
	}
	if c.MatchFallback != "earliest" && c.MatchFallback != "strict" {
		return fmt.Errorf("MATCH_FALLBACK must be \"earliest\" or \"strict\", got %q", c.MatchFallback)
	}
	if !c.IsDev() && c.AdminJWTSecret == "" {
		return fmt.Errorf("ADMIN_JWT_SECRET is required when ENV is not development")
	}
	return nil
}
