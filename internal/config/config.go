package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// GoogleConfig holds the calendar provider settings. Mirroring is an
// optional feature: when the credentials are absent the service runs with
// calendar sync disabled.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	TokenFile    string // cached OAuth token (access + refresh), JSON
	CalendarID   string
	TimeZone     string // IANA name for timed events; empty = local
}

// Enabled reports whether calendar mirroring is configured.
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

type Config struct {
	DatabaseURL string
	RedisAddr   string
	Port        string
	UserID      string // placeholder owner until real auth exists
	Google      GoogleConfig
}

// Load reads configuration from the environment and validates it.
// Missing required keys fail here, before any collaborator is dialed.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		Port:        getenv("PORT", "8080"),
		UserID:      getenv("USER_ID", "anonymous"),
		Google: GoogleConfig{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			TokenFile:    getenv("GOOGLE_TOKEN_FILE", defaultTokenFile()),
			CalendarID:   getenv("GOOGLE_CALENDAR_ID", "primary"),
			TimeZone:     os.Getenv("TIMEZONE"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required keys and the coherence of the optional calendar
// block.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	g := c.Google
	if (g.ClientID == "") != (g.ClientSecret == "") {
		return fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set together")
	}
	if g.Enabled() && g.TimeZone != "" {
		if _, err := time.LoadLocation(g.TimeZone); err != nil {
			return fmt.Errorf("invalid TIMEZONE %q: %w", g.TimeZone, err)
		}
	}
	return nil
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "token.json"
	}
	return filepath.Join(home, ".config", "taskmirror", "token.json")
}

// getenv returns environment variable or defaultVal
func getenv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
