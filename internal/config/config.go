// Package config resolves runtime settings from flags, a .env file and
// the process environment, in that order of precedence.
package config

import (
	"errors"
	"flag"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the service.
type Config struct {
	Port          int
	DBPath        string
	AdminPassword string
	LogLevel      string
	Timezone      string
	BaseURL       string
	Locale        string
	NoKeyboard    bool
}

// Parse validates flags and fills in environment fallbacks. A .env file
// in the working directory is loaded first when present.
func Parse(args []string) (Config, error) {
	// Missing .env is fine; the environment still applies
	_ = godotenv.Load()

	var cfg Config

	fs := flag.NewFlagSet("weekvote", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", 0, "HTTP server port")
	fs.StringVar(&cfg.DBPath, "db", "", "SQLite database path")
	fs.StringVar(&cfg.AdminPassword, "adminpw", "", "Admin password (auto-generated if not set)")
	fs.StringVar(&cfg.LogLevel, "loglevel", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.Timezone, "tz", "", "IANA time zone for week arithmetic")
	fs.StringVar(&cfg.BaseURL, "baseurl", "", "External base URL used in QR codes")
	fs.StringVar(&cfg.Locale, "locale", "", "BCP 47 locale for participant name sorting")
	fs.BoolVar(&cfg.NoKeyboard, "nokeyboard", false, "Disable keyboard shortcuts")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 8082
		}
	}
	if cfg.DBPath == "" {
		cfg.DBPath = envOr("DB_PATH", "weekvote.db")
	}
	if cfg.AdminPassword == "" {
		cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = envOr("LOG_LEVEL", "info")
	}
	if cfg.Timezone == "" {
		cfg.Timezone = envOr("TIMEZONE", "Local")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("BASE_URL")
	}
	if cfg.Locale == "" {
		cfg.Locale = envOr("COLLATION_LOCALE", "en")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
