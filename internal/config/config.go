// Package config loads bot configuration from a .env file and the
// process environment, and validates it before anything starts.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// TokenPlaceholder is the sentinel shipped in .env.example. A token that
// still contains it means the operator never configured the bot.
const TokenPlaceholder = "YOUR_BOT_TOKEN_HERE"

// ErrEnvFileMissing is returned when the requested .env file does not exist.
var ErrEnvFileMissing = errors.New("env file not found")

// ErrTokenPlaceholder is returned when BOT_TOKEN is unset or still the sentinel.
var ErrTokenPlaceholder = errors.New("BOT_TOKEN is not configured")

// Config holds all application configuration.
type Config struct {
	BotToken            string // BOT_TOKEN
	DatabasePath        string // DATABASE_PATH
	LogFile             string // LOG_FILE
	PIDFile             string // PID_FILE
	Timezone            string // TIMEZONE (IANA name)
	HealthAddr          string // HEALTH_ADDR
	MaxRemindersPerUser int    // MAX_REMINDERS_PER_USER
	CleanupIntervalHrs  int    // CLEANUP_INTERVAL_HOURS
}

// Load reads the given .env file, then the environment, applies defaults and
// validates. A missing file is an error: the operator gets the instructional
// message instead of a half-configured bot.
func Load(envFile string) (*Config, error) {
	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s (copy .env.example to .env and set BOT_TOKEN)", ErrEnvFileMissing, envFile)
		}
		return nil, err
	}
	if err := godotenv.Load(envFile); err != nil {
		return nil, fmt.Errorf("cannot parse %s: %w", envFile, err)
	}

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from the current environment only, without the
// token check. reminderctl uses it: stop/status/health need the PID file and
// health address but never talk to Telegram.
func FromEnv() (*Config, error) {
	cfg := &Config{
		BotToken:     os.Getenv("BOT_TOKEN"),
		DatabasePath: os.Getenv("DATABASE_PATH"),
		LogFile:      os.Getenv("LOG_FILE"),
		PIDFile:      os.Getenv("PID_FILE"),
		Timezone:     os.Getenv("TIMEZONE"),
		HealthAddr:   os.Getenv("HEALTH_ADDR"),
	}

	if env := os.Getenv("MAX_REMINDERS_PER_USER"); env != "" {
		if v, err := strconv.Atoi(env); err == nil {
			cfg.MaxRemindersPerUser = v
		}
	}
	if env := os.Getenv("CLEANUP_INTERVAL_HOURS"); env != "" {
		if v, err := strconv.Atoi(env); err == nil {
			cfg.CleanupIntervalHrs = v
		}
	}

	cfg.applyDefaults()

	var errs []string
	if cfg.MaxRemindersPerUser < 0 {
		errs = append(errs, "MAX_REMINDERS_PER_USER must be positive")
	}
	if cfg.CleanupIntervalHrs < 0 {
		errs = append(errs, "CLEANUP_INTERVAL_HOURS must be positive")
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DatabasePath == "" {
		c.DatabasePath = "reminders.db"
	}
	if c.LogFile == "" {
		c.LogFile = "bot.log"
	}
	if c.PIDFile == "" {
		c.PIDFile = "reminderbot.pid"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.HealthAddr == "" {
		c.HealthAddr = ":8080"
	}
	if c.MaxRemindersPerUser == 0 {
		c.MaxRemindersPerUser = 100
	}
	if c.CleanupIntervalHrs == 0 {
		c.CleanupIntervalHrs = 24
	}
}

// Validate checks the token. It runs before anything is launched so an
// unconfigured bot exits with the instructional message and nothing else.
func (c *Config) Validate() error {
	if c.BotToken == "" || strings.Contains(c.BotToken, TokenPlaceholder) {
		return fmt.Errorf("%w (edit .env and set a real token from @BotFather)", ErrTokenPlaceholder)
	}
	return nil
}
