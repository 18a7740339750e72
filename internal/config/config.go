// Package config collects the server's environment-driven settings in one
// place. Every value has a production default; set the corresponding
// environment variable to override.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all tunable server parameters.
type Config struct {
	ListenAddr string // LISTEN_ADDR, HTTP listen address
	RedisAddr  string // REDIS_ADDR, empty selects the in-memory store

	ReadTimeout  time.Duration // READ_TIMEOUT, HTTP server read timeout
	WriteTimeout time.Duration // WRITE_TIMEOUT, HTTP server write timeout

	RecentWindow   int           // RECENT_WINDOW, messages fetched per partner in chat lists
	PartnerTimeout time.Duration // PARTNER_TIMEOUT, per-partner budget in chat lists
	FanoutLimit    int           // FANOUT_LIMIT, concurrent partner fetches in chat lists

	TypingStaleness time.Duration // TYPING_STALENESS, max typing entry age reported
	TypingTTL       time.Duration // TYPING_TTL, expiry on each pair's typing map
}

// Default returns the standard production configuration.
func Default() Config {
	return Config{
		ListenAddr:      ":8080",
		RedisAddr:       "localhost:6379",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		RecentWindow:    20,
		PartnerTimeout:  8 * time.Second,
		FanoutLimit:     16,
		TypingStaleness: 5 * time.Second,
		TypingTTL:       30 * time.Second,
	}
}

// FromEnv returns the default configuration with any environment overrides
// applied. Unparseable values fall back to the default silently.
func FromEnv() Config {
	cfg := Default()

	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v, ok := os.LookupEnv("REDIS_ADDR"); ok {
		cfg.RedisAddr = v
	}
	overrideDuration(&cfg.ReadTimeout, "READ_TIMEOUT")
	overrideDuration(&cfg.WriteTimeout, "WRITE_TIMEOUT")
	overrideInt(&cfg.RecentWindow, "RECENT_WINDOW")
	overrideDuration(&cfg.PartnerTimeout, "PARTNER_TIMEOUT")
	overrideInt(&cfg.FanoutLimit, "FANOUT_LIMIT")
	overrideDuration(&cfg.TypingStaleness, "TYPING_STALENESS")
	overrideDuration(&cfg.TypingTTL, "TYPING_TTL")

	return cfg
}

func overrideDuration(dst *time.Duration, name string) {
	if v := os.Getenv(name); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*dst = d
		}
	}
}

func overrideInt(dst *int, name string) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}
