// Package config provides environment-based configuration for go-walkie
// commands.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Defaults for the walkie daemon and services.
const (
	DefaultDaemonAddr = "localhost:8900"
	DefaultWebPort    = "8080"
	DefaultSTTURL     = "ws://localhost:8901/stt"
	DefaultEmbedURL   = "http://localhost:8902"
	DefaultDBPath     = "walkie.db"
	DefaultNATSURL    = "nats://localhost:4222"
)

// Get returns the env var value or the default if unset.
func Get(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Required returns the env var value or exits with a usage hint.
func Required(key string) string {
	v := os.Getenv(key)
	if v == "" {
		fmt.Fprintf(os.Stderr, "Error: %s environment variable is required\n", key)
		fmt.Fprintf(os.Stderr, "Usage: %s=<value> go run ./cmd/...\n", key)
		os.Exit(1)
	}
	return v
}

// GetInt returns the env var parsed as int, or the default if unset or
// unparseable.
func GetInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// GetFloat returns the env var parsed as float64, or the default.
func GetFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// GetDuration returns the env var parsed as a duration, or the default.
func GetDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// DaemonAddr returns the walkie daemon host:port from WALKIE_DAEMON_ADDR.
func DaemonAddr() string {
	return Get("WALKIE_DAEMON_ADDR", DefaultDaemonAddr)
}

// LogLevel returns the configured log level from LOG_LEVEL.
func LogLevel() string {
	return Get("LOG_LEVEL", "info")
}
