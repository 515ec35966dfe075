// Package transport provides a high-level wrapper around NATS for walkie
// robot communication.
//
// This package handles:
//   - Connection management with automatic retry
//   - Teleoperation delta streaming
//   - Command publishing and state subscription
package transport

import (
	"fmt"
	"time"
)

// Config holds transport client configuration.
type Config struct {
	// URL is the NATS server URL.
	// Examples: "nats://localhost:4222", "nats://192.168.68.83:4222"
	URL string `yaml:"url" json:"url"`

	// Prefix is the subject prefix for all topics.
	// Default: "walkie"
	Prefix string `yaml:"prefix" json:"prefix"`

	// ReconnectInterval is how often to attempt reconnection on failure.
	ReconnectInterval time.Duration `yaml:"reconnect_interval" json:"reconnect_interval"`

	// MaxReconnectAttempts is the maximum number of reconnection attempts.
	// 0 means unlimited.
	MaxReconnectAttempts int `yaml:"max_reconnect_attempts" json:"max_reconnect_attempts"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		URL:                  "nats://localhost:4222",
		Prefix:               "walkie",
		ReconnectInterval:    2 * time.Second,
		MaxReconnectAttempts: 0, // Unlimited
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("url is required")
	}
	if c.Prefix == "" {
		return fmt.Errorf("prefix is required")
	}
	if c.ReconnectInterval <= 0 {
		return fmt.Errorf("reconnect interval must be positive")
	}
	return nil
}
