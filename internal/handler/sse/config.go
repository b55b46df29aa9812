package sse

import "time"

// Config holds configuration for SSE connections
type Config struct {
	// KeepAliveInterval is how often a comment line is written on an idle
	// stream so proxies do not time it out
	KeepAliveInterval time.Duration
	// RetryMS is sent once as the client's reconnect delay
	RetryMS int
}

// DefaultConfig returns the default SSE configuration
func DefaultConfig() *Config {
	return &Config{
		KeepAliveInterval: 15 * time.Second,
		RetryMS:           3000,
	}
}
