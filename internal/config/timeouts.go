package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable timeout values.
// These values can be customized via environment variables.
type Timeouts struct {
	BackendCall       time.Duration // Timeout for a single provisioning backend call
	AgentInvoke       time.Duration // Timeout for one agent runtime invocation
	RetryMaxAttempts  int           // Retries after the first submission attempt
	RetryInitialDelay time.Duration // Initial delay between submission retries
	WatchInterval     time.Duration // Interval between status polls in wait/watch
	WatchTimeout      time.Duration // Maximum time wait/watch poll for
	ShutdownGrace     time.Duration // Time in-flight requests get on shutdown
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - STACKPILOT_TIMEOUT_BACKEND (default: 30s)
//   - STACKPILOT_TIMEOUT_AGENT (default: 5m)
//   - STACKPILOT_RETRY_MAX_ATTEMPTS (default: 3)
//   - STACKPILOT_RETRY_INITIAL_DELAY (default: 500ms)
//   - STACKPILOT_WATCH_INTERVAL (default: 5s)
//   - STACKPILOT_WATCH_TIMEOUT (default: 30m)
//   - STACKPILOT_SHUTDOWN_GRACE (default: 10s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		BackendCall:       parseDuration("STACKPILOT_TIMEOUT_BACKEND", 30*time.Second),
		AgentInvoke:       parseDuration("STACKPILOT_TIMEOUT_AGENT", 5*time.Minute),
		RetryMaxAttempts:  parseInt("STACKPILOT_RETRY_MAX_ATTEMPTS", 3),
		RetryInitialDelay: parseDuration("STACKPILOT_RETRY_INITIAL_DELAY", 500*time.Millisecond),
		WatchInterval:     parseDuration("STACKPILOT_WATCH_INTERVAL", 5*time.Second),
		WatchTimeout:      parseDuration("STACKPILOT_WATCH_TIMEOUT", 30*time.Minute),
		ShutdownGrace:     parseDuration("STACKPILOT_SHUTDOWN_GRACE", 10*time.Second),
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return defaultVal
	}

	return i
}
