package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Version is reported by the health endpoint and the version command.
const Version = "1.0.0"

// Config holds runtime wiring options for building the broker. Every field
// has an environment variable and a default; flags may override both.
type Config struct {
	Port               int           // COURIER_PORT, listen port
	AllowedOrigins     []string      // COURIER_ALLOWED_ORIGINS, comma-separated
	RateLimitPoints    int           // COURIER_RATE_LIMIT_POINTS, tokens per window per source
	RateLimitWindow    time.Duration // COURIER_RATE_LIMIT_WINDOW
	DefaultTTL         time.Duration // COURIER_DEFAULT_TTL
	MaxTTL             time.Duration // COURIER_MAX_TTL, ceiling on caller-supplied TTLs
	EnvelopeSweepEvery time.Duration // COURIER_ENVELOPE_SWEEP
	SessionSweepEvery  time.Duration // COURIER_SESSION_SWEEP
	SessionIdleAfter   time.Duration // COURIER_SESSION_IDLE
	ReplicationTimeout time.Duration // COURIER_REPLICATION_TIMEOUT, per peer
	Peers              []string      // COURIER_PEERS, seed peer URLs, comma-separated
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Port:               3000,
		AllowedOrigins:     []string{"*"},
		RateLimitPoints:    100,
		RateLimitWindow:    time.Minute,
		DefaultTTL:         24 * time.Hour,
		MaxTTL:             7 * 24 * time.Hour,
		EnvelopeSweepEvery: 5 * time.Minute,
		SessionSweepEvery:  time.Minute,
		SessionIdleAfter:   5 * time.Minute,
		ReplicationTimeout: 5 * time.Second,
	}
}

// ConfigFromEnv layers the COURIER_* environment over the defaults.
// Unparseable values fall back to the default silently; configuration
// mistakes should not keep the broker down.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.Port = envInt("COURIER_PORT", cfg.Port)
	cfg.AllowedOrigins = envList("COURIER_ALLOWED_ORIGINS", cfg.AllowedOrigins)
	cfg.RateLimitPoints = envInt("COURIER_RATE_LIMIT_POINTS", cfg.RateLimitPoints)
	cfg.RateLimitWindow = envDuration("COURIER_RATE_LIMIT_WINDOW", cfg.RateLimitWindow)
	cfg.DefaultTTL = envDuration("COURIER_DEFAULT_TTL", cfg.DefaultTTL)
	cfg.MaxTTL = envDuration("COURIER_MAX_TTL", cfg.MaxTTL)
	cfg.EnvelopeSweepEvery = envDuration("COURIER_ENVELOPE_SWEEP", cfg.EnvelopeSweepEvery)
	cfg.SessionSweepEvery = envDuration("COURIER_SESSION_SWEEP", cfg.SessionSweepEvery)
	cfg.SessionIdleAfter = envDuration("COURIER_SESSION_IDLE", cfg.SessionIdleAfter)
	cfg.ReplicationTimeout = envDuration("COURIER_REPLICATION_TIMEOUT", cfg.ReplicationTimeout)
	cfg.Peers = envList("COURIER_PEERS", nil)
	return cfg
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
