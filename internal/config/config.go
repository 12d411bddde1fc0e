// Package config loads service configuration from an optional YAML file
// and environment variables. Environment variables always win over file
// values; both fall back to built-in defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Server
	Port string

	// Optional shared secret gating /metrics. Empty leaves it open.
	InternalSharedSecret string

	// Limits
	MaxPDFBytes        int64
	MaxMultipartMemory int64
	MaxHeaderBytes     int
	MaxWordsReturned   int

	// Concurrency
	MaxConcurrentRequests int64

	// Server timeouts
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration

	// Wall-clock deadline around one whole count
	CountTimeout time.Duration

	// rate limiting (per IP)
	RateLimitEvery time.Duration
	RateLimitBurst int

	// housekeeping
	CleanupInterval time.Duration

	// health
	HealthDegradeRatio float64
}

// fileConfig mirrors the YAML file named by CONFIG_FILE. Every field is
// optional; durations are written as Go duration strings ("30s", "5m").
type fileConfig struct {
	Port                  string  `yaml:"port"`
	InternalSharedSecret  string  `yaml:"internalSharedSecret"`
	MaxPDFBytes           int     `yaml:"maxPdfBytes"`
	MaxMultipartMemory    int     `yaml:"maxMultipartMemory"`
	MaxHeaderBytes        int     `yaml:"maxHeaderBytes"`
	MaxWordsReturned      int     `yaml:"maxWordsReturned"`
	MaxConcurrentRequests int     `yaml:"maxConcurrentRequests"`
	ReadHeaderTimeout     string  `yaml:"readHeaderTimeout"`
	ReadTimeout           string  `yaml:"readTimeout"`
	WriteTimeout          string  `yaml:"writeTimeout"`
	IdleTimeout           string  `yaml:"idleTimeout"`
	CountTimeout          string  `yaml:"countTimeout"`
	RateLimitEvery        string  `yaml:"rateLimitEvery"`
	RateLimitBurst        int     `yaml:"rateLimitBurst"`
	CleanupInterval       string  `yaml:"cleanupInterval"`
	HealthDegradeRatio    float64 `yaml:"healthDegradeRatio"`
}

func Load() Config {
	f := loadFile(os.Getenv("CONFIG_FILE"))

	return Config{
		Port: envStr("PORT", strOr(f.Port, "8080")),

		InternalSharedSecret: envStr("INTERNAL_SHARED_SECRET", f.InternalSharedSecret),

		MaxPDFBytes:        int64(envInt("MAX_PDF_BYTES", intOr(f.MaxPDFBytes, 50<<20))),
		MaxMultipartMemory: int64(envInt("MAX_MULTIPART_MEMORY", intOr(f.MaxMultipartMemory, 8<<20))),
		MaxHeaderBytes:     envInt("MAX_HEADER_BYTES", intOr(f.MaxHeaderBytes, 1<<20)),
		MaxWordsReturned:   envInt("MAX_WORDS_RETURNED", intOr(f.MaxWordsReturned, 200)),

		MaxConcurrentRequests: int64(envInt("MAX_CONCURRENT_REQUESTS", intOr(f.MaxConcurrentRequests, 15))),

		ReadHeaderTimeout: envDur("READ_HEADER_TIMEOUT", durOr(f.ReadHeaderTimeout, 10*time.Second)),
		ReadTimeout:       envDur("READ_TIMEOUT", durOr(f.ReadTimeout, 60*time.Second)),
		WriteTimeout:      envDur("WRITE_TIMEOUT", durOr(f.WriteTimeout, 120*time.Second)),
		IdleTimeout:       envDur("IDLE_TIMEOUT", durOr(f.IdleTimeout, 60*time.Second)),

		CountTimeout: envDur("COUNT_TIMEOUT", durOr(f.CountTimeout, 60*time.Second)),

		RateLimitEvery: envDur("RATE_LIMIT_EVERY", durOr(f.RateLimitEvery, 600*time.Millisecond)),
		RateLimitBurst: envInt("RATE_LIMIT_BURST", intOr(f.RateLimitBurst, 20)),

		CleanupInterval: envDur("CLEANUP_INTERVAL", durOr(f.CleanupInterval, 5*time.Minute)),

		HealthDegradeRatio: envFloat("HEALTH_DEGRADE_RATIO", floatOr(f.HealthDegradeRatio, 0.9)),
	}
}

func (c Config) Validate() error {
	if s := strings.TrimSpace(c.InternalSharedSecret); s != "" && len(s) < 32 {
		return fmt.Errorf("INTERNAL_SHARED_SECRET must be at least 32 characters when set")
	}
	if c.MaxPDFBytes <= 0 {
		return fmt.Errorf("MAX_PDF_BYTES must be positive")
	}
	if c.MaxConcurrentRequests <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_REQUESTS must be positive")
	}
	return nil
}

// loadFile reads the YAML overlay. A missing or unreadable file is not
// fatal: the service must come up with env vars and defaults alone.
func loadFile(path string) fileConfig {
	var f fileConfig
	if strings.TrimSpace(path) == "" {
		return f
	}
	b, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot read config file %s: %v\n", path, err)
		return f
	}
	if err := yaml.Unmarshal(b, &f); err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot parse config file %s: %v\n", path, err)
		return fileConfig{}
	}
	return f
}

func envStr(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}

func envDur(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func strOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return strings.TrimSpace(v)
}

func intOr(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

func floatOr(v, fallback float64) float64 {
	if v <= 0 {
		return fallback
	}
	return v
}

func durOr(v string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
