package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// Synchronous conversions are cancelled after this long.
	RequestTimeout time.Duration

	// Conversion tuning
	HeuristicsFile string
	PageOffset     *int   // overrides front-matter offset detection when set
	PDFPassword    string // default password for encrypted uploads

	// PDF
	PDFFallbackPdftotext bool

	loadErrs []error
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL:         envDuration("JOB_TTL", 1*time.Hour),
		RequestTimeout: envDuration("REQUEST_TIMEOUT", 2*time.Minute),

		HeuristicsFile: os.Getenv("HEURISTICS_FILE"),
		PDFPassword:    os.Getenv("PDF_PASSWORD"),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if v := os.Getenv("PAGE_OFFSET"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			cfg.loadErrs = append(cfg.loadErrs, fmt.Errorf("PAGE_OFFSET must be an integer, got %q", v))
		} else {
			cfg.PageOffset = &n
		}
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 2 * time.Minute
	}

	return cfg
}

func (c Config) Validate() error {
	errs := append([]error(nil), c.loadErrs...)
	if n, err := strconv.Atoi(c.Port); err != nil || n <= 0 || n > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be a TCP port number, got %q", c.Port))
	}
	if c.HeuristicsFile != "" {
		if _, err := os.Stat(c.HeuristicsFile); err != nil {
			errs = append(errs, fmt.Errorf("HEURISTICS_FILE: %w", err))
		}
	}
	return errors.Join(errs...)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
