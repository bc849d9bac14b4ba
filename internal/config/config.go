package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Input formats accepted by INPUT_FORMAT.
const (
	FormatAuto = "auto"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Config holds all run settings, populated from environment variables.
type Config struct {
	InputPath    string
	InputFormat  string
	XLSXSheet    string
	OutputPath   string
	OutputIndent bool

	Workers      int
	FeedbackMode string

	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Metric export, both optional.
	MetricsTextfile string
	PushgatewayURL  string
	PushgatewayJob  string
}

// Load reads configuration from environment variables, applying defaults where
// unset. Variables in a .env file in the working directory are loaded first
// without overriding the real environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	workers, err := parseIntRange("WORKERS", 1, 1, 64)
	if err != nil {
		return nil, err
	}

	indent, err := parseBool("OUTPUT_INDENT", true)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		InputPath:       envOrDefault("INPUT_PATH", "data/weather.csv"),
		InputFormat:     strings.ToLower(envOrDefault("INPUT_FORMAT", FormatAuto)),
		XLSXSheet:       os.Getenv("XLSX_SHEET"),
		OutputPath:      envOrDefault("OUTPUT_PATH", "forecast_predictions.json"),
		OutputIndent:    indent,
		Workers:         workers,
		FeedbackMode:    envOrDefault("FEEDBACK_MODE", "raw"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),
		PushgatewayURL:  os.Getenv("PUSHGATEWAY_URL"),
		PushgatewayJob:  envOrDefault("PUSHGATEWAY_JOB", "weather_forecast_etl"),
	}

	if cfg.InputPath == "" {
		return nil, errors.New("INPUT_PATH is required")
	}
	if cfg.OutputPath == "" {
		return nil, errors.New("OUTPUT_PATH is required")
	}
	switch cfg.InputFormat {
	case FormatAuto, FormatCSV, FormatXLSX:
	default:
		return nil, fmt.Errorf("invalid INPUT_FORMAT %q", cfg.InputFormat)
	}
	switch cfg.FeedbackMode {
	case "raw", "rounded":
	default:
		return nil, fmt.Errorf("invalid FEEDBACK_MODE %q", cfg.FeedbackMode)
	}

	return cfg, nil
}

// ResolvedInputFormat returns the input format, inferring it from the file
// extension when set to auto.
func (c *Config) ResolvedInputFormat() string {
	if c.InputFormat != FormatAuto {
		return c.InputFormat
	}
	switch strings.ToLower(filepath.Ext(c.InputPath)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	default:
		return FormatCSV
	}
}

func envOrDefault(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseIntRange(key string, fallback, lo, hi int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s: must be between %d and %d", key, lo, hi)
	}
	return n, nil
}

func parseBool(key string, fallback bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, fmt.Errorf("invalid %s", key)
	}
	return b, nil
}
