package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/weather.csv", cfg.InputPath)
	assert.Equal(t, FormatAuto, cfg.InputFormat)
	assert.Empty(t, cfg.XLSXSheet)
	assert.Equal(t, "forecast_predictions.json", cfg.OutputPath)
	assert.True(t, cfg.OutputIndent)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, "raw", cfg.FeedbackMode)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.MetricsTextfile)
	assert.Empty(t, cfg.PushgatewayURL)
	assert.Equal(t, "weather_forecast_etl", cfg.PushgatewayJob)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("INPUT_PATH", "in/stations.xlsx")
	t.Setenv("INPUT_FORMAT", "XLSX")
	t.Setenv("XLSX_SHEET", "daily")
	t.Setenv("OUTPUT_PATH", "out/forecast.json")
	t.Setenv("OUTPUT_INDENT", "false")
	t.Setenv("WORKERS", "8")
	t.Setenv("FEEDBACK_MODE", "rounded")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("METRICS_TEXTFILE", "/var/lib/node_exporter/forecast.prom")
	t.Setenv("PUSHGATEWAY_URL", "http://pushgateway:9091")
	t.Setenv("PUSHGATEWAY_JOB", "nightly_forecast")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "in/stations.xlsx", cfg.InputPath)
	assert.Equal(t, FormatXLSX, cfg.InputFormat)
	assert.Equal(t, "daily", cfg.XLSXSheet)
	assert.Equal(t, "out/forecast.json", cfg.OutputPath)
	assert.False(t, cfg.OutputIndent)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "rounded", cfg.FeedbackMode)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "/var/lib/node_exporter/forecast.prom", cfg.MetricsTextfile)
	assert.Equal(t, "http://pushgateway:9091", cfg.PushgatewayURL)
	assert.Equal(t, "nightly_forecast", cfg.PushgatewayJob)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("OUTPUT_PATH=from-dotenv.json\nWORKERS=3\n"), 0o600))
	t.Setenv("WORKERS", "2")
	// godotenv sets process env directly.
	t.Cleanup(func() { _ = os.Unsetenv("OUTPUT_PATH") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv.json", cfg.OutputPath)
	assert.Equal(t, 2, cfg.Workers, "real environment wins over .env")
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeShutdownTimeout(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidWorkers(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, v := range []string{"0", "65", "many"} {
		t.Setenv("WORKERS", v)
		_, err := Load()
		require.Error(t, err, v)
		assert.Contains(t, err.Error(), "WORKERS")
	}
}

func TestLoad_InvalidOutputIndent(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OUTPUT_INDENT", "sometimes")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OUTPUT_INDENT")
}

func TestLoad_InvalidInputFormat(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("INPUT_FORMAT", "parquet")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INPUT_FORMAT")
}

func TestLoad_InvalidFeedbackMode(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FEEDBACK_MODE", "smoothed")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FEEDBACK_MODE")
}

func TestLoad_EmptyOutputPath(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OUTPUT_PATH", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OUTPUT_PATH")
}

func TestResolvedInputFormat(t *testing.T) {
	tests := []struct {
		path   string
		format string
		want   string
	}{
		{"data/weather.csv", FormatAuto, FormatCSV},
		{"data/weather.XLSX", FormatAuto, FormatXLSX},
		{"data/weather.xlsm", FormatAuto, FormatXLSX},
		{"data/weather.txt", FormatAuto, FormatCSV},
		{"data/weather.xlsx", FormatCSV, FormatCSV},
	}
	for _, tt := range tests {
		cfg := &Config{InputPath: tt.path, InputFormat: tt.format}
		assert.Equal(t, tt.want, cfg.ResolvedInputFormat(), tt.path)
	}
}
