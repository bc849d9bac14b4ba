package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	csvadapter "github.com/couchcryptid/weather-forecast-etl/internal/adapter/csv"
	"github.com/couchcryptid/weather-forecast-etl/internal/adapter/jsonfile"
	"github.com/couchcryptid/weather-forecast-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/weather-forecast-etl/internal/config"
	"github.com/couchcryptid/weather-forecast-etl/internal/forecast"
	"github.com/couchcryptid/weather-forecast-etl/internal/observability"
	"github.com/couchcryptid/weather-forecast-etl/internal/pipeline"
)

// pushRetries bounds Pushgateway attempts after the first failure.
const pushRetries = 3

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	if err := run(cfg, logger); err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	metrics := observability.NewMetrics()

	feedback, err := forecast.ParseFeedbackMode(cfg.FeedbackMode)
	if err != nil {
		logger.Error("invalid feedback mode", "error", err)
		return err
	}

	var extractor pipeline.Extractor
	switch cfg.ResolvedInputFormat() {
	case config.FormatXLSX:
		extractor = xlsx.NewReader(cfg.InputPath, cfg.XLSXSheet)
	default:
		extractor = csvadapter.NewReader(cfg.InputPath)
	}
	writer := jsonfile.NewWriter(cfg.OutputPath, cfg.OutputIndent)

	p := pipeline.New(extractor, writer, logger, metrics, pipeline.Options{
		Workers:  cfg.Workers,
		Feedback: feedback,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("forecast run starting",
		"input", cfg.InputPath,
		"format", cfg.ResolvedInputFormat(),
		"output", cfg.OutputPath,
	)
	sum, runErr := p.Run(ctx)
	if runErr != nil {
		logger.Error("forecast run failed", "run_id", sum.RunID, "error", runErr)
	}

	// Failed runs export metrics too.
	exportCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	err = metrics.Export(exportCtx, observability.ExportOptions{
		Textfile:       cfg.MetricsTextfile,
		PushgatewayURL: cfg.PushgatewayURL,
		PushgatewayJob: cfg.PushgatewayJob,
		PushRetries:    pushRetries,
	})
	if err != nil {
		logger.Error("metrics export failed", "error", err)
	}

	if runErr != nil {
		return runErr
	}
	logger.Info("forecast written",
		"run_id", sum.RunID,
		"output", cfg.OutputPath,
		"regions", sum.Regions,
		"forecasted", sum.Forecasted,
		"skipped", len(sum.Skipped),
		"points", sum.Points,
	)
	return nil
}
