package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/weather-forecast-etl/internal/domain"
	"github.com/couchcryptid/weather-forecast-etl/internal/forecast"
	"github.com/couchcryptid/weather-forecast-etl/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Extractor reads every raw record of the input.
type Extractor interface {
	Extract(ctx context.Context) ([]domain.RawRecord, error)
}

// Loader writes the complete, ordered forecast.
type Loader interface {
	Load(ctx context.Context, points []domain.ForecastPoint) error
}

// Options tunes a Pipeline. The zero value runs sequentially with raw
// feedback on the real clock.
type Options struct {
	// Workers bounds how many regions are modeled concurrently.
	Workers  int
	Feedback forecast.FeedbackMode
	Clock    clockwork.Clock
}

// Pipeline orchestrates a single forecast run: extract, clean, aggregate,
// model, forecast, load.
type Pipeline struct {
	extractor  Extractor
	loader     Loader
	logger     *slog.Logger
	metrics    *observability.Metrics
	forecaster *forecast.Forecaster
	workers    int
	clock      clockwork.Clock
}

// New creates a Pipeline with the given stages and observability.
func New(e Extractor, l Loader, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		extractor:  e,
		loader:     l,
		logger:     logger,
		metrics:    metrics,
		forecaster: forecast.New(opts.Feedback),
		workers:    opts.Workers,
		clock:      opts.Clock,
	}
}

// SkippedRegion records a region that produced no forecast.
type SkippedRegion struct {
	Region     string
	LaggedRows int
	Reason     string
}

// Summary describes a finished run.
type Summary struct {
	RunID        string
	Observations int
	Imputed      int
	Dropped      int
	RegionDays   int
	Regions      int
	Forecasted   int
	Skipped      []SkippedRegion
	Points       int
}

// Run executes one pass over the input. A parse error aborts the run before
// anything is loaded; regions without enough data are skipped and reported
// in the Summary.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	sum := Summary{RunID: uuid.NewString()}
	logger := p.logger.With("run_id", sum.RunID)
	logger.Info("pipeline started", "workers", p.workers, "feedback", p.forecaster.Feedback())

	var raw []domain.RawRecord
	err := p.stage("extract", func() error {
		var err error
		raw, err = p.extractor.Extract(ctx)
		return err
	})
	if err != nil {
		return sum, fmt.Errorf("extract: %w", err)
	}
	sum.Observations = len(raw)
	p.metrics.ObservationsRead.Add(float64(len(raw)))
	logger.Info("extracted", "rows", len(raw))

	var obs []domain.Observation
	err = p.stage("clean", func() error {
		readings, err := parseAll(ctx, raw)
		if err != nil {
			return err
		}
		var stats domain.CleanStats
		obs, stats = domain.Clean(readings)
		p.recordClean(logger, stats)
		sum.Imputed, sum.Dropped = stats.Imputed, stats.DroppedTotal()
		return nil
	})
	if err != nil {
		return sum, err
	}
	logger.Info("cleaned", "observations", len(obs), "imputed", sum.Imputed, "dropped", sum.Dropped)

	var series []domain.RegionSeries
	_ = p.stage("aggregate", func() error {
		days := domain.Aggregate(obs)
		sum.RegionDays = len(days)
		series = domain.SplitByRegion(days)
		return nil
	})
	sum.Regions = len(series)
	p.metrics.RegionsTotal.Add(float64(len(series)))
	logger.Info("aggregated", "region_days", sum.RegionDays, "regions", sum.Regions)

	var results []regionResult
	err = p.stage("model", func() error {
		var err error
		results, err = p.forecastRegions(ctx, series)
		return err
	})
	if err != nil {
		return sum, fmt.Errorf("forecast: %w", err)
	}

	points := make([]domain.ForecastPoint, 0, len(results)*domain.Horizon)
	for _, r := range results {
		if r.skipped != nil {
			sum.Skipped = append(sum.Skipped, *r.skipped)
			logger.Info("region skipped", "region", r.skipped.Region, "lagged_rows", r.skipped.LaggedRows, "reason", r.skipped.Reason)
			continue
		}
		sum.Forecasted++
		points = append(points, r.points...)
	}
	sum.Points = len(points)
	p.metrics.RegionsSkipped.Add(float64(len(sum.Skipped)))

	err = p.stage("load", func() error {
		return p.loader.Load(ctx, points)
	})
	if err != nil {
		return sum, fmt.Errorf("load: %w", err)
	}
	p.metrics.ForecastPoints.Add(float64(len(points)))
	p.metrics.LastSuccess.Set(float64(p.clock.Now().Unix()))

	logger.Info("pipeline finished",
		"regions", sum.Regions,
		"forecasted", sum.Forecasted,
		"skipped", len(sum.Skipped),
		"points", sum.Points,
	)
	return sum, nil
}

// stage runs fn and records its duration under name.
func (p *Pipeline) stage(name string, fn func() error) error {
	start := p.clock.Now()
	err := fn()
	p.metrics.StageDuration.WithLabelValues(name).Observe(p.clock.Since(start).Seconds())
	return err
}

func (p *Pipeline) recordClean(logger *slog.Logger, stats domain.CleanStats) {
	p.metrics.ObservationsImputed.Add(float64(stats.Imputed))
	for field, n := range stats.Dropped {
		p.metrics.ObservationsDropped.WithLabelValues(field).Add(float64(n))
		logger.Debug("rows dropped", "missing", field, "count", n)
	}
}

// parseAll converts every raw record, stopping at the first malformed one.
func parseAll(ctx context.Context, raw []domain.RawRecord) ([]domain.Reading, error) {
	readings := make([]domain.Reading, 0, len(raw))
	for i, r := range raw {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		reading, err := domain.ParseRecord(r)
		if err != nil {
			return nil, err
		}
		readings = append(readings, reading)
	}
	return readings, nil
}
