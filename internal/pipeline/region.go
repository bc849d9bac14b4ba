package pipeline

import (
	"context"
	"errors"

	"github.com/couchcryptid/weather-forecast-etl/internal/domain"
	"github.com/couchcryptid/weather-forecast-etl/internal/model"
	"golang.org/x/sync/errgroup"
)

// regionResult holds either a region's forecast or the reason it was skipped.
type regionResult struct {
	points  []domain.ForecastPoint
	skipped *SkippedRegion
}

// forecastRegions models every region on up to p.workers goroutines. Results
// are indexed by input position so output order never depends on completion
// order.
func (p *Pipeline) forecastRegions(ctx context.Context, series []domain.RegionSeries) ([]regionResult, error) {
	results := make([]regionResult, len(series))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, s := range series {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := p.forecastRegion(s)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// forecastRegion fits and forecasts one region. Insufficient data is a skip,
// not an error.
func (p *Pipeline) forecastRegion(s domain.RegionSeries) (regionResult, error) {
	rows := domain.BuildLaggedRows(s.Days)

	m, err := model.FitRegion(s.Region, rows)
	if err != nil {
		return skipOrFail(s.Region, len(rows), err)
	}

	last := s.Days[len(s.Days)-1].Date
	res, err := p.forecaster.Forecast(s.Region, m, rows, last)
	if err != nil {
		return skipOrFail(s.Region, len(rows), err)
	}
	return regionResult{points: res.Points}, nil
}

func skipOrFail(region string, rows int, err error) (regionResult, error) {
	var insufficient *domain.InsufficientDataError
	if !errors.As(err, &insufficient) {
		return regionResult{}, err
	}
	reason := "too few lagged rows"
	if insufficient.Err != nil {
		reason = insufficient.Err.Error()
	}
	return regionResult{skipped: &SkippedRegion{Region: region, LaggedRows: rows, Reason: reason}}, nil
}
