package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/weather-forecast-etl/internal/domain"
	"github.com/couchcryptid/weather-forecast-etl/internal/forecast"
	"github.com/couchcryptid/weather-forecast-etl/internal/observability"
	"github.com/couchcryptid/weather-forecast-etl/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	records []domain.RawRecord
	err     error
}

func (m *mockExtractor) Extract(context.Context) ([]domain.RawRecord, error) {
	return m.records, m.err
}

type mockLoader struct {
	calls  int
	points []domain.ForecastPoint
	err    error
}

func (m *mockLoader) Load(_ context.Context, points []domain.ForecastPoint) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.points = points
	return nil
}

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// rawDays builds one station row per day for n days starting at start.
func rawDays(region string, n int, values func(i int) domain.Values) []domain.RawRecord {
	recs := make([]domain.RawRecord, n)
	for i := range recs {
		v := values(i)
		recs[i] = domain.RawRecord{
			Line:   i + 2,
			Date:   start.AddDate(0, 0, i).Format(domain.DateLayout),
			Region: region,
			TMin:   fmtFloat(v[0] - 5),
			TMax:   fmtFloat(v[0] + 5),
			TAvg:   fmtFloat(v[0]),
			PRCP:   fmtFloat(v[1]),
			AWND:   fmtFloat(v[2]),
			WDF5:   fmtFloat(v[3]),
		}
	}
	return recs
}

func constant(v domain.Values) func(int) domain.Values {
	return func(int) domain.Values { return v }
}

func wavy(phase float64) func(int) domain.Values {
	return func(i int) domain.Values {
		x := float64(i) + phase
		return domain.Values{
			15 + 8*math.Sin(x/3),
			2 + math.Cos(x/2),
			4 + 0.5*math.Sin(x/5),
			180 + 40*math.Cos(x/7),
		}
	}
}

func newPipeline(e pipeline.Extractor, l pipeline.Loader, opts pipeline.Options) (*pipeline.Pipeline, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return pipeline.New(e, l, slog.Default(), m, opts), m
}

// --- tests ---

func TestPipeline_Run_ConstantRegion(t *testing.T) {
	want := domain.Values{20, 0, 5, 180}
	ext := &mockExtractor{records: rawDays("TEST", 12, constant(want))}
	ldr := &mockLoader{}
	p, _ := newPipeline(ext, ldr, pipeline.Options{})

	sum, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, ldr.points, domain.Horizon)

	for i, pt := range ldr.points {
		assert.Equal(t, "TEST", pt.Region)
		assert.Equal(t, start.AddDate(0, 0, 12+i), pt.Date)
		assert.Equal(t, want, pt.Values)
		assert.True(t, pt.Predicted)
	}

	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, 12, sum.Observations)
	assert.Equal(t, 12, sum.RegionDays)
	assert.Equal(t, 1, sum.Regions)
	assert.Equal(t, 1, sum.Forecasted)
	assert.Empty(t, sum.Skipped)
	assert.Equal(t, domain.Horizon, sum.Points)
}

func TestPipeline_Run_ImputesAndDrops(t *testing.T) {
	recs := rawDays("TEST", 12, constant(domain.Values{15, 1, 3, 90}))
	for i := range recs {
		recs[i].TMin, recs[i].TMax, recs[i].TAvg = "10", "20", ""
	}
	// A second station on day 0 missing PRCP must not affect the day mean.
	bad := recs[0]
	bad.TAvg, bad.PRCP = "99", ""
	recs = append(recs, bad)

	ldr := &mockLoader{}
	p, m := newPipeline(&mockExtractor{records: recs}, ldr, pipeline.Options{})

	sum, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, sum.Imputed)
	assert.Equal(t, 1, sum.Dropped)
	assert.Equal(t, 12, sum.RegionDays)
	require.Len(t, ldr.points, domain.Horizon)
	assert.Equal(t, domain.Values{15, 1, 3, 90}, ldr.points[0].Values)

	assert.Equal(t, 13.0, testutil.ToFloat64(m.ObservationsRead))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.ObservationsImputed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ObservationsDropped.WithLabelValues("PRCP")))
}

func TestPipeline_Run_ExcludesSparseRegions(t *testing.T) {
	var recs []domain.RawRecord
	recs = append(recs, rawDays("AK", 11, wavy(0))...)  // 9 lagged rows
	recs = append(recs, rawDays("HI", 1, wavy(1))...)   // no lagged rows
	recs = append(recs, rawDays("TEST", 12, wavy(2))...) // exactly 10

	ldr := &mockLoader{}
	p, m := newPipeline(&mockExtractor{records: recs}, ldr, pipeline.Options{})

	sum, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Regions)
	assert.Equal(t, 1, sum.Forecasted)
	assert.Equal(t, []pipeline.SkippedRegion{
		{Region: "AK", LaggedRows: 9, Reason: "too few lagged rows"},
		{Region: "HI", LaggedRows: 0, Reason: "too few lagged rows"},
	}, sum.Skipped)

	require.Len(t, ldr.points, domain.Horizon)
	for _, pt := range ldr.points {
		assert.Equal(t, "TEST", pt.Region)
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RegionsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RegionsSkipped))
	assert.Equal(t, float64(domain.Horizon), testutil.ToFloat64(m.ForecastPoints))
}

func TestPipeline_Run_CompletenessAndOrder(t *testing.T) {
	var recs []domain.RawRecord
	// Input order is not region order.
	recs = append(recs, rawDays("TX", 30, wavy(3))...)
	recs = append(recs, rawDays("CA", 25, wavy(0))...)
	recs = append(recs, rawDays("NY", 20, wavy(7))...)

	ldr := &mockLoader{}
	p, _ := newPipeline(&mockExtractor{records: recs}, ldr, pipeline.Options{Workers: 3})

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, ldr.points, 3*domain.Horizon)

	lastObserved := map[string]int{"CA": 25, "NY": 20, "TX": 30}
	for r, region := range []string{"CA", "NY", "TX"} {
		block := ldr.points[r*domain.Horizon : (r+1)*domain.Horizon]
		for i, pt := range block {
			require.Equal(t, region, pt.Region)
			assert.Equal(t, start.AddDate(0, 0, lastObserved[region]+i), pt.Date, "%s step %d", region, i)
			for _, v := range pt.Values {
				assert.Equal(t, domain.Round2(v), v)
			}
		}
	}
}

func TestPipeline_Run_DeterministicAcrossWorkers(t *testing.T) {
	var recs []domain.RawRecord
	for i, region := range []string{"WA", "OR", "ID", "MT", "WY", "UT"} {
		recs = append(recs, rawDays(region, 20+i, wavy(float64(i)))...)
	}

	run := func(workers int) []domain.ForecastPoint {
		ldr := &mockLoader{}
		p, _ := newPipeline(&mockExtractor{records: recs}, ldr, pipeline.Options{Workers: workers})
		_, err := p.Run(context.Background())
		require.NoError(t, err)
		return ldr.points
	}

	sequential := run(1)
	for _, workers := range []int{2, 4, 8} {
		if diff := cmp.Diff(sequential, run(workers)); diff != "" {
			t.Fatalf("workers=%d changed output (-sequential +parallel):\n%s", workers, diff)
		}
	}
}

func TestPipeline_Run_RoundedFeedback(t *testing.T) {
	recs := rawDays("TEST", 16, wavy(0))

	run := func(mode forecast.FeedbackMode) []domain.ForecastPoint {
		ldr := &mockLoader{}
		p, _ := newPipeline(&mockExtractor{records: recs}, ldr, pipeline.Options{Feedback: mode})
		_, err := p.Run(context.Background())
		require.NoError(t, err)
		return ldr.points
	}

	raw, rounded := run(forecast.FeedbackRaw), run(forecast.FeedbackRounded)
	require.Len(t, rounded, domain.Horizon)
	assert.Equal(t, raw[0], rounded[0], "first step only sees observed lags")
}

func TestPipeline_Run_ParseErrorAbortsBeforeLoad(t *testing.T) {
	recs := rawDays("TEST", 12, constant(domain.Values{1, 1, 1, 1}))
	recs[5].Date = "2024-01-06"

	ldr := &mockLoader{}
	p, m := newPipeline(&mockExtractor{records: recs}, ldr, pipeline.Options{})

	_, err := p.Run(context.Background())
	var pe *domain.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 7, pe.Line)
	assert.Equal(t, domain.ColDate, pe.Field)
	assert.Zero(t, ldr.calls)
	assert.Zero(t, testutil.ToFloat64(m.LastSuccess))
}

func TestPipeline_Run_MalformedNumber(t *testing.T) {
	recs := rawDays("TEST", 12, constant(domain.Values{1, 1, 1, 1}))
	recs[3].AWND = "calm"

	ldr := &mockLoader{}
	p, _ := newPipeline(&mockExtractor{records: recs}, ldr, pipeline.Options{})

	_, err := p.Run(context.Background())
	var pe *domain.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, domain.ColAWND, pe.Field)
	assert.Zero(t, ldr.calls)
}

func TestPipeline_Run_ExtractError(t *testing.T) {
	ldr := &mockLoader{}
	p, _ := newPipeline(&mockExtractor{err: errors.New("disk gone")}, ldr, pipeline.Options{})

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
	assert.Zero(t, ldr.calls)
}

func TestPipeline_Run_LoadError(t *testing.T) {
	ext := &mockExtractor{records: rawDays("TEST", 12, constant(domain.Values{1, 1, 1, 1}))}
	ldr := &mockLoader{err: errors.New("read-only filesystem")}
	p, m := newPipeline(ext, ldr, pipeline.Options{})

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load")
	assert.Zero(t, testutil.ToFloat64(m.ForecastPoints))
	assert.Zero(t, testutil.ToFloat64(m.LastSuccess))
}

func TestPipeline_Run_EmptyInputLoadsEmptyForecast(t *testing.T) {
	ldr := &mockLoader{}
	p, _ := newPipeline(&mockExtractor{}, ldr, pipeline.Options{})

	sum, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, ldr.calls)
	assert.Empty(t, ldr.points)
	assert.Zero(t, sum.Regions)
}

func TestPipeline_Run_Cancelled(t *testing.T) {
	var recs []domain.RawRecord
	for i := range 5 {
		recs = append(recs, rawDays(fmt.Sprintf("R%d", i), 15, wavy(float64(i)))...)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ldr := &mockLoader{}
	p, _ := newPipeline(&mockExtractor{records: recs}, ldr, pipeline.Options{Workers: 2})

	_, err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, ldr.calls)
}

func TestPipeline_Run_StageMetrics(t *testing.T) {
	now := time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)

	ext := &mockExtractor{records: rawDays("TEST", 12, constant(domain.Values{1, 1, 1, 1}))}
	p, m := newPipeline(ext, &mockLoader{}, pipeline.Options{Clock: clock})

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, testutil.CollectAndCount(m.StageDuration))
	assert.Equal(t, float64(now.Unix()), testutil.ToFloat64(m.LastSuccess))
}
