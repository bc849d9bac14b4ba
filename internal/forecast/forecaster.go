package forecast

import (
	"fmt"
	"time"

	"github.com/couchcryptid/weather-forecast-etl/internal/domain"
	"github.com/couchcryptid/weather-forecast-etl/internal/model"
)

// FeedbackMode selects which prediction is carried into the next step's lags.
type FeedbackMode string

const (
	// FeedbackRaw carries full-precision predictions forward. Rounding
	// affects output only.
	FeedbackRaw FeedbackMode = "raw"
	// FeedbackRounded carries the two-decimal output values forward.
	FeedbackRounded FeedbackMode = "rounded"
)

// ParseFeedbackMode validates a mode name.
func ParseFeedbackMode(s string) (FeedbackMode, error) {
	switch FeedbackMode(s) {
	case FeedbackRaw, FeedbackRounded:
		return FeedbackMode(s), nil
	default:
		return "", fmt.Errorf("unknown feedback mode %q", s)
	}
}

// Predictor evaluates every variable's fitted function on its own lags.
type Predictor interface {
	Predict(lag1, lag2 domain.Values) domain.Values
}

var _ Predictor = (*model.RegionModel)(nil)

// Result is a region's horizon of forecast points along with the unrounded
// predictions that produced them.
type Result struct {
	Points []domain.ForecastPoint
	Raw    []domain.Values
}

// Forecaster produces fixed-horizon forecasts.
type Forecaster struct {
	feedback FeedbackMode
	horizon  int
}

// New creates a Forecaster with the domain horizon.
func New(feedback FeedbackMode) *Forecaster {
	if feedback == "" {
		feedback = FeedbackRaw
	}
	return &Forecaster{feedback: feedback, horizon: domain.Horizon}
}

// Feedback returns the configured feedback mode.
func (f *Forecaster) Feedback() FeedbackMode { return f.feedback }

// Forecast predicts the days after lastDate for one region. seed must hold
// at least two rows; the last two seed the rolling window. Each step uses the
// two immediately preceding values, observed or predicted, and the model is
// never refit.
func (f *Forecaster) Forecast(region string, m Predictor, seed []domain.LaggedRow, lastDate time.Time) (Result, error) {
	if len(seed) < domain.LagDepth {
		return Result{}, &domain.InsufficientDataError{Region: region, Rows: len(seed), Min: domain.LagDepth}
	}

	w := NewWindow(seed[len(seed)-2].Values, seed[len(seed)-1].Values)
	res := Result{
		Points: make([]domain.ForecastPoint, 0, f.horizon),
		Raw:    make([]domain.Values, 0, f.horizon),
	}

	date := lastDate
	for step := 0; step < f.horizon; step++ {
		lag1, lag2 := w.Lags()
		pred := m.Predict(lag1, lag2)
		date = date.AddDate(0, 0, 1)

		rounded := domain.RoundValues(pred)
		year, month, day := date.Date()
		res.Points = append(res.Points, domain.ForecastPoint{
			Date:      date,
			Year:      year,
			Month:     int(month),
			Day:       day,
			Region:    region,
			Values:    rounded,
			Predicted: true,
		})
		res.Raw = append(res.Raw, pred)

		if f.feedback == FeedbackRounded {
			w.Slide(rounded)
		} else {
			w.Slide(pred)
		}
	}
	return res, nil
}
