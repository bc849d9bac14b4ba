package model

import (
	"github.com/couchcryptid/weather-forecast-etl/internal/domain"
)

// RegionModel holds one fitted function per target variable for one region.
type RegionModel struct {
	Region string
	Fits   [domain.NumVariables]Linear
	// Rows is the number of lagged rows the model was fit on.
	Rows int
}

// Func returns the fitted function for the named variable.
func (m *RegionModel) Func(v domain.Variable) (Linear, bool) {
	i := domain.VariableIndex(v)
	if i < 0 {
		return Linear{}, false
	}
	return m.Fits[i], true
}

// Predict evaluates every variable's function on its own lags.
func (m *RegionModel) Predict(lag1, lag2 domain.Values) domain.Values {
	var out domain.Values
	for i, f := range m.Fits {
		out[i] = f.Predict(lag1[i], lag2[i])
	}
	return out
}

// FitRegion fits an independent 2-lag regression per variable on a region's
// lagged rows. Fewer than domain.MinLaggedRows rows, or a failed fit, yields
// a *domain.InsufficientDataError.
func FitRegion(region string, rows []domain.LaggedRow) (*RegionModel, error) {
	if len(rows) < domain.MinLaggedRows {
		return nil, &domain.InsufficientDataError{Region: region, Rows: len(rows), Min: domain.MinLaggedRows}
	}

	m := &RegionModel{Region: region, Rows: len(rows)}
	x := make([][2]float64, len(rows))
	y := make([]float64, len(rows))

	for v := range domain.Variables {
		for i, r := range rows {
			x[i] = [2]float64{r.Lag1[v], r.Lag2[v]}
			y[i] = r.Values[v]
		}
		fit, err := FitOLS(x, y)
		if err != nil {
			return nil, &domain.InsufficientDataError{Region: region, Rows: len(rows), Min: domain.MinLaggedRows, Err: err}
		}
		m.Fits[v] = fit
	}
	return m, nil
}
