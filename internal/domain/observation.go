package domain

import "time"

// Variable names one of the forecast target columns.
type Variable string

const (
	TAVG Variable = "TAVG"
	PRCP Variable = "PRCP"
	AWND Variable = "AWND"
	WDF5 Variable = "WDF5"
)

// NumVariables is the number of forecast targets.
const NumVariables = 4

// Variables lists the forecast targets in the fixed order used to index [Values].
var Variables = [NumVariables]Variable{TAVG, PRCP, AWND, WDF5}

const (
	// Horizon is the number of days forecast per region.
	Horizon = 120
	// LagDepth is the number of previous rows used as predictors.
	LagDepth = 2
	// MinLaggedRows is the smallest lagged series a region model is fit on.
	MinLaggedRows = 10
	// DateLayout is the YYYYMMDD layout of the date column.
	DateLayout = "20060102"
)

// Values holds one reading per target variable, indexed in [Variables] order.
type Values [NumVariables]float64

// Get returns the value for the named variable, or 0 for an unknown name.
func (v Values) Get(name Variable) float64 {
	i := VariableIndex(name)
	if i < 0 {
		return 0
	}
	return v[i]
}

// VariableIndex returns the position of name in [Variables], or -1.
func VariableIndex(name Variable) int {
	for i, v := range Variables {
		if v == name {
			return i
		}
	}
	return -1
}

// RawRecord is one input row as text, keyed by column role. Line is the
// 1-based row number in the source, header included.
type RawRecord struct {
	Line   int
	Date   string
	Region string
	TMin   string
	TMax   string
	TAvg   string
	PRCP   string
	AWND   string
	WDF5   string
}

// Reading is a parsed input row. Nil fields were missing in the source.
type Reading struct {
	Line   int
	Region string
	Date   time.Time
	TMin   *float64
	TMax   *float64
	TAvg   *float64
	PRCP   *float64
	AWND   *float64
	WDF5   *float64
}

// Observation is a cleaned station reading with all targets present.
type Observation struct {
	Region string
	Date   time.Time
	Values Values
}

// RegionDay is the mean of all observations for one region on one date.
type RegionDay struct {
	Region string
	Date   time.Time
	Year   int
	Month  int
	Day    int
	Values Values

	// Stations is the number of observations averaged into Values.
	Stations int
}

// LaggedRow is a RegionDay with the values of the two preceding rows of its
// region's series.
type LaggedRow struct {
	RegionDay
	Lag1 Values
	Lag2 Values
}

// RegionSeries is one region's date-ordered days.
type RegionSeries struct {
	Region string
	Days   []RegionDay
}

// ForecastPoint is one predicted day for one region. Values are rounded to
// two decimal places.
type ForecastPoint struct {
	Date      time.Time
	Year      int
	Month     int
	Day       int
	Region    string
	Values    Values
	Predicted bool
}

// DateInt encodes a date as the integer YYYYMMDD.
func DateInt(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}
