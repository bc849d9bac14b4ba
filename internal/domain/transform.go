package domain

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

var errNonFinite = errors.New("value is not finite")

// ParseRecord converts a RawRecord into a Reading. A malformed date or a
// non-numeric value in a numeric column yields a *ParseError; missing cells
// yield nil fields.
func ParseRecord(raw RawRecord) (Reading, error) {
	date, err := ParseDate(raw.Date)
	if err != nil {
		return Reading{}, &ParseError{Line: raw.Line, Field: ColDate, Value: raw.Date, Err: err}
	}

	r := Reading{Line: raw.Line, Region: strings.TrimSpace(raw.Region), Date: date}

	fields := []struct {
		name  string
		value string
		dst   **float64
	}{
		{ColTMin, raw.TMin, &r.TMin},
		{ColTMax, raw.TMax, &r.TMax},
		{ColTAvg, raw.TAvg, &r.TAvg},
		{ColPRCP, raw.PRCP, &r.PRCP},
		{ColAWND, raw.AWND, &r.AWND},
		{ColWDF5, raw.WDF5, &r.WDF5},
	}
	for _, f := range fields {
		v, err := parseOptionalFloat(f.value)
		if err != nil {
			return Reading{}, &ParseError{Line: raw.Line, Field: f.name, Value: f.value, Err: err}
		}
		*f.dst = v
	}
	return r, nil
}

// ParseDate parses a YYYYMMDD date in UTC. Integral float renderings such as
// "20240426.0", as written by spreadsheet tools, are accepted.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".0")
	if len(s) != len(DateLayout) {
		return time.Time{}, errors.New("date must be YYYYMMDD")
	}
	return time.Parse(DateLayout, s)
}

// parseOptionalFloat returns nil for a missing cell and an error for any other
// value that is not a finite number.
func parseOptionalFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if isMissing(s) {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	if math.IsInf(v, 0) {
		return nil, errNonFinite
	}
	if math.IsNaN(v) {
		return nil, nil
	}
	return &v, nil
}

func isMissing(s string) bool {
	if s == "" {
		return true
	}
	switch strings.ToLower(s) {
	case "na", "nan", "null":
		return true
	}
	return false
}

// ImputeTAVG fills a missing TAVG with the midpoint of TMIN and TMAX when
// both are present. It reports whether a value was imputed.
func ImputeTAVG(r *Reading) bool {
	if r.TAvg != nil || r.TMin == nil || r.TMax == nil {
		return false
	}
	v := (*r.TMin + *r.TMax) / 2
	r.TAvg = &v
	return true
}

// CleanReading imputes TAVG and returns the resulting Observation. A reading
// still lacking a region or a target value yields a *MissingDataError.
func CleanReading(r Reading) (Observation, bool, error) {
	imputed := ImputeTAVG(&r)

	if r.Region == "" {
		return Observation{}, imputed, &MissingDataError{Line: r.Line, Field: ColRegion}
	}

	targets := [NumVariables]*float64{r.TAvg, r.PRCP, r.AWND, r.WDF5}
	var values Values
	for i, p := range targets {
		if p == nil {
			return Observation{}, imputed, &MissingDataError{Line: r.Line, Field: string(Variables[i])}
		}
		values[i] = *p
	}

	return Observation{Region: r.Region, Date: r.Date, Values: values}, imputed, nil
}

// CleanStats counts what cleaning did to a batch of readings.
type CleanStats struct {
	Imputed int
	// Dropped counts dropped rows by the first missing field.
	Dropped map[string]int
}

// DroppedTotal is the number of rows removed during cleaning.
func (s CleanStats) DroppedTotal() int {
	n := 0
	for _, c := range s.Dropped {
		n += c
	}
	return n
}

// Clean imputes and filters readings. Output order follows input order.
func Clean(readings []Reading) ([]Observation, CleanStats) {
	stats := CleanStats{Dropped: map[string]int{}}
	out := make([]Observation, 0, len(readings))

	for _, r := range readings {
		obs, imputed, err := CleanReading(r)
		if imputed {
			stats.Imputed++
		}
		var missing *MissingDataError
		if errors.As(err, &missing) {
			stats.Dropped[missing.Field]++
			continue
		}
		out = append(out, obs)
	}
	return out, stats
}
