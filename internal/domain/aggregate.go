package domain

import (
	"sort"
	"time"
)

type regionDateKey struct {
	region string
	date   time.Time
}

// Aggregate averages observations per (region, date) and returns one
// RegionDay per group, sorted by region then date.
func Aggregate(obs []Observation) []RegionDay {
	sums := make(map[regionDateKey]*RegionDay)
	for _, o := range obs {
		k := regionDateKey{region: o.Region, date: o.Date}
		day, ok := sums[k]
		if !ok {
			day = &RegionDay{Region: o.Region, Date: o.Date}
			sums[k] = day
		}
		for i := range day.Values {
			day.Values[i] += o.Values[i]
		}
		day.Stations++
	}

	days := make([]RegionDay, 0, len(sums))
	for _, day := range sums {
		n := float64(day.Stations)
		for i := range day.Values {
			day.Values[i] /= n
		}
		day.Year, day.Month, day.Day = calendarFields(day.Date)
		days = append(days, *day)
	}

	sort.Slice(days, func(i, j int) bool {
		if days[i].Region != days[j].Region {
			return days[i].Region < days[j].Region
		}
		return days[i].Date.Before(days[j].Date)
	})
	return days
}

// SplitByRegion partitions sorted days into per-region series, in the order
// regions are first encountered.
func SplitByRegion(days []RegionDay) []RegionSeries {
	var out []RegionSeries
	index := make(map[string]int)
	for _, d := range days {
		i, ok := index[d.Region]
		if !ok {
			i = len(out)
			index[d.Region] = i
			out = append(out, RegionSeries{Region: d.Region})
		}
		out[i].Days = append(out[i].Days, d)
	}
	return out
}

func calendarFields(t time.Time) (year, month, day int) {
	y, m, d := t.Date()
	return y, int(m), d
}
