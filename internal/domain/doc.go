// Package domain models daily station weather observations and the per-region
// series derived from them.
//
// # Data Source
//
// Input rows follow the NOAA GHCN-Daily column naming used by the Climate Data
// Online CSV export, one row per station per day, with an added region column
// ("state") naming the aggregation unit the station belongs to.
//
// # Column Conventions
//
// Required columns (looked up by header name, extra columns are ignored):
//
//	date   calendar day as YYYYMMDD, e.g. "20240426"
//	state  region identifier, e.g. "TX"
//	TMIN   daily minimum temperature
//	TMAX   daily maximum temperature
//	TAVG   daily average temperature (may be absent)
//	PRCP   precipitation
//	AWND   average wind speed
//	WDF5   direction of the fastest 5-second wind, in degrees
//
// Units are carried through unchanged; the pipeline never converts them.
//
// Missing values:
//
//	An empty cell, or one of "NA", "NaN", "null" (any case), is missing.
//	Any other cell in a numeric column must parse as a finite number,
//	otherwise the whole run fails with a [ParseError].
//
// # Cleaning
//
// A missing TAVG is imputed as (TMIN+TMAX)/2 when both bounds are present.
// Rows still missing any of TAVG, PRCP, AWND or WDF5 afterwards are dropped.
// Rows with no region are dropped as well.
//
// # Region Series
//
// Clean observations are averaged per (region, date) into [RegionDay] values
// sorted by region then date. Lag features are positional: lag 1 is the
// previous row of the region's series, not necessarily the previous calendar
// day. The first [LagDepth] rows of each region have no complete lags and are
// discarded.
package domain
