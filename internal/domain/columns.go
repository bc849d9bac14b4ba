package domain

import "strings"

// Column names expected in the input header.
const (
	ColDate   = "date"
	ColRegion = "state"
	ColTMin   = "TMIN"
	ColTMax   = "TMAX"
	ColTAvg   = "TAVG"
	ColPRCP   = "PRCP"
	ColAWND   = "AWND"
	ColWDF5   = "WDF5"
)

// requiredColumns must all appear in the header. TAVG may be absent entirely,
// in which case every row is imputed.
var requiredColumns = []string{ColDate, ColRegion, ColTMin, ColTMax, ColPRCP, ColAWND, ColWDF5}

// Columns maps column names to their position in a header row.
type Columns map[string]int

// MapHeader indexes a header row. Names match case-sensitively after trimming
// whitespace and a UTF-8 byte order mark.
func MapHeader(header []string) (Columns, error) {
	cols := make(Columns, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, &ParseError{Line: 1, Field: "header", Value: name, Err: ErrMissingColumn}
		}
	}
	return cols, nil
}

// Record extracts a RawRecord from a data row. Short rows yield empty cells.
func (c Columns) Record(line int, row []string) RawRecord {
	return RawRecord{
		Line:   line,
		Date:   c.get(row, ColDate),
		Region: c.get(row, ColRegion),
		TMin:   c.get(row, ColTMin),
		TMax:   c.get(row, ColTMax),
		TAvg:   c.get(row, ColTAvg),
		PRCP:   c.get(row, ColPRCP),
		AWND:   c.get(row, ColAWND),
		WDF5:   c.get(row, ColWDF5),
	}
}

func (c Columns) get(row []string, col string) string {
	i, ok := c[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
