package domain

// BuildLaggedRows attaches the values of the previous one and two rows to each
// day of a single region's date-ordered series. The first LagDepth days have
// incomplete lags and are omitted, so a series of n days yields n-2 rows.
func BuildLaggedRows(days []RegionDay) []LaggedRow {
	if len(days) <= LagDepth {
		return nil
	}
	rows := make([]LaggedRow, 0, len(days)-LagDepth)
	for i := LagDepth; i < len(days); i++ {
		rows = append(rows, LaggedRow{
			RegionDay: days[i],
			Lag1:      days[i-1].Values,
			Lag2:      days[i-2].Values,
		})
	}
	return rows
}
