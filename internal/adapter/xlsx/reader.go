// Package xlsx reads daily station observations from an Excel workbook.
package xlsx

import (
	"context"
	"fmt"

	"github.com/couchcryptid/weather-forecast-etl/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Reader extracts raw records from one sheet of a workbook. The first row of
// the sheet is the header. It implements pipeline.Extractor.
type Reader struct {
	path  string
	sheet string
}

// NewReader creates a Reader for the workbook at path. An empty sheet selects
// the first sheet.
func NewReader(path, sheet string) *Reader {
	return &Reader{path: path, sheet: sheet}
}

// Extract reads every data row of the sheet. Cell values are read unformatted
// so numeric dates are not rendered through the cell's number format.
func (r *Reader) Extract(ctx context.Context) ([]domain.RawRecord, error) {
	f, err := excelize.OpenFile(r.path, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := r.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, &domain.ParseError{Line: 1, Field: "header", Value: sheet, Err: domain.ErrMissingColumn}
	}
	cols, err := domain.MapHeader(rows[0])
	if err != nil {
		return nil, err
	}

	records := make([]domain.RawRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		records = append(records, cols.Record(i+2, row))
	}
	return records, nil
}
