// Package csv reads daily station observations from a comma-separated file.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/weather-forecast-etl/internal/domain"
)

// Reader extracts raw records from a CSV file with a header row.
// It implements pipeline.Extractor.
type Reader struct {
	path string
}

// NewReader creates a Reader for the file at path.
func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// Extract reads every data row of the file. Columns are located by header
// name; extra columns are ignored.
func (r *Reader) Extract(ctx context.Context) ([]domain.RawRecord, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	return Decode(ctx, f)
}

// Decode reads CSV records from src. Record lines are file line numbers,
// with the header on line 1.
func Decode(ctx context.Context, src io.Reader) ([]domain.RawRecord, error) {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &domain.ParseError{Line: 1, Field: "header", Err: io.ErrUnexpectedEOF}
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := domain.MapHeader(header)
	if err != nil {
		return nil, err
	}

	var records []domain.RawRecord
	for n := 0; ; n++ {
		if n%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				return nil, &domain.ParseError{Line: csvErr.Line, Field: "row", Err: csvErr.Err}
			}
			return nil, fmt.Errorf("read input: %w", err)
		}
		if isBlank(row) {
			continue
		}
		line, _ := cr.FieldPos(0)
		records = append(records, cols.Record(line, row))
	}
	return records, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
