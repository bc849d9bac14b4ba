// Package jsonfile writes forecast points as a single JSON array artifact.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/weather-forecast-etl/internal/domain"
)

// Record is the serialized form of one forecast point. Variable values are
// fixed two-decimal numbers.
type Record struct {
	Date      int         `json:"date"`
	Year      int         `json:"year"`
	Month     int         `json:"month"`
	Day       int         `json:"day"`
	State     string      `json:"state"`
	TAVG      json.Number `json:"TAVG"`
	PRCP      json.Number `json:"PRCP"`
	AWND      json.Number `json:"AWND"`
	WDF5      json.Number `json:"WDF5"`
	Predicted bool        `json:"predicted"`
}

// ErrNonFinite is returned for a forecast value that has no JSON encoding.
var ErrNonFinite = errors.New("forecast value is not finite")

// NewRecord converts a forecast point to its serialized form.
func NewRecord(p domain.ForecastPoint) (Record, error) {
	var nums [domain.NumVariables]json.Number
	for i, v := range p.Values {
		s, ok := domain.FormatFixed(v)
		if !ok {
			return Record{}, fmt.Errorf("%s %s on %d: %w", p.Region, domain.Variables[i], domain.DateInt(p.Date), ErrNonFinite)
		}
		nums[i] = json.Number(s)
	}
	return Record{
		Date:      domain.DateInt(p.Date),
		Year:      p.Year,
		Month:     p.Month,
		Day:       p.Day,
		State:     p.Region,
		TAVG:      nums[0],
		PRCP:      nums[1],
		AWND:      nums[2],
		WDF5:      nums[3],
		Predicted: p.Predicted,
	}, nil
}

// Writer writes the forecast artifact. It implements pipeline.Loader.
type Writer struct {
	path   string
	indent bool
}

// NewWriter creates a Writer for path. indent pretty-prints the array.
func NewWriter(path string, indent bool) *Writer {
	return &Writer{path: path, indent: indent}
}

// Load encodes every point in order and replaces the artifact atomically. An
// empty slice is written as [].
func (w *Writer) Load(ctx context.Context, points []domain.ForecastPoint) error {
	records := make([]Record, 0, len(points))
	for _, p := range points {
		r, err := NewRecord(p)
		if err != nil {
			return err
		}
		records = append(records, r)
	}

	data, err := w.encode(records)
	if err != nil {
		return fmt.Errorf("encode forecast: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeFileAtomic(w.path, data)
}

func (w *Writer) encode(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if w.indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}

// ReadFile decodes an artifact written by Writer, keeping numbers in their
// written form.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.UseNumber()
	dec.DisallowUnknownFields()
	var records []Record
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return records, nil
}
