// Command validate checks a forecast artifact against the input it was
// produced from: every modelable region has a complete horizon starting the
// day after its last observation, no other region appears, values carry two
// decimal places, and records are ordered by region then date.
//
// Usage:
//
//	go run ./cmd/validate --input data/weather.csv --forecast forecast_predictions.json
package main

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/alecthomas/kong"
	csvadapter "github.com/couchcryptid/weather-forecast-etl/internal/adapter/csv"
	"github.com/couchcryptid/weather-forecast-etl/internal/adapter/jsonfile"
	"github.com/couchcryptid/weather-forecast-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/weather-forecast-etl/internal/config"
	"github.com/couchcryptid/weather-forecast-etl/internal/domain"
)

type cli struct {
	Input    string `required:"" type:"existingfile" help:"Observation input the forecast was built from."`
	Format   string `default:"auto" enum:"auto,csv,xlsx" help:"Input format."`
	Sheet    string `help:"Workbook sheet for xlsx input."`
	Forecast string `required:"" type:"existingfile" help:"Forecast artifact to check."`
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	var c cli
	kong.Parse(&c,
		kong.Name("validate"),
		kong.Description("Check a forecast artifact against its input."),
	)
	if code := run(c); code != 0 {
		os.Exit(code)
	}
}

func run(c cli) int {
	fmt.Println("=== Forecast Artifact Validation ===")
	fmt.Println()

	expected, err := loadExpectations(c)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load input: %v\n", err)
		return 1
	}

	records, err := jsonfile.ReadFile(c.Forecast)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load forecast: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateRecords(records),
		validateOrdering(records),
		validateCompleteness(records, expected),
		validateExclusion(records, expected),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Regions: %d in input, %d modelable; %d forecast records\n",
		len(expected), countModelable(expected), len(records))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// regionExpectation is what the input implies for one region's forecast.
type regionExpectation struct {
	laggedRows   int
	lastObserved time.Time
}

func (e regionExpectation) modelable() bool { return e.laggedRows >= domain.MinLaggedRows }

func countModelable(expected map[string]regionExpectation) int {
	n := 0
	for _, e := range expected {
		if e.modelable() {
			n++
		}
	}
	return n
}

// loadExpectations runs the input through cleaning and aggregation to find
// each region's lagged-row count and last observed date.
func loadExpectations(c cli) (map[string]regionExpectation, error) {
	cfg := &config.Config{InputPath: c.Input, InputFormat: c.Format}
	var raw []domain.RawRecord
	var err error
	if cfg.ResolvedInputFormat() == config.FormatXLSX {
		raw, err = xlsx.NewReader(c.Input, c.Sheet).Extract(context.Background())
	} else {
		raw, err = csvadapter.NewReader(c.Input).Extract(context.Background())
	}
	if err != nil {
		return nil, err
	}

	readings := make([]domain.Reading, 0, len(raw))
	for _, r := range raw {
		reading, err := domain.ParseRecord(r)
		if err != nil {
			return nil, err
		}
		readings = append(readings, reading)
	}
	obs, _ := domain.Clean(readings)
	return expectationsFrom(domain.SplitByRegion(domain.Aggregate(obs))), nil
}

func expectationsFrom(series []domain.RegionSeries) map[string]regionExpectation {
	out := make(map[string]regionExpectation, len(series))
	for _, s := range series {
		out[s.Region] = regionExpectation{
			laggedRows:   len(domain.BuildLaggedRows(s.Days)),
			lastObserved: s.Days[len(s.Days)-1].Date,
		}
	}
	return out
}

var twoPlaces = regexp.MustCompile(`^-?\d+\.\d{2}$`)

func validateRecords(records []jsonfile.Record) *phase {
	p := &phase{name: "Record fields and rounding"}
	for i, r := range records {
		if !r.Predicted {
			p.errorf("record %d (%s %d): predicted is false", i, r.State, r.Date)
		}
		if r.State == "" {
			p.errorf("record %d: empty state", i)
		}
		date, err := domain.ParseDate(fmt.Sprint(r.Date))
		if err != nil {
			p.errorf("record %d: bad date %d", i, r.Date)
		} else if date.Year() != r.Year || int(date.Month()) != r.Month || date.Day() != r.Day {
			p.errorf("record %d: date %d disagrees with year/month/day %d-%d-%d", i, r.Date, r.Year, r.Month, r.Day)
		}
		values := map[domain.Variable]string{
			domain.TAVG: r.TAVG.String(),
			domain.PRCP: r.PRCP.String(),
			domain.AWND: r.AWND.String(),
			domain.WDF5: r.WDF5.String(),
		}
		for _, v := range domain.Variables {
			if !twoPlaces.MatchString(values[v]) {
				p.errorf("record %d (%s %d): %s=%q is not a two-decimal number", i, r.State, r.Date, v, values[v])
			}
		}
	}
	return p
}

func validateOrdering(records []jsonfile.Record) *phase {
	p := &phase{name: "Region and date ordering"}
	seen := map[string]bool{}
	for i := 1; i < len(records); i++ {
		prev, cur := records[i-1], records[i]
		if cur.State != prev.State {
			seen[prev.State] = true
			if seen[cur.State] {
				p.errorf("record %d: region %s is not contiguous", i, cur.State)
			} else if cur.State < prev.State {
				p.errorf("record %d: region %s follows %s", i, cur.State, prev.State)
			}
			continue
		}
		if cur.Date <= prev.Date {
			p.errorf("record %d (%s): date %d does not follow %d", i, cur.State, cur.Date, prev.Date)
		}
	}
	return p
}

func validateCompleteness(records []jsonfile.Record, expected map[string]regionExpectation) *phase {
	p := &phase{name: "Completeness of modelable regions"}
	byRegion := map[string][]jsonfile.Record{}
	for _, r := range records {
		byRegion[r.State] = append(byRegion[r.State], r)
	}
	for region, e := range expected {
		if !e.modelable() {
			continue
		}
		got := byRegion[region]
		if len(got) != domain.Horizon {
			p.errorf("%s: %d records, want %d", region, len(got), domain.Horizon)
			continue
		}
		for i, r := range got {
			want := domain.DateInt(e.lastObserved.AddDate(0, 0, i+1))
			if r.Date != want {
				p.errorf("%s step %d: date %d, want %d", region, i, r.Date, want)
				break
			}
		}
	}
	return p
}

func validateExclusion(records []jsonfile.Record, expected map[string]regionExpectation) *phase {
	p := &phase{name: "Exclusion of sparse and unknown regions"}
	reported := map[string]bool{}
	for _, r := range records {
		if reported[r.State] {
			continue
		}
		e, ok := expected[r.State]
		switch {
		case !ok:
			p.errorf("%s: not present in input", r.State)
			reported[r.State] = true
		case !e.modelable():
			p.errorf("%s: forecast present with only %d lagged rows", r.State, e.laggedRows)
			reported[r.State] = true
		}
	}
	return p
}
