// Command genmock writes a synthetic daily station CSV in the GHCN-Daily
// column layout the forecast pipeline reads. Output is fully determined by
// the flags, so fixtures can be regenerated byte for byte.
//
// Usage:
//
//	go run ./cmd/genmock --regions CA,NY,TX --stations 3 --days 90 \
//	  --sparse AK --missing-rate 0.02 --out data/weather.csv
package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"strconv"
	"time"

	"github.com/alecthomas/kong"
	"github.com/couchcryptid/weather-forecast-etl/internal/domain"
)

type cli struct {
	Regions     []string `default:"CA,NY,TX" help:"Regions with a full series."`
	Sparse      []string `help:"Regions given fewer days than the model needs."`
	Stations    int      `default:"2" help:"Stations per region."`
	Days        int      `default:"60" help:"Days per full region."`
	Start       string   `default:"20240101" help:"First date, YYYYMMDD."`
	Seed        uint64   `default:"1" help:"Random seed."`
	MissingRate float64  `default:"0" name:"missing-rate" help:"Probability that a TAVG or PRCP cell is left empty."`
	Out         string   `default:"-" help:"Output path, - for stdout."`
}

var header = []string{"STATION", "NAME", domain.ColDate, domain.ColRegion,
	domain.ColTMin, domain.ColTMax, domain.ColTAvg, domain.ColPRCP, domain.ColAWND, domain.ColWDF5}

// sparseDays keeps sparse regions below the minimum lagged-row count.
const sparseDays = domain.MinLaggedRows - 1

func main() {
	var c cli
	kctx := kong.Parse(&c,
		kong.Name("genmock"),
		kong.Description("Generate a synthetic daily weather station CSV."),
	)
	kctx.FatalIfErrorf(run(c))
}

func run(c cli) error {
	start, err := domain.ParseDate(c.Start)
	if err != nil {
		return fmt.Errorf("--start: %w", err)
	}
	if c.Stations < 1 || c.Days < 1 {
		return fmt.Errorf("--stations and --days must be positive")
	}
	if c.MissingRate < 0 || c.MissingRate > 1 {
		return fmt.Errorf("--missing-rate must be in [0, 1]")
	}

	var w io.Writer = os.Stdout
	if c.Out != "-" {
		f, err := os.Create(c.Out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	g := &generator{
		rng:         rand.New(rand.NewPCG(c.Seed, c.Seed^0x9e3779b97f4a7c15)),
		start:       start,
		stations:    c.Stations,
		missingRate: c.MissingRate,
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	rows := 0
	for i, region := range c.Regions {
		n, err := g.region(cw, region, i, c.Days)
		if err != nil {
			return err
		}
		rows += n
	}
	for i, region := range c.Sparse {
		n, err := g.region(cw, region, len(c.Regions)+i, sparseDays)
		if err != nil {
			return err
		}
		rows += n
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	slog.Info("wrote mock data", "out", c.Out, "rows", rows,
		"regions", len(c.Regions), "sparse", len(c.Sparse), "days", c.Days)
	return nil
}

type generator struct {
	rng         *rand.Rand
	start       time.Time
	stations    int
	missingRate float64
}

// region writes every station row for one region and returns the row count.
func (g *generator) region(cw *csv.Writer, region string, idx, days int) (int, error) {
	base := 8 + 4*float64(idx%5)
	rows := 0
	for d := range days {
		date := g.start.AddDate(0, 0, d)
		season := 10 * math.Sin(2*math.Pi*float64(date.YearDay()-105)/365)
		for s := range g.stations {
			tavg := base + season + g.rng.NormFloat64()*1.5 - float64(s)
			spread := 4 + g.rng.Float64()*3

			prcp := 0.0
			if g.rng.Float64() < 0.3 {
				prcp = g.rng.ExpFloat64() * 4
			}
			awnd := 2 + g.rng.Float64()*5
			wdf5 := float64(10 * g.rng.IntN(36))

			tavgCell := fixed(tavg, 1)
			prcpCell := fixed(prcp, 1)
			if g.rng.Float64() < g.missingRate {
				tavgCell = ""
			}
			if g.rng.Float64() < g.missingRate {
				prcpCell = ""
			}

			row := []string{
				fmt.Sprintf("MOCK%s%03d", region, s+1),
				fmt.Sprintf("%s STATION %d", region, s+1),
				date.Format(domain.DateLayout),
				region,
				fixed(tavg-spread, 1),
				fixed(tavg+spread, 1),
				tavgCell,
				prcpCell,
				fixed(awnd, 2),
				fixed(wdf5, 0),
			}
			if err := cw.Write(row); err != nil {
				return rows, err
			}
			rows++
		}
	}
	return rows, nil
}

func fixed(v float64, places int) string {
	return strconv.FormatFloat(v, 'f', places, 64)
}
