package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for a forecast run.
type Metrics struct {
	ObservationsRead    prometheus.Counter
	ObservationsDropped *prometheus.CounterVec // labels: reason={TAVG,PRCP,AWND,WDF5,state}
	ObservationsImputed prometheus.Counter

	RegionsTotal   prometheus.Counter
	RegionsSkipped prometheus.Counter
	ForecastPoints prometheus.Counter

	StageDuration *prometheus.HistogramVec // labels: stage={extract,clean,aggregate,model,load}
	LastSuccess   prometheus.Gauge

	gatherer prometheus.Gatherer
}

const namespace = "weather_forecast"

func newMetrics() *Metrics {
	return &Metrics{
		ObservationsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_read_total",
			Help:      "Total station rows read from the input.",
		}),
		ObservationsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_dropped_total",
			Help:      "Rows dropped during cleaning, by first missing field.",
		}, []string{"reason"}),
		ObservationsImputed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_imputed_total",
			Help:      "Rows whose TAVG was imputed from TMIN and TMAX.",
		}),
		RegionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "regions_total",
			Help:      "Regions present after aggregation.",
		}),
		RegionsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "regions_skipped_total",
			Help:      "Regions skipped for insufficient data.",
		}),
		ForecastPoints: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_points_total",
			Help:      "Forecast points written to the output.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		}, []string{"stage"}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that wrote its output.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ObservationsRead,
		m.ObservationsDropped,
		m.ObservationsImputed,
		m.RegionsTotal,
		m.RegionsSkipped,
		m.ForecastPoints,
		m.StageDuration,
		m.LastSuccess,
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	m.gatherer = prometheus.DefaultGatherer
	return m
}

// NewMetricsForTesting creates Metrics on a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	reg := prometheus.NewRegistry()
	reg.MustRegister(m.collectors()...)
	m.gatherer = reg
	return m
}

// Gatherer returns the registry the metrics were registered with.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.gatherer
}
