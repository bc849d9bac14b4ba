package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// ExportOptions selects where a finished run's metrics go. Empty fields are skipped.
type ExportOptions struct {
	// Textfile is written in the node_exporter textfile collector format.
	Textfile       string
	PushgatewayURL string
	PushgatewayJob string
	// PushRetries is the number of extra push attempts after a failure.
	PushRetries uint64
}

// Export writes the gathered metrics to every configured destination. All
// destinations are attempted; their errors are joined.
func (m *Metrics) Export(ctx context.Context, opts ExportOptions) error {
	var errs []error

	if opts.Textfile != "" {
		if err := prometheus.WriteToTextfile(opts.Textfile, m.gatherer); err != nil {
			errs = append(errs, fmt.Errorf("write metrics textfile: %w", err))
		}
	}

	if opts.PushgatewayURL != "" {
		pusher := push.New(opts.PushgatewayURL, opts.PushgatewayJob).Gatherer(m.gatherer)
		op := func() error { return pusher.PushContext(ctx) }
		if err := backoff.Retry(op, pushBackoff(ctx, opts.PushRetries)); err != nil {
			errs = append(errs, fmt.Errorf("push metrics: %w", err))
		}
	}

	return errors.Join(errs...)
}

// pushBackoff starts at 200ms, doubles each retry, and caps at 5s.
func pushBackoff(ctx context.Context, retries uint64) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.Multiplier = 2
	b.MaxInterval = 5 * time.Second
	return backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx)
}
