// Package forecast rolls a fitted region model forward over the horizon.
package forecast

import "github.com/couchcryptid/weather-forecast-etl/internal/domain"

// Window holds the two most recent known or predicted rows of a region.
type Window struct {
	older domain.Values
	newer domain.Values
}

// NewWindow seeds a window with the second most recent and most recent rows.
func NewWindow(older, newer domain.Values) *Window {
	return &Window{older: older, newer: newer}
}

// Lags returns lag 1 (most recent) and lag 2 (second most recent).
func (w *Window) Lags() (lag1, lag2 domain.Values) {
	return w.newer, w.older
}

// Slide drops the oldest row and appends next as the most recent.
func (w *Window) Slide(next domain.Values) {
	w.older, w.newer = w.newer, next
}
