// Package trend classifies the directional movement of a metric across a
// day. Two strategies are provided: least-squares regression with
// fit-quality gating (used for precipitation probability) and a clock-band
// heuristic keyed on the hour of the daily peak (used for temperature,
// where regression proved unreliable).
package trend

import (
	"errors"
	"math"
)

// Fit is the result of an ordinary least-squares fit of y = Slope*x +
// Intercept, with the standard error of each coefficient.
type Fit struct {
	Slope        float64
	Intercept    float64
	SlopeErr     float64
	InterceptErr float64
	N            int
}

// At evaluates the fitted line at x.
func (f Fit) At(x float64) float64 {
	return f.Slope*x + f.Intercept
}

// Direction is a classified trend across a day.
type Direction int

const (
	// None means the fit quality gates failed or the change fell in the
	// unclassified band; the caller must omit any trend claim.
	None Direction = iota
	Increasing
	Decreasing
	Steady
)

func (d Direction) String() string {
	switch d {
	case Increasing:
		return "increasing"
	case Decreasing:
		return "decreasing"
	case Steady:
		return "steady"
	}
	return "none"
}

// Gates holds the fit-quality and movement thresholds for trend
// classification. A zero-value Gates means the defaults; a partially-set
// Gates is taken literally.
type Gates struct {
	MaxSlopeErr     float64 // fit rejected when slope error >= this
	MaxInterceptErr float64 // fit rejected when intercept error >= this
	MoveThreshold   float64 // |change| above this is a directional trend
	SteadyThreshold float64 // |change| below this is steady
}

// DefaultGates returns the reference thresholds. The band between
// SteadyThreshold and MoveThreshold is deliberately unclassified.
func DefaultGates() Gates {
	return Gates{
		MaxSlopeErr:     0.005,
		MaxInterceptErr: 0.05,
		MoveThreshold:   0.4,
		SteadyThreshold: 0.3,
	}
}

// withDefaults substitutes the reference thresholds for a zero-value Gates.
// Any other Gates is used exactly as given, so an explicit zero threshold
// (e.g. steady disabled) is honored.
func (g Gates) withDefaults() Gates {
	if g == (Gates{}) {
		return DefaultGates()
	}
	return g
}

// ErrTooFewPoints is returned when fewer than two (x, y) pairs are given.
var ErrTooFewPoints = errors.New("trend: need at least two points to fit")

// FitLine computes an ordinary least-squares line through the (x, y) pairs.
// Callers pre-filter negligible points (e.g. rain probability <= 0.05) so
// flat near-zero stretches do not dominate the fit.
func FitLine(xs, ys []float64) (Fit, error) {
	n := len(xs)
	if n != len(ys) {
		return Fit{}, errors.New("trend: mismatched series lengths")
	}
	if n < 2 {
		return Fit{}, ErrTooFewPoints
	}

	var sumX, sumY, sumXX, sumXY float64
	for i := 0; i < n; i++ {
		sumX += xs[i]
		sumY += ys[i]
		sumXX += xs[i] * xs[i]
		sumXY += xs[i] * ys[i]
	}

	fn := float64(n)
	det := fn*sumXX - sumX*sumX
	if det == 0 {
		return Fit{}, errors.New("trend: degenerate x values")
	}

	slope := (fn*sumXY - sumX*sumY) / det
	intercept := (sumY - slope*sumX) / fn

	// Residual variance; with only two points the line is exact.
	var ss float64
	for i := 0; i < n; i++ {
		r := ys[i] - (slope*xs[i] + intercept)
		ss += r * r
	}
	var variance float64
	if n > 2 {
		variance = ss / float64(n-2)
	}

	return Fit{
		Slope:        slope,
		Intercept:    intercept,
		SlopeErr:     math.Sqrt(variance * fn / det),
		InterceptErr: math.Sqrt(variance * sumXX / det),
		N:            n,
	}, nil
}

// Classify applies the gates to a fit evaluated at the first and last x of
// the filtered domain. When either error gate fails, or the change lands in
// the unclassified band, None is returned and the caller should fall back
// to a non-trend narrative.
func Classify(f Fit, xMin, xMax float64, gates Gates) Direction {
	g := gates.withDefaults()
	if f.SlopeErr >= g.MaxSlopeErr || f.InterceptErr >= g.MaxInterceptErr {
		return None
	}

	lo, hi := f.At(xMin), f.At(xMax)
	diff := hi - lo
	switch {
	case diff > g.MoveThreshold:
		return Increasing
	case -diff > g.MoveThreshold:
		return Decreasing
	case math.Abs(diff) < g.SteadyThreshold:
		return Steady
	}
	return None
}

// DayShape classifies a day's temperature trajectory from the local clock
// hour at which the maximum occurs.
type DayShape int

const (
	// MiddayPeak: the high lands in the usual early-afternoon window.
	MiddayPeak DayShape = iota
	// EveningPeak: still climbing late; the high lands after 17:00.
	EveningPeak
	// MorningPeak: the high came early and temperatures head down.
	MorningPeak
)

// ClassifyPeakHour maps the local hour of the daily maximum to a DayShape.
func ClassifyPeakHour(hour int) DayShape {
	switch {
	case hour > 17:
		return EveningPeak
	case hour < 12:
		return MorningPeak
	}
	return MiddayPeak
}
