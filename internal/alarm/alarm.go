// Package alarm implements the theft-alarm rule: the magnitude of the
// acceleration vector compared against a threshold while the bike is locked.
package alarm

import (
	"math"

	"github.com/atinyakov/BikeGuard/internal/models"
)

// Vector is a 3-axis acceleration sample in g.
type Vector struct {
	X, Y, Z float64
}

// VectorFrom builds a Vector from the device payload, treating missing
// components as zero.
func VectorFrom(t models.Telemetry) Vector {
	return Vector{X: deref(t.AccelX), Y: deref(t.AccelY), Z: deref(t.AccelZ)}
}

// Result is the outcome of one evaluation.
type Result struct {
	Magnitude float64
	Alarm     bool
}

// maxRounded is the magnitude from which float64 spacing exceeds 0.001, so
// rounding to 3 decimals can no longer change the value.
const maxRounded = 1 << 43

// Magnitude returns the Euclidean norm of v rounded to 3 decimal places.
// The result is always finite: a norm beyond the float64 range is reported
// as math.MaxFloat64.
func Magnitude(v Vector) float64 {
	m := math.Hypot(math.Hypot(v.X, v.Y), v.Z)
	switch {
	case math.IsInf(m, 0) || math.IsNaN(m):
		return math.MaxFloat64
	case m >= maxRounded:
		return m
	}
	return math.Round(m*1000) / 1000
}

// Evaluate computes the magnitude of v and raises the alarm only when mode is
// lock and the rounded magnitude is strictly above threshold.
func Evaluate(v Vector, mode models.Mode, threshold float64) Result {
	m := Magnitude(v)
	return Result{
		Magnitude: m,
		Alarm:     mode == models.ModeLock && m > threshold,
	}
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
