// Package orbit reconciles independently-sourced position series into a pair
// of heliocentric orbits suitable for joint plotting. Both inputs arrive in
// their providers' raw sign conventions; the assembler applies the shared
// negation so the Sun sits at the origin for both.
package orbit

import (
	"errors"
	"fmt"
)

// ErrSeriesLengthMismatch is returned when two series intended for joint
// plotting differ in sample count. The assembler never truncates or pads.
var ErrSeriesLengthMismatch = errors.New("position series length mismatch")

// Vector is a 3-component Cartesian position in astronomical units.
type Vector struct {
	X, Y, Z float64
}

// Neg returns the component-wise negation.
func (v Vector) Neg() Vector {
	return Vector{X: -v.X, Y: -v.Y, Z: -v.Z}
}

// PositionSeries is an ordered sequence of position vectors, indexed 1:1
// against the time axis it was sampled on.
type PositionSeries struct {
	X, Y, Z []float64
}

// NewSeries builds a PositionSeries from three component slices.
// All three must have equal length.
func NewSeries(x, y, z []float64) (PositionSeries, error) {
	if len(x) != len(y) || len(y) != len(z) {
		return PositionSeries{}, fmt.Errorf("%w: components %d/%d/%d", ErrSeriesLengthMismatch, len(x), len(y), len(z))
	}
	return PositionSeries{X: x, Y: y, Z: z}, nil
}

// Len returns the sample count.
func (s PositionSeries) Len() int {
	return len(s.X)
}

// At returns the vector at index n.
func (s PositionSeries) At(n int) Vector {
	return Vector{X: s.X[n], Y: s.Y[n], Z: s.Z[n]}
}

// Negated returns a new series with every component sign-flipped.
func (s PositionSeries) Negated() PositionSeries {
	out := PositionSeries{
		X: make([]float64, len(s.X)),
		Y: make([]float64, len(s.Y)),
		Z: make([]float64, len(s.Z)),
	}
	for n := range s.X {
		out.X[n] = -s.X[n]
		out.Y[n] = -s.Y[n]
		out.Z[n] = -s.Z[n]
	}
	return out
}

// Assembly holds the five geometric artifacts of an orbit view: two
// heliocentric series, their first-sample reference points, and the fixed
// Sun marker at the origin.
type Assembly struct {
	Earth    PositionSeries
	Body     PositionSeries
	EarthRef Vector
	BodyRef  Vector
	Sun      Vector // always (0,0,0)
}

// Assemble aligns Earth's observer-relative series with the remote body's
// Sun-relative raw series. Both are negated: the Earth series flips from
// "Earth toward Sun" to heliocentric Earth position, and the remote vectors
// take the identical flip so the two orbits share one convention.
//
// The series must have equal length; any mismatch fails rather than deriving
// the axis from whichever provider returned fewer samples.
func Assemble(earthRaw, bodyRaw PositionSeries) (Assembly, error) {
	if earthRaw.Len() == 0 || bodyRaw.Len() == 0 {
		return Assembly{}, fmt.Errorf("%w: empty series (earth=%d, body=%d)", ErrSeriesLengthMismatch, earthRaw.Len(), bodyRaw.Len())
	}
	if earthRaw.Len() != bodyRaw.Len() {
		return Assembly{}, fmt.Errorf("%w: earth has %d samples, body has %d", ErrSeriesLengthMismatch, earthRaw.Len(), bodyRaw.Len())
	}

	earth := earthRaw.Negated()
	body := bodyRaw.Negated()

	return Assembly{
		Earth:    earth,
		Body:     body,
		EarthRef: earth.At(0),
		BodyRef:  body.At(0),
		Sun:      Vector{},
	}, nil
}
