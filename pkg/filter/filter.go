// Package filter provides the per-bone signal conditioning stages applied to
// retargeted landmarks: a confidence gate, an exponential smoother and a foot lock.
//
// Gate and Smoother are generic over the filtered value so the same stages
// serve positions (r3.Vec), rotations (quat.Number) and scalars.
package filter

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/teslashibe/go-mocap/pkg/geom"
)

// Gate passes values whose confidence reaches a threshold and otherwise
// repeats the last value it passed.
type Gate[T any] struct {
	threshold float64
	last      T
	has       bool
}

// NewGate creates a gate with the given minimum confidence.
func NewGate[T any](threshold float64) *Gate[T] {
	return &Gate[T]{threshold: threshold}
}

// Filter returns v when confidence >= threshold, otherwise the last accepted
// value. The bool is false when nothing has been accepted yet.
func (g *Gate[T]) Filter(v T, confidence float64) (T, bool) {
	if confidence >= g.threshold {
		g.last = v
		g.has = true
		return v, true
	}
	return g.last, g.has
}

// Reset forgets the last accepted value.
func (g *Gate[T]) Reset() {
	var zero T
	g.last = zero
	g.has = false
}

// Interpolator blends from a toward b by t in [0,1].
type Interpolator[T any] func(a, b T, t float64) T

// Smoother is an exponentially weighted moving average.
// Alpha is the smoothing strength: 0 follows the input, 1 never moves.
type Smoother[T any] struct {
	alpha  float64
	interp Interpolator[T]
	prev   T
	has    bool
}

// NewSmoother creates a smoother that blends with interp.
func NewSmoother[T any](alpha float64, interp Interpolator[T]) *Smoother[T] {
	return &Smoother[T]{alpha: clamp01(alpha), interp: interp}
}

// NewVectorSmoother smooths positions by linear interpolation.
func NewVectorSmoother(alpha float64) *Smoother[r3.Vec] {
	return NewSmoother[r3.Vec](alpha, geom.Lerp)
}

// NewRotationSmoother smooths rotations by spherical interpolation.
func NewRotationSmoother(alpha float64) *Smoother[quat.Number] {
	return NewSmoother[quat.Number](alpha, geom.Slerp)
}

// NewScalarSmoother smooths plain values by linear interpolation.
func NewScalarSmoother(alpha float64) *Smoother[float64] {
	return NewSmoother[float64](alpha, geom.LerpScalar)
}

// Filter returns the first sample unchanged and afterwards
// interp(previous, v, 1-alpha), which becomes the new previous value.
func (s *Smoother[T]) Filter(v T) T {
	if !s.has {
		s.prev = v
		s.has = true
		return v
	}
	s.prev = s.interp(s.prev, v, 1-s.alpha)
	return s.prev
}

// Alpha returns the smoothing strength.
func (s *Smoother[T]) Alpha() float64 {
	return s.alpha
}

// Reset discards the smoother history.
func (s *Smoother[T]) Reset() {
	var zero T
	s.prev = zero
	s.has = false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
