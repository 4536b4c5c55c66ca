// Package landmark defines the per-frame body landmark data the retargeter consumes.
package landmark

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Landmark is a single detected body point.
// X and Y are normalized to [0,1] image space, Z is relative depth and
// Visibility is the detector's confidence in [0,1].
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Point is a landmark after conversion into target space.
type Point struct {
	Pos        r3.Vec
	Visibility float64
}

// NamedSet maps landmark names to target-space points for one frame.
// Every present position is finite.
type NamedSet map[string]Point

// Get returns the named point.
func (s NamedSet) Get(name string) (Point, bool) {
	p, ok := s[name]
	return p, ok
}

// Has reports whether name is present.
func (s NamedSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}
