package retarget

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/teslashibe/go-mocap/pkg/geom"
)

// minChainLength is the shortest start-to-end distance that still defines a direction.
const minChainLength = 0.001

// SolveChain orients a bone along start->end with world Z as the up hint.
func SolveChain(start, end r3.Vec) quat.Number {
	return SolveChainUp(start, end, geom.ZAxis)
}

// SolveChainUp returns the rotation that points the bone's local +Y axis from
// start toward end, rolling local +Z as close to up as possible.
// Degenerate chains shorter than a millimetre yield the identity.
func SolveChainUp(start, end, up r3.Vec) quat.Number {
	dir := r3.Sub(end, start)
	length := r3.Norm(dir)
	if length < minChainLength || math.IsNaN(length) {
		return geom.Identity()
	}
	forward := r3.Scale(1/length, dir)

	if n := r3.Norm(up); n > 0 && !math.IsNaN(n) {
		up = r3.Scale(1/n, up)
	} else {
		up = geom.ZAxis
	}

	right := r3.Cross(forward, up)
	if r3.Norm(right) < minChainLength {
		// forward is parallel to up; roll around a horizontal axis instead
		alt := geom.XAxis
		if math.Abs(up.X) >= 0.9 {
			alt = geom.YAxis
		}
		right = r3.Cross(forward, alt)
	}
	right = r3.Unit(right)
	up = r3.Unit(r3.Cross(right, forward))

	return geom.FromBasis(right, forward, up)
}
