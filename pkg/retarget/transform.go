// Package retarget turns per-frame body landmarks into bone rotations on a rig.
//
// Landmarks arrive in normalized image space (x right, y down, z toward the
// camera) and are converted into a Z-up target space before the chain solver
// derives one rotation per mapped bone.
package retarget

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/teslashibe/go-mocap/pkg/landmark"
)

// ToTarget converts one landmark into target space.
//
//	X = (x - 0.5) * scale
//	Y = -z * scale
//	Z = -(y - 0.5) * scale + offset
func ToTarget(lm landmark.Landmark, scale, offset float64) r3.Vec {
	return r3.Vec{
		X: (lm.X - 0.5) * scale,
		Y: -lm.Z * scale,
		Z: -(lm.Y-0.5)*scale + offset,
	}
}

// Positions converts a whole frame, preserving order.
func Positions(lms []landmark.Landmark, scale, offset float64) []r3.Vec {
	out := make([]r3.Vec, len(lms))
	for i, lm := range lms {
		out[i] = ToTarget(lm, scale, offset)
	}
	return out
}
