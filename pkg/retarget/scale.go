package retarget

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/teslashibe/go-mocap/pkg/landmark"
)

// StandardReferenceWidth is the shoulder width, in target units, every
// performer is normalized to.
const StandardReferenceWidth = 0.4

// minReferenceDistance guards against dividing by a collapsed reference pair.
const minReferenceDistance = 0.001

// ScaleFactor returns the multiplier that brings the distance between
// positions[a] and positions[b] to StandardReferenceWidth. It returns 1 when
// either index is out of range, the points nearly coincide or the distance is
// not finite.
func ScaleFactor(positions []r3.Vec, a, b int) float64 {
	if a < 0 || b < 0 || a >= len(positions) || b >= len(positions) {
		return 1
	}
	d := r3.Norm(r3.Sub(positions[a], positions[b]))
	if math.IsNaN(d) || math.IsInf(d, 0) || d < minReferenceDistance {
		return 1
	}
	return StandardReferenceWidth / d
}

// ShoulderScale is ScaleFactor over the two shoulder landmarks.
func ShoulderScale(positions []r3.Vec) float64 {
	return ScaleFactor(positions, landmark.LeftShoulder, landmark.RightShoulder)
}

// Rescale multiplies every position by f in place.
func Rescale(positions []r3.Vec, f float64) {
	for i := range positions {
		positions[i] = r3.Scale(f, positions[i])
	}
}
