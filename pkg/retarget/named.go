package retarget

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/teslashibe/go-mocap/pkg/geom"
	"github.com/teslashibe/go-mocap/pkg/landmark"
)

// BuildNamedSet labels target-space positions with their landmark names.
// Non-finite positions are left out. With enough landmarks for both hips
// the spine proxy is added at the midpoint of the hip and shoulder centres;
// its visibility is the lowest of the four contributing landmarks.
func BuildNamedSet(positions []r3.Vec, lms []landmark.Landmark) landmark.NamedSet {
	set := make(landmark.NamedSet, len(positions)+1)
	for i, pos := range positions {
		name := landmark.Name(i)
		if name == "" || !geom.Finite(pos) {
			continue
		}
		set[name] = landmark.Point{Pos: pos, Visibility: visibility(lms, i)}
	}

	if len(positions) > landmark.RightHip {
		hipCenter := midpoint(positions[landmark.LeftHip], positions[landmark.RightHip])
		shoulderCenter := midpoint(positions[landmark.LeftShoulder], positions[landmark.RightShoulder])
		spine := midpoint(hipCenter, shoulderCenter)
		if geom.Finite(spine) {
			vis := visibility(lms, landmark.LeftHip)
			for _, i := range []int{landmark.RightHip, landmark.LeftShoulder, landmark.RightShoulder} {
				vis = min(vis, visibility(lms, i))
			}
			set[landmark.SpineProxy] = landmark.Point{Pos: spine, Visibility: vis}
		}
	}

	return set
}

func midpoint(a, b r3.Vec) r3.Vec {
	return r3.Scale(0.5, r3.Add(a, b))
}

// visibility returns lms[i].Visibility, or 1 when no raw landmark backs index i.
func visibility(lms []landmark.Landmark, i int) float64 {
	if i < 0 || i >= len(lms) {
		return 1
	}
	return lms[i].Visibility
}
