package geom

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

const eps = 1e-9

func vecNear(a, b r3.Vec, tol float64) bool {
	return r3.Norm(r3.Sub(a, b)) < tol
}

func TestRotateIdentity(t *testing.T) {
	v := r3.Vec{X: 1, Y: 2, Z: 3}
	if got := Rotate(Identity(), v); !vecNear(got, v, eps) {
		t.Errorf("Rotate(identity) = %v, want %v", got, v)
	}
}

func TestFromBasisIdentity(t *testing.T) {
	q := FromBasis(XAxis, YAxis, ZAxis)
	if math.Abs(q.Real-1) > eps || math.Abs(q.Imag) > eps || math.Abs(q.Jmag) > eps || math.Abs(q.Kmag) > eps {
		t.Errorf("FromBasis(standard) = %v, want identity", q)
	}
}

func TestFromBasisMapsAxes(t *testing.T) {
	tests := []struct {
		name    string
		x, y, z r3.Vec
	}{
		{"yaw 90", r3.Vec{Y: 1}, r3.Vec{X: -1}, ZAxis},
		{"pointing down", r3.Vec{Y: -1}, r3.Vec{Z: -1}, r3.Vec{X: 1}},
		{"half turn", r3.Vec{X: -1}, r3.Vec{Y: -1}, ZAxis},
		{"roll", XAxis, r3.Vec{Z: 1}, r3.Vec{Y: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := FromBasis(tt.x, tt.y, tt.z)
			if math.Abs(quat.Abs(q)-1) > 1e-9 {
				t.Errorf("|q| = %v, want 1", quat.Abs(q))
			}
			if got := Rotate(q, XAxis); !vecNear(got, tt.x, 1e-9) {
				t.Errorf("X -> %v, want %v", got, tt.x)
			}
			if got := Rotate(q, YAxis); !vecNear(got, tt.y, 1e-9) {
				t.Errorf("Y -> %v, want %v", got, tt.y)
			}
			if got := Rotate(q, ZAxis); !vecNear(got, tt.z, 1e-9) {
				t.Errorf("Z -> %v, want %v", got, tt.z)
			}
		})
	}
}

func TestSlerpEndpoints(t *testing.T) {
	a := Identity()
	b := FromBasis(r3.Vec{Y: 1}, r3.Vec{X: -1}, ZAxis) // 90 degrees about Z

	if got := Slerp(a, b, 0); Angle(got, a) > 1e-9 {
		t.Errorf("Slerp(t=0) = %v, want %v", got, a)
	}
	if got := Slerp(a, b, 1); Angle(got, b) > 1e-9 {
		t.Errorf("Slerp(t=1) = %v, want %v", got, b)
	}

	mid := Slerp(a, b, 0.5)
	if got := Angle(a, mid); math.Abs(got-math.Pi/4) > 1e-9 {
		t.Errorf("angle to midpoint = %v, want pi/4", got)
	}
}

func TestSlerpShortestPath(t *testing.T) {
	a := Identity()
	b := quat.Scale(-1, FromBasis(r3.Vec{Y: 1}, r3.Vec{X: -1}, ZAxis))

	mid := Slerp(a, b, 0.5)
	if got := Angle(a, mid); math.Abs(got-math.Pi/4) > 1e-9 {
		t.Errorf("angle to midpoint = %v, want pi/4 via shortest arc", got)
	}
}

func TestSlerpSameInput(t *testing.T) {
	q := FromBasis(r3.Vec{Y: 1}, r3.Vec{X: -1}, ZAxis)
	if got := Slerp(q, q, 0.3); Angle(got, q) > 1e-9 {
		t.Errorf("Slerp(q, q) = %v, want %v", got, q)
	}
}

func TestAngleNearlyIdentical(t *testing.T) {
	q := FromBasis(r3.Vec{Y: 1}, r3.Vec{X: -1}, ZAxis)
	h := Slerp(Identity(), q, 0.5)
	if got := Angle(h, h); got > 1e-12 {
		t.Errorf("Angle(h, h) = %v, want 0", got)
	}
	if got := Angle(h, quat.Scale(-1, h)); got > 1e-12 {
		t.Errorf("Angle(h, -h) = %v, want 0", got)
	}
	if got := Angle(Identity(), q); math.Abs(got-math.Pi/2) > 1e-12 {
		t.Errorf("Angle(identity, q) = %v, want pi/2", got)
	}
}

func TestLerp(t *testing.T) {
	got := Lerp(r3.Vec{}, r3.Vec{X: 2, Y: 4, Z: -2}, 0.25)
	want := r3.Vec{X: 0.5, Y: 1, Z: -0.5}
	if !vecNear(got, want, eps) {
		t.Errorf("Lerp = %v, want %v", got, want)
	}
	if got := LerpScalar(10, 20, 0.5); got != 15 {
		t.Errorf("LerpScalar = %v, want 15", got)
	}
}

func TestNormalizeZero(t *testing.T) {
	if got := Normalize(quat.Number{}); got != Identity() {
		t.Errorf("Normalize(0) = %v, want identity", got)
	}
}

func TestFinite(t *testing.T) {
	if !Finite(r3.Vec{X: 1}) {
		t.Error("finite vector reported non-finite")
	}
	if Finite(r3.Vec{Y: math.NaN()}) {
		t.Error("NaN vector reported finite")
	}
	if Finite(r3.Vec{Z: math.Inf(1)}) {
		t.Error("Inf vector reported finite")
	}
	if FiniteQuat(quat.Number{Real: math.NaN()}) {
		t.Error("NaN quaternion reported finite")
	}
}
