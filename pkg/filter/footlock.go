package filter

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// FootVelocityThreshold is the vertical speed, in target units per frame,
// below which a foot near the ground is considered planted.
const FootVelocityThreshold = 0.1

// FootLock pins a planted foot's height to the value it had when it touched down.
// Only the vertical (Z) component is held; X and Y pass through.
type FootLock struct {
	threshold float64
	locked    bool
	lockedZ   float64
}

// NewFootLock creates a foot lock. A threshold <= 0 disables it.
func NewFootLock(threshold float64) *FootLock {
	return &FootLock{threshold: threshold}
}

// Enabled reports whether the lock can engage.
func (f *FootLock) Enabled() bool {
	return f.threshold > 0
}

// Locked reports whether the foot is currently pinned.
func (f *FootLock) Locked() bool {
	return f.locked
}

// Filter applies the lock to pos given the foot's vertical speed.
func (f *FootLock) Filter(pos r3.Vec, velocity float64) r3.Vec {
	if !f.Enabled() {
		return pos
	}

	if pos.Z < f.threshold && velocity < FootVelocityThreshold {
		if !f.locked {
			f.locked = true
			f.lockedZ = pos.Z
		}
		pos.Z = f.lockedZ
		return pos
	}

	f.locked = false
	f.lockedZ = 0
	return pos
}

// Reset releases the lock.
func (f *FootLock) Reset() {
	f.locked = false
	f.lockedZ = 0
}
