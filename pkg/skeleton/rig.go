// Package skeleton holds the in-process rig the retargeter poses.
package skeleton

import (
	"errors"
	"fmt"
	"sync"

	"gonum.org/v1/gonum/num/quat"

	"github.com/teslashibe/go-mocap/pkg/geom"
)

// ErrUnknownBone is returned when a rotation targets a bone the rig lacks.
var ErrUnknownBone = errors.New("unknown bone")

// Rig is a named set of bones with their current local rotations.
type Rig struct {
	name  string
	bones []string

	mu    sync.RWMutex
	poses map[string]quat.Number
}

// NewRig creates a rig in rest pose. Duplicate bone names are collapsed.
func NewRig(name string, bones []string) *Rig {
	r := &Rig{name: name, poses: make(map[string]quat.Number, len(bones))}
	for _, b := range bones {
		if _, dup := r.poses[b]; dup || b == "" {
			continue
		}
		r.bones = append(r.bones, b)
		r.poses[b] = geom.Identity()
	}
	return r
}

// Name returns the rig name.
func (r *Rig) Name() string {
	return r.name
}

// BoneNames returns the rig's bones in definition order.
func (r *Rig) BoneNames() []string {
	out := make([]string, len(r.bones))
	copy(out, r.bones)
	return out
}

// HasBone reports whether the rig defines bone.
func (r *Rig) HasBone(bone string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.poses[bone]
	return ok
}

// SetBoneRotation sets a bone's local rotation.
func (r *Rig) SetBoneRotation(bone string, rot quat.Number) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.poses[bone]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBone, bone)
	}
	r.poses[bone] = geom.Normalize(rot)
	return nil
}

// Rotation returns a bone's current rotation.
func (r *Rig) Rotation(bone string) (quat.Number, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.poses[bone]
	return q, ok
}

// Pose returns a copy of every bone rotation.
func (r *Rig) Pose() map[string]quat.Number {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]quat.Number, len(r.poses))
	for b, q := range r.poses {
		out[b] = q
	}
	return out
}

// ZeroPose resets the listed bones to identity and returns how many were reset.
// Bones the rig does not define are ignored.
func (r *Rig) ZeroPose(bones []string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, b := range bones {
		if _, ok := r.poses[b]; ok {
			r.poses[b] = geom.Identity()
			n++
		}
	}
	return n
}
