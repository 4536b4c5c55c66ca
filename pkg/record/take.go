// Package record collects keyframes during a capture and bakes them into actions.
package record

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/num/quat"
)

// ErrNothingRecorded is returned when baking a take without keyframes.
var ErrNothingRecorded = errors.New("nothing recorded")

// Keyframe is one bone rotation at a timeline frame.
type Keyframe struct {
	Frame    int         `json:"frame"`
	Rotation quat.Number `json:"rotation"`
}

// Take accumulates keyframes for one recording.
type Take struct {
	ID         string
	StartFrame int
	Started    time.Time

	mu     sync.Mutex
	tracks map[string][]Keyframe
	order  []string
}

// NewTake creates an empty take beginning at startFrame.
func NewTake(startFrame int) *Take {
	return &Take{
		ID:         uuid.New().String(),
		StartFrame: startFrame,
		Started:    time.Now(),
		tracks:     make(map[string][]Keyframe),
	}
}

// Record inserts a keyframe. A second key for the same bone and frame replaces the first.
func (t *Take) Record(bone string, rot quat.Number, frame int) error {
	if bone == "" {
		return fmt.Errorf("record frame %d: empty bone name", frame)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	track, ok := t.tracks[bone]
	if !ok {
		t.order = append(t.order, bone)
	}
	if n := len(track); n > 0 && track[n-1].Frame == frame {
		track[n-1].Rotation = rot
	} else {
		track = append(track, Keyframe{Frame: frame, Rotation: rot})
	}
	t.tracks[bone] = track
	return nil
}

// Bones returns the recorded bones in first-seen order.
func (t *Take) Bones() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Track returns a copy of one bone's keyframes.
func (t *Take) Track(bone string) []Keyframe {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Keyframe, len(t.tracks[bone]))
	copy(out, t.tracks[bone])
	return out
}

// KeyCount returns the total number of keyframes.
func (t *Take) KeyCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, tr := range t.tracks {
		n += len(tr)
	}
	return n
}

// Action is a baked take.
type Action struct {
	Name       string                `json:"name"`
	TakeID     string                `json:"take_id"`
	FrameStart int                   `json:"frame_start"`
	FrameEnd   int                   `json:"frame_end"`
	Tracks     map[string][]Keyframe `json:"tracks"`
}

// Bake freezes the take into a named action. An empty name becomes
// Capture_<timestamp>. recordedFrames is the session's frame count; zero is an error.
func (t *Take) Bake(name string, recordedFrames int) (*Action, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if recordedFrames <= 0 || len(t.tracks) == 0 {
		return nil, ErrNothingRecorded
	}
	if name == "" {
		name = "Capture_" + t.Started.Format("20060102_150405")
	}

	tracks := make(map[string][]Keyframe, len(t.tracks))
	for bone, tr := range t.tracks {
		cp := make([]Keyframe, len(tr))
		copy(cp, tr)
		sort.Slice(cp, func(i, j int) bool { return cp[i].Frame < cp[j].Frame })
		tracks[bone] = cp
	}

	return &Action{
		Name:       name,
		TakeID:     t.ID,
		FrameStart: t.StartFrame,
		FrameEnd:   t.StartFrame + recordedFrames,
		Tracks:     tracks,
	}, nil
}
