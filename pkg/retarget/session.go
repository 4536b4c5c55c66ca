package retarget

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/teslashibe/go-mocap/internal/log"
	"github.com/teslashibe/go-mocap/pkg/debug"
	"github.com/teslashibe/go-mocap/pkg/filter"
	"github.com/teslashibe/go-mocap/pkg/geom"
	"github.com/teslashibe/go-mocap/pkg/landmark"
	"github.com/teslashibe/go-mocap/pkg/mapping"
)

// Sink receives solved bone rotations.
// An error for one bone does not stop the others.
type Sink interface {
	SetBoneRotation(bone string, rot quat.Number) error
}

// Recorder stores keyframes while a recording is active.
type Recorder interface {
	Record(bone string, rot quat.Number, frame int) error
}

// Options configures a session.
type Options struct {
	MotionScale float64
	ZOffset     float64
	StartFrame  int
	Filter      filter.Config
}

// DefaultOptions matches the default capture settings.
func DefaultOptions() Options {
	return Options{
		MotionScale: 1.0,
		StartFrame:  1,
		Filter:      filter.DefaultConfig(),
	}
}

// ErrNoActiveBones is returned when a mapping has nothing to drive.
var ErrNoActiveBones = errors.New("no enabled mapping entries with a bone")

// BoneRotation is one bone's filtered rotation for a frame.
type BoneRotation struct {
	Bone     string      `json:"bone"`
	Landmark string      `json:"landmark"`
	Rotation quat.Number `json:"rotation"`
}

// FootState is the filtered position of a foot bone's landmark.
type FootState struct {
	Bone     string `json:"bone"`
	Position r3.Vec `json:"position"`
	Locked   bool   `json:"locked"`
}

// Result summarizes one Step.
type Result struct {
	Frame    int            `json:"frame"` // timeline index the frame was recorded at, when recording
	Applied  []BoneRotation `json:"applied"`
	Feet     []FootState    `json:"feet,omitempty"`
	Skipped  int            `json:"skipped"`
	Recorded bool           `json:"recorded"`
}

// Stats is a snapshot of session counters.
type Stats struct {
	ID             string `json:"id"`
	Frames         int    `json:"frames"`
	DroppedFrames  int    `json:"dropped_frames"`
	RecordedFrames int    `json:"recorded_frames"`
	TimeIndex      int    `json:"time_index"`
	Recording      bool   `json:"recording"`
	StartFrame     int    `json:"start_frame"`
}

// Session is the per-capture retargeting state: the mapping snapshot, one
// filter pipeline per active entry and the recording cursor. It is created at
// capture start and discarded at stop.
type Session struct {
	id      string
	opts    Options
	entries []mapping.Entry
	sink    Sink
	filters []*filter.Pipeline // parallel to entries
	logger  *slog.Logger

	mu             sync.Mutex
	recorder       Recorder
	recordStart    int
	timeIndex      int
	recordedFrames int
	droppedFrames  int
	frames         int
	warned         map[string]bool
}

// NewSession prepares filter state for every active entry.
func NewSession(entries []mapping.Entry, sink Sink, opts Options) (*Session, error) {
	s := &Session{
		id:        uuid.New().String(),
		opts:      opts,
		sink:      sink,
		timeIndex: opts.StartFrame,
		warned:    make(map[string]bool),
	}
	for _, e := range entries {
		if !e.Active() {
			continue
		}
		s.entries = append(s.entries, e)
		s.filters = append(s.filters, filter.NewPipeline(opts.Filter))
	}
	if len(s.entries) == 0 {
		return nil, ErrNoActiveBones
	}
	s.logger = log.Component("retarget").With("session", s.id)
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Step retargets one frame of landmarks onto the sink.
func (s *Session) Step(lms []landmark.Landmark) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frames++

	positions := Positions(lms, s.opts.MotionScale, s.opts.ZOffset)
	if len(positions) > landmark.RightShoulder {
		Rescale(positions, ShoulderScale(positions))
	}
	set := BuildNamedSet(positions, lms)

	res := Result{Frame: s.timeIndex}
	for i, e := range s.entries {
		pipe := s.filters[i]
		if foot, ok := s.footState(e, pipe, set); ok {
			res.Feet = append(res.Feet, foot)
		}

		rot, applied, err := s.applyBone(e, pipe, set)
		if err != nil {
			res.Skipped++
			s.reportBoneError(e.Bone, err)
			continue
		}
		if !applied {
			continue
		}
		res.Applied = append(res.Applied, BoneRotation{Bone: e.Bone, Landmark: e.Landmark, Rotation: rot})
	}

	if s.recorder != nil {
		for _, b := range res.Applied {
			if err := s.recorder.Record(b.Bone, b.Rotation, s.timeIndex); err != nil {
				s.logger.Warn("keyframe not recorded", "bone", b.Bone, "frame", s.timeIndex, "error", err)
			}
		}
		res.Recorded = true
		s.timeIndex++
		s.recordedFrames++
	}

	debug.FrameLog("🦴 frame %d: %d applied, %d skipped\n", s.frames, len(res.Applied), res.Skipped)
	return res
}

// applyBone solves, filters and applies one entry. applied is false when the
// entry has no chain, a missing endpoint or no confident sample yet.
func (s *Session) applyBone(e mapping.Entry, pipe *filter.Pipeline, set landmark.NamedSet) (rot quat.Number, applied bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	child, ok := ChainChild(e.Landmark)
	if !ok {
		return rot, false, nil
	}
	start, ok := set.Get(e.Landmark)
	if !ok {
		return rot, false, nil
	}
	end, ok := set.Get(child)
	if !ok {
		return rot, false, nil
	}

	raw := SolveChain(start.Pos, end.Pos)
	if !geom.FiniteQuat(raw) {
		return rot, false, fmt.Errorf("non-finite rotation for %s->%s", e.Landmark, child)
	}

	confidence := min(start.Visibility, end.Visibility)
	rot, ok = pipe.FilterRotation(raw, confidence)
	if !ok {
		debug.FrameLog("   %s gated (confidence %.2f)\n", e.Bone, confidence)
		return rot, false, nil
	}

	if err := s.sink.SetBoneRotation(e.Bone, rot); err != nil {
		return rot, false, fmt.Errorf("apply %s: %w", e.Bone, err)
	}
	return rot, true, nil
}

// footState runs a foot bone's landmark through its position filter.
func (s *Session) footState(e mapping.Entry, pipe *filter.Pipeline, set landmark.NamedSet) (FootState, bool) {
	if !mapping.IsFootBone(e.Bone) {
		return FootState{}, false
	}
	p, ok := set.Get(e.Landmark)
	if !ok {
		return FootState{}, false
	}
	pos, ok := pipe.FilterPosition(p.Pos, p.Visibility, true)
	if !ok {
		return FootState{}, false
	}
	return FootState{Bone: e.Bone, Position: pos, Locked: pipe.FootLocked()}, true
}

// reportBoneError warns once per bone and logs repeats at debug level.
func (s *Session) reportBoneError(bone string, err error) {
	if !s.warned[bone] {
		s.warned[bone] = true
		s.logger.Warn("bone skipped", "bone", bone, "error", err)
		return
	}
	s.logger.Debug("bone skipped", "bone", bone, "error", err)
}

// MarkDropped counts a frame that produced no landmarks.
func (s *Session) MarkDropped() {
	s.mu.Lock()
	s.droppedFrames++
	s.mu.Unlock()
}

// StartRecording begins sending keyframes to rec and returns the first frame index.
func (s *Session) StartRecording(rec Recorder) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder = rec
	s.recordedFrames = 0
	s.recordStart = s.timeIndex
	return s.timeIndex
}

// StopRecording detaches the recorder and returns how many frames it received.
func (s *Session) StopRecording() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder = nil
	return s.recordedFrames
}

// Recording reports whether a recorder is attached.
func (s *Session) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recorder != nil
}

// Stats returns the current counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		ID:             s.id,
		Frames:         s.frames,
		DroppedFrames:  s.droppedFrames,
		RecordedFrames: s.recordedFrames,
		TimeIndex:      s.timeIndex,
		Recording:      s.recorder != nil,
		StartFrame:     s.recordStart,
	}
}

// Bones returns the bones this session drives, in application order.
func (s *Session) Bones() []string {
	bones := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		bones = append(bones, e.Bone)
	}
	return bones
}
