package retarget

import (
	"errors"
	"math"
	"sync"
	"testing"

	"gonum.org/v1/gonum/num/quat"

	"github.com/teslashibe/go-mocap/pkg/filter"
	"github.com/teslashibe/go-mocap/pkg/geom"
	"github.com/teslashibe/go-mocap/pkg/landmark"
	"github.com/teslashibe/go-mocap/pkg/mapping"
)

// mockSink records applied rotations and can refuse named bones.
type mockSink struct {
	mu      sync.Mutex
	applied map[string]quat.Number
	calls   []string
	refuse  map[string]bool
}

func newMockSink() *mockSink {
	return &mockSink{applied: make(map[string]quat.Number), refuse: make(map[string]bool)}
}

func (m *mockSink) SetBoneRotation(bone string, rot quat.Number) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, bone)
	if m.refuse[bone] {
		return errors.New("unknown bone")
	}
	m.applied[bone] = rot
	return nil
}

type keyframe struct {
	bone  string
	frame int
}

type mockRecorder struct {
	mu   sync.Mutex
	keys []keyframe
}

func (m *mockRecorder) Record(bone string, rot quat.Number, frame int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, keyframe{bone, frame})
	return nil
}

// pose builds a full frame with shoulders 0.2 apart and the left arm set by elbow/wrist.
func pose(elbowX, elbowY, wristX, wristY float64) []landmark.Landmark {
	lms := make([]landmark.Landmark, landmark.PoseCount)
	for i := range lms {
		lms[i] = landmark.Landmark{X: 0.5, Y: 0.5, Visibility: 1}
	}
	lms[landmark.LeftShoulder] = landmark.Landmark{X: 0.4, Y: 0.3, Visibility: 1}
	lms[landmark.RightShoulder] = landmark.Landmark{X: 0.6, Y: 0.3, Visibility: 1}
	lms[landmark.LeftElbow] = landmark.Landmark{X: elbowX, Y: elbowY, Visibility: 1}
	lms[landmark.LeftWrist] = landmark.Landmark{X: wristX, Y: wristY, Visibility: 1}
	lms[landmark.LeftIndex] = landmark.Landmark{X: wristX - 0.02, Y: wristY + 0.05, Visibility: 1}
	lms[landmark.LeftHip] = landmark.Landmark{X: 0.45, Y: 0.6, Visibility: 1}
	lms[landmark.RightHip] = landmark.Landmark{X: 0.55, Y: 0.6, Visibility: 1}
	return lms
}

func rawRotation(lms []landmark.Landmark, from, to int) quat.Number {
	return SolveChain(ToTarget(lms[from], 1, 0), ToTarget(lms[to], 1, 0))
}

func forearmEntries() []mapping.Entry {
	return []mapping.Entry{
		{RigBone: "LeftForearm", Landmark: "LEFT_ELBOW", Bone: "forearm.L", Enabled: true},
	}
}

func TestNewSessionRequiresActiveBones(t *testing.T) {
	_, err := NewSession([]mapping.Entry{
		{Landmark: "LEFT_ELBOW", Bone: "", Enabled: true},
		{Landmark: "LEFT_WRIST", Bone: "hand.L", Enabled: false},
	}, newMockSink(), DefaultOptions())
	if !errors.Is(err, ErrNoActiveBones) {
		t.Errorf("err = %v, want ErrNoActiveBones", err)
	}
}

func TestStepBlendsSuccessiveFrames(t *testing.T) {
	sink := newMockSink()
	opts := DefaultOptions()
	opts.Filter = filter.Config{Smoothing: 0.5, MinConfidence: 0}

	s, err := NewSession(forearmEntries(), sink, opts)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	f1 := pose(0.35, 0.45, 0.3, 0.6)
	f2 := pose(0.35, 0.45, 0.45, 0.5)
	r1 := rawRotation(f1, landmark.LeftElbow, landmark.LeftWrist)
	r2 := rawRotation(f2, landmark.LeftElbow, landmark.LeftWrist)

	res := s.Step(f1)
	if len(res.Applied) != 1 {
		t.Fatalf("frame 1 applied %d bones, want 1", len(res.Applied))
	}
	if got := sink.applied["forearm.L"]; geom.Angle(got, r1) > 1e-9 {
		t.Errorf("frame 1 rotation = %v, want raw %v", got, r1)
	}

	s.Step(f2)
	want := geom.Slerp(r1, r2, 0.5)
	if got := sink.applied["forearm.L"]; geom.Angle(got, want) > 1e-9 {
		t.Errorf("frame 2 rotation = %v, want slerp %v", got, want)
	}
}

func TestStepPointsUpperArmDown(t *testing.T) {
	sink := newMockSink()
	opts := DefaultOptions()
	opts.Filter = filter.Config{Smoothing: 0.5, MinConfidence: 0}
	entries := []mapping.Entry{
		{RigBone: "LeftUpperArm", Landmark: "LEFT_SHOULDER", Bone: "upper_arm.L", Enabled: true},
	}
	s, err := NewSession(entries, sink, opts)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	// Elbow straight below the shoulder in the image
	f1 := pose(0.4, 0.5, 0.4, 0.7)
	res := s.Step(f1)
	if len(res.Applied) != 1 {
		t.Fatalf("frame 1 applied %d bones, want 1", len(res.Applied))
	}
	r1 := sink.applied["upper_arm.L"]
	got := geom.Rotate(r1, geom.YAxis)
	if math.Abs(got.X) > 1e-9 || math.Abs(got.Y) > 1e-9 || math.Abs(got.Z+1) > 1e-9 {
		t.Errorf("local +Y maps to %v, want (0, 0, -1)", got)
	}

	// Elbow swings out to the side
	f2 := pose(0.3, 0.3, 0.2, 0.3)
	r2 := rawRotation(f2, landmark.LeftShoulder, landmark.LeftElbow)
	s.Step(f2)
	want := geom.Slerp(r1, r2, 0.5)
	if got := sink.applied["upper_arm.L"]; geom.Angle(got, want) > 1e-9 {
		t.Errorf("frame 2 rotation = %v, want slerp %v", got, want)
	}
}

func TestStepSurvivesNonFiniteShoulder(t *testing.T) {
	sink := newMockSink()
	s, _ := NewSession(forearmEntries(), sink, DefaultOptions())

	lms := pose(0.35, 0.45, 0.3, 0.6)
	lms[landmark.RightShoulder].X = math.NaN()

	res := s.Step(lms)
	if len(res.Applied) != 1 || res.Applied[0].Bone != "forearm.L" {
		t.Fatalf("Applied = %+v, want forearm.L", res.Applied)
	}
	if !geom.FiniteQuat(res.Applied[0].Rotation) {
		t.Errorf("rotation = %v, want finite", res.Applied[0].Rotation)
	}
}

func TestDuplicateBonesFilterIndependently(t *testing.T) {
	sink := newMockSink()
	opts := DefaultOptions()
	opts.Filter = filter.Config{Smoothing: 0.5, MinConfidence: 0}
	entries := []mapping.Entry{
		{Landmark: "LEFT_ELBOW", Bone: "forearm.L", Enabled: true},
		{Landmark: "LEFT_ELBOW", Bone: "forearm.L", Enabled: true},
	}
	s, err := NewSession(entries, sink, opts)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	f1 := pose(0.35, 0.45, 0.3, 0.6)
	f2 := pose(0.35, 0.45, 0.45, 0.5)
	r1 := rawRotation(f1, landmark.LeftElbow, landmark.LeftWrist)
	r2 := rawRotation(f2, landmark.LeftElbow, landmark.LeftWrist)

	s.Step(f1)
	res := s.Step(f2)
	if len(res.Applied) != 2 {
		t.Fatalf("Applied = %d, want 2", len(res.Applied))
	}
	want := geom.Slerp(r1, r2, 0.5)
	for i, b := range res.Applied {
		if geom.Angle(b.Rotation, want) > 1e-9 {
			t.Errorf("entry %d rotation = %v, want one blend step %v", i, b.Rotation, want)
		}
	}
}

func TestStepSkipsFailingBone(t *testing.T) {
	sink := newMockSink()
	sink.refuse["upper_arm.L"] = true

	entries := []mapping.Entry{
		{Landmark: "LEFT_SHOULDER", Bone: "upper_arm.L", Enabled: true},
		{Landmark: "LEFT_ELBOW", Bone: "forearm.L", Enabled: true},
		{Landmark: "LEFT_WRIST", Bone: "hand.L", Enabled: true},
	}
	s, err := NewSession(entries, sink, DefaultOptions())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	res := s.Step(pose(0.35, 0.45, 0.3, 0.6))
	if res.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", res.Skipped)
	}
	if len(res.Applied) != 2 {
		t.Errorf("Applied = %d bones, want 2", len(res.Applied))
	}
	want := []string{"upper_arm.L", "forearm.L", "hand.L"}
	for i, b := range want {
		if i >= len(sink.calls) || sink.calls[i] != b {
			t.Fatalf("sink calls = %v, want order %v", sink.calls, want)
		}
	}
}

func TestStepSkipsMissingEndpoint(t *testing.T) {
	sink := newMockSink()
	entries := []mapping.Entry{
		{Landmark: "LEFT_ELBOW", Bone: "forearm.L", Enabled: true},
		{Landmark: "LEFT_ANKLE", Bone: "foot.L", Enabled: true},
		{Landmark: "NOSE", Bone: "head", Enabled: true},
	}
	s, _ := NewSession(entries, sink, DefaultOptions())

	// Only the first 16 landmarks: no foot index, no hips
	res := s.Step(pose(0.35, 0.45, 0.3, 0.6)[:16])
	if len(res.Applied) != 1 || res.Applied[0].Bone != "forearm.L" {
		t.Errorf("Applied = %+v, want only forearm.L", res.Applied)
	}
	if res.Skipped != 0 {
		t.Errorf("Skipped = %d, want 0 for missing data", res.Skipped)
	}
}

func TestStepGatesLowVisibility(t *testing.T) {
	sink := newMockSink()
	s, _ := NewSession(forearmEntries(), sink, DefaultOptions())

	lms := pose(0.35, 0.45, 0.3, 0.6)
	lms[landmark.LeftWrist].Visibility = 0.2

	if res := s.Step(lms); len(res.Applied) != 0 {
		t.Errorf("low visibility frame applied %d bones before any confident sample", len(res.Applied))
	}

	lms[landmark.LeftWrist].Visibility = 0.9
	if res := s.Step(lms); len(res.Applied) != 1 {
		t.Errorf("confident frame applied %d bones, want 1", len(res.Applied))
	}
}

func TestStepReportsFeet(t *testing.T) {
	sink := newMockSink()
	opts := DefaultOptions()
	opts.Filter.FootLockThreshold = 0.5
	entries := []mapping.Entry{{Landmark: "LEFT_ANKLE", Bone: "foot.L", Enabled: true}}
	s, _ := NewSession(entries, sink, opts)

	lms := pose(0.35, 0.45, 0.3, 0.6)
	lms[landmark.LeftAnkle] = landmark.Landmark{X: 0.45, Y: 0.95, Visibility: 1}
	lms[landmark.LeftFootIndex] = landmark.Landmark{X: 0.45, Y: 0.97, Z: -0.05, Visibility: 1}

	s.Step(lms)
	res := s.Step(lms)
	if len(res.Feet) != 1 {
		t.Fatalf("Feet = %+v, want one foot", res.Feet)
	}
	if !res.Feet[0].Locked {
		t.Error("planted foot should be locked")
	}
}

func TestRecordingAdvancesTimeline(t *testing.T) {
	sink := newMockSink()
	opts := DefaultOptions()
	opts.StartFrame = 10
	s, _ := NewSession(forearmEntries(), sink, opts)
	rec := &mockRecorder{}

	s.Step(pose(0.35, 0.45, 0.3, 0.6))
	if got := s.Stats().TimeIndex; got != 10 {
		t.Errorf("TimeIndex before recording = %d, want 10", got)
	}

	if start := s.StartRecording(rec); start != 10 {
		t.Errorf("StartRecording = %d, want 10", start)
	}
	for i := 0; i < 3; i++ {
		res := s.Step(pose(0.35, 0.45, 0.3, 0.6))
		if !res.Recorded || res.Frame != 10+i {
			t.Errorf("step %d: Recorded = %v, Frame = %d", i, res.Recorded, res.Frame)
		}
	}
	if n := s.StopRecording(); n != 3 {
		t.Errorf("StopRecording = %d, want 3", n)
	}

	s.Step(pose(0.35, 0.45, 0.3, 0.6))
	if len(rec.keys) != 3 {
		t.Fatalf("recorded %d keyframes, want 3", len(rec.keys))
	}
	for i, k := range rec.keys {
		if k.bone != "forearm.L" || k.frame != 10+i {
			t.Errorf("key %d = %+v", i, k)
		}
	}
	st := s.Stats()
	if st.TimeIndex != 13 || st.Recording || st.Frames != 5 {
		t.Errorf("Stats = %+v", st)
	}
}

func TestMarkDropped(t *testing.T) {
	s, _ := NewSession(forearmEntries(), newMockSink(), DefaultOptions())
	s.MarkDropped()
	s.MarkDropped()
	if got := s.Stats().DroppedFrames; got != 2 {
		t.Errorf("DroppedFrames = %d, want 2", got)
	}
	if s.ID() == "" {
		t.Error("session should have an id")
	}
}
