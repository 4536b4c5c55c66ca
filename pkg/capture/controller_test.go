package capture

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/teslashibe/go-mocap/pkg/camera"
	"github.com/teslashibe/go-mocap/pkg/geom"
	"github.com/teslashibe/go-mocap/pkg/landmark"
	"github.com/teslashibe/go-mocap/pkg/mapping"
	"github.com/teslashibe/go-mocap/pkg/protocol"
	"github.com/teslashibe/go-mocap/pkg/record"
	"github.com/teslashibe/go-mocap/pkg/skeleton"
)

// mockFrames is a FrameSource that fails every failEvery-th read.
type mockFrames struct {
	mu        sync.Mutex
	openErr   error
	opened    bool
	closed    int
	reads     int
	failEvery int
}

func (m *mockFrames) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openErr != nil {
		return m.openErr
	}
	m.opened = true
	return nil
}

func (m *mockFrames) Read() (camera.Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.failEvery > 0 && m.reads%m.failEvery == 0 {
		return camera.Frame{}, camera.ErrReadFailed
	}
	return camera.Frame{ID: uint64(m.reads), Width: 640, Height: 480}, nil
}

func (m *mockFrames) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	return nil
}

func (m *mockFrames) FPS() float64       { return 30 }
func (m *mockFrames) LatencyMs() float64 { return 4 }

// mockLandmarks returns an arm pose, with no detection every emptyEvery-th call.
type mockLandmarks struct {
	readyErr   error
	calls      atomic.Int64
	emptyEvery int64

	// when set, Ready signals entered and blocks until release closes
	entered chan struct{}
	release chan struct{}
}

func (m *mockLandmarks) Ready() error {
	if m.release != nil {
		close(m.entered)
		<-m.release
	}
	return m.readyErr
}

func (m *mockLandmarks) Detect(ctx context.Context, frame camera.Frame) ([]landmark.Landmark, error) {
	n := m.calls.Add(1)
	if m.emptyEvery > 0 && n%m.emptyEvery == 0 {
		return nil, nil
	}
	lms := make([]landmark.Landmark, landmark.PoseCount)
	for i := range lms {
		lms[i] = landmark.Landmark{X: 0.5, Y: 0.5, Visibility: 1}
	}
	lms[landmark.LeftShoulder] = landmark.Landmark{X: 0.4, Y: 0.3, Visibility: 1}
	lms[landmark.RightShoulder] = landmark.Landmark{X: 0.6, Y: 0.3, Visibility: 1}
	lms[landmark.LeftElbow] = landmark.Landmark{X: 0.3, Y: 0.4, Visibility: 1}
	lms[landmark.LeftWrist] = landmark.Landmark{X: 0.25, Y: 0.55, Visibility: 1}
	return lms, nil
}

// mockPublisher counts published messages.
type mockPublisher struct {
	mu       sync.Mutex
	bones    []protocol.BonesData
	statuses []protocol.StatusData
	frames   int
}

func (m *mockPublisher) PublishBones(d protocol.BonesData) {
	m.mu.Lock()
	m.bones = append(m.bones, d)
	m.mu.Unlock()
}

func (m *mockPublisher) PublishStatus(s protocol.StatusData) {
	m.mu.Lock()
	m.statuses = append(m.statuses, s)
	m.mu.Unlock()
}

func (m *mockPublisher) PublishCamera(camera.Frame) {
	m.mu.Lock()
	m.frames++
	m.mu.Unlock()
}

func testSettings() Settings {
	s := DefaultSettings()
	s.TargetFPS = 120
	s.Rig = RigConfig{Name: "test", Bones: []string{"upper_arm.L", "forearm.L", "hand.L"}}
	return s
}

func newTestController(t *testing.T, frames *mockFrames, lms *mockLandmarks) *Controller {
	t.Helper()
	s := testSettings()
	s.MapsDir = t.TempDir()
	rig := skeleton.NewRig(s.Rig.Name, s.RigBones())
	c := NewController(s, rig, nil, frames, lms)
	if _, err := c.AutoMap(); err != nil {
		t.Fatalf("AutoMap: %v", err)
	}
	return c
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestStartWithoutMappings(t *testing.T) {
	frames := &mockFrames{}
	rig := skeleton.NewRig("empty", []string{"root"})
	c := NewController(testSettings(), rig, nil, frames, &mockLandmarks{})

	if err := c.Start(context.Background()); !errors.Is(err, ErrNoMappings) {
		t.Fatalf("Start err = %v, want ErrNoMappings", err)
	}
	if c.Capturing() || frames.opened {
		t.Error("failed Start must not open sources")
	}
	if msg := c.Status().Message; msg == "Ready" {
		t.Error("status should report the error")
	}
}

func TestStartSourceUnavailable(t *testing.T) {
	tests := []struct {
		name   string
		frames *mockFrames
		lms    *mockLandmarks
		closed int
	}{
		{"camera", &mockFrames{openErr: errors.New("no device")}, &mockLandmarks{}, 0},
		{"detector", &mockFrames{}, &mockLandmarks{readyErr: errors.New("refused")}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(t, tt.frames, tt.lms)
			err := c.Start(context.Background())
			if !errors.Is(err, ErrSourceUnavailable) {
				t.Fatalf("Start err = %v, want ErrSourceUnavailable", err)
			}
			if c.Capturing() {
				t.Error("controller should not be capturing")
			}
			if tt.frames.closed != tt.closed {
				t.Errorf("camera closed %d times, want %d", tt.frames.closed, tt.closed)
			}
		})
	}
}

func TestStartDoesNotBlockStatus(t *testing.T) {
	frames := &mockFrames{}
	lms := &mockLandmarks{entered: make(chan struct{}), release: make(chan struct{})}
	c := newTestController(t, frames, lms)

	started := make(chan error, 1)
	go func() { started <- c.Start(context.Background()) }()
	<-lms.entered

	status := make(chan protocol.StatusData, 1)
	go func() { status <- c.Status() }()
	select {
	case st := <-status:
		if st.Capturing {
			t.Error("should not report capturing while the detector connects")
		}
	case <-time.After(time.Second):
		t.Fatal("Status blocked while the detector was connecting")
	}

	if err := c.Start(context.Background()); !errors.Is(err, ErrAlreadyCapturing) {
		t.Errorf("concurrent Start err = %v, want ErrAlreadyCapturing", err)
	}

	close(lms.release)
	if err := <-started; err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !c.Capturing() {
		t.Error("controller should be capturing")
	}
	c.Stop()
}

func TestAutoMapNoMatch(t *testing.T) {
	rig := skeleton.NewRig("alien", []string{"tentacle.001"})
	list := mapping.NewList([]mapping.Entry{{Landmark: "NOSE", Bone: "keep", Enabled: true}})
	c := NewController(testSettings(), rig, list, &mockFrames{}, &mockLandmarks{})

	if _, err := c.AutoMap(); !errors.Is(err, ErrNoMappings) {
		t.Errorf("AutoMap err = %v, want ErrNoMappings", err)
	}
	if list.Entries()[0].Bone != "keep" {
		t.Error("failed AutoMap must leave the list untouched")
	}

	empty := NewController(testSettings(), skeleton.NewRig("none", nil), nil, &mockFrames{}, &mockLandmarks{})
	if _, err := empty.AutoMap(); !errors.Is(err, ErrNoRigBones) {
		t.Errorf("AutoMap err = %v, want ErrNoRigBones", err)
	}
}

func TestCaptureRecordBake(t *testing.T) {
	frames := &mockFrames{failEvery: 7}
	lms := &mockLandmarks{emptyEvery: 5}
	pub := &mockPublisher{}
	c := newTestController(t, frames, lms)
	c.SetPublisher(pub)

	if _, err := c.StartRecording(); !errors.Is(err, ErrNotCapturing) {
		t.Errorf("StartRecording before capture = %v, want ErrNotCapturing", err)
	}

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Start(context.Background()); !errors.Is(err, ErrAlreadyCapturing) {
		t.Errorf("second Start = %v, want ErrAlreadyCapturing", err)
	}

	waitFor(t, "frames", func() bool { return c.Status().Frames >= 3 })

	start, err := c.StartRecording()
	if err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if start != 1 {
		t.Errorf("start frame = %d, want 1", start)
	}
	if _, err := c.StartRecording(); !errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("second StartRecording = %v, want ErrAlreadyRecording", err)
	}

	waitFor(t, "recorded frames", func() bool { return c.Status().RecordedFrames >= 4 })

	if _, err := c.Bake("early"); !errors.Is(err, ErrStillRecording) {
		t.Errorf("Bake while recording = %v, want ErrStillRecording", err)
	}

	n, err := c.StopRecording()
	if err != nil || n < 4 {
		t.Fatalf("StopRecording = %d, %v", n, err)
	}

	waitFor(t, "dropped frames", func() bool { return c.Status().DroppedFrames > 0 })

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if c.Capturing() || frames.closed != 1 {
		t.Errorf("after Stop: capturing = %v, closed = %d", c.Capturing(), frames.closed)
	}
	if got := c.Status().Message; got != "Stopped" {
		t.Errorf("Message = %q, want Stopped", got)
	}

	action, err := c.Bake("")
	if err != nil {
		t.Fatalf("Bake: %v", err)
	}
	if action.FrameStart != 1 || action.FrameEnd != 1+n {
		t.Errorf("action range = %d..%d, want 1..%d", action.FrameStart, action.FrameEnd, 1+n)
	}
	if len(action.Tracks["forearm.L"]) != n {
		t.Errorf("forearm.L keys = %d, want %d", len(action.Tracks["forearm.L"]), n)
	}
	if len(c.Actions()) != 1 {
		t.Errorf("Actions = %d, want 1", len(c.Actions()))
	}

	if rot, _ := c.Rig().Rotation("forearm.L"); geom.Angle(rot, geom.Identity()) < 1e-3 {
		t.Error("forearm.L should have been posed")
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.bones) == 0 || pub.frames == 0 || len(pub.statuses) == 0 {
		t.Errorf("published bones=%d frames=%d statuses=%d", len(pub.bones), pub.frames, len(pub.statuses))
	}
}

func TestBakeWithoutRecording(t *testing.T) {
	c := newTestController(t, &mockFrames{}, &mockLandmarks{})
	if _, err := c.Bake("x"); !errors.Is(err, record.ErrNothingRecorded) {
		t.Errorf("Bake = %v, want ErrNothingRecorded", err)
	}
	if _, err := c.StopRecording(); !errors.Is(err, ErrNotRecording) {
		t.Errorf("StopRecording = %v, want ErrNotRecording", err)
	}
	if err := c.Stop(); err != nil {
		t.Errorf("Stop on idle controller = %v", err)
	}
}

func TestZeroPose(t *testing.T) {
	c := newTestController(t, &mockFrames{}, &mockLandmarks{})
	turned := geom.FromBasis(geom.YAxis, geom.ZAxis, geom.XAxis)
	c.Rig().SetBoneRotation("forearm.L", turned)

	if n := c.ZeroPose(); n != 3 {
		t.Errorf("ZeroPose = %d, want 3 mapped bones", n)
	}
	if rot, _ := c.Rig().Rotation("forearm.L"); rot != geom.Identity() {
		t.Errorf("forearm.L = %v, want identity", rot)
	}
}

func TestSaveLoadMappings(t *testing.T) {
	c := newTestController(t, &mockFrames{}, &mockLandmarks{})
	want := c.Mappings().Len()

	if _, err := c.SaveMappings("arm"); err != nil {
		t.Fatalf("SaveMappings: %v", err)
	}
	c.Mappings().Clear()

	n, err := c.LoadMappings("arm")
	if err != nil || n != want {
		t.Fatalf("LoadMappings = %d, %v; want %d", n, err, want)
	}
	names, _ := c.SavedMappings()
	if len(names) != 1 || names[0] != "arm" {
		t.Errorf("SavedMappings = %v", names)
	}
}

func TestUpdateSettings(t *testing.T) {
	c := newTestController(t, &mockFrames{}, &mockLandmarks{})
	bad := c.Settings()
	bad.TargetFPS = 0
	if err := c.UpdateSettings(bad); !errors.Is(err, ErrInvalidSettings) {
		t.Errorf("UpdateSettings = %v, want ErrInvalidSettings", err)
	}
	good := c.Settings()
	good.ZOffset = 1
	if err := c.UpdateSettings(good); err != nil || c.Settings().ZOffset != 1 {
		t.Errorf("UpdateSettings = %v, ZOffset = %v", err, c.Settings().ZOffset)
	}
}
