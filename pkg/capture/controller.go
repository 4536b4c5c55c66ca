package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teslashibe/go-mocap/internal/log"
	"github.com/teslashibe/go-mocap/pkg/camera"
	"github.com/teslashibe/go-mocap/pkg/landmark"
	"github.com/teslashibe/go-mocap/pkg/mapping"
	"github.com/teslashibe/go-mocap/pkg/protocol"
	"github.com/teslashibe/go-mocap/pkg/record"
	"github.com/teslashibe/go-mocap/pkg/retarget"
	"github.com/teslashibe/go-mocap/pkg/skeleton"
)

// FrameSource produces camera frames. Read returns camera.ErrReadFailed for a lost frame.
type FrameSource interface {
	Open() error
	Read() (camera.Frame, error)
	Close() error
}

// LandmarkSource detects a body in a frame. Nil landmarks mean no detection.
type LandmarkSource interface {
	Ready() error
	Detect(ctx context.Context, frame camera.Frame) ([]landmark.Landmark, error)
}

// Publisher receives per-frame output for display.
type Publisher interface {
	PublishBones(data protocol.BonesData)
	PublishStatus(status protocol.StatusData)
	PublishCamera(frame camera.Frame)
}

// rateSource is implemented by frame sources that measure their own timing.
type rateSource interface {
	FPS() float64
	LatencyMs() float64
}

type nopPublisher struct{}

func (nopPublisher) PublishBones(protocol.BonesData)   {}
func (nopPublisher) PublishStatus(protocol.StatusData) {}
func (nopPublisher) PublishCamera(camera.Frame)        {}

// Controller owns capture state and exposes the start/stop, recording and
// mapping operations the dashboard and CLI drive.
type Controller struct {
	rig       *skeleton.Rig
	mappings  *mapping.List
	frames    FrameSource
	landmarks LandmarkSource
	logger    *slog.Logger

	mu        sync.Mutex
	settings  Settings
	publisher Publisher
	session   *retarget.Session
	starting  bool
	cancel    context.CancelFunc
	done      chan struct{}
	message   string

	take     *record.Take
	recorded int
	actions  []*record.Action
}

// NewController wires a controller. mappings may be nil for an empty list.
func NewController(settings Settings, rig *skeleton.Rig, mappings *mapping.List, frames FrameSource, landmarks LandmarkSource) *Controller {
	if mappings == nil {
		mappings = mapping.NewList(nil)
	}
	return &Controller{
		rig:       rig,
		mappings:  mappings,
		frames:    frames,
		landmarks: landmarks,
		settings:  settings,
		publisher: nopPublisher{},
		message:   "Ready",
		logger:    log.Component("capture"),
	}
}

// SetPublisher routes per-frame output to p.
func (c *Controller) SetPublisher(p Publisher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p == nil {
		p = nopPublisher{}
	}
	c.publisher = p
}

// Rig returns the target rig.
func (c *Controller) Rig() *skeleton.Rig {
	return c.rig
}

// Mappings returns the editable mapping list.
func (c *Controller) Mappings() *mapping.List {
	return c.mappings
}

// Settings returns a copy of the current settings.
func (c *Controller) Settings() Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// UpdateSettings validates and stores s. A running capture keeps its
// settings until the next Start.
func (c *Controller) UpdateSettings(s Settings) error {
	if errs := s.Validate(); len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, errs)
	}
	c.mu.Lock()
	c.settings = s
	c.mu.Unlock()
	return nil
}

// Start opens the sources and begins the frame loop. The sources are opened
// outside the controller lock; a second Start meanwhile gets ErrAlreadyCapturing.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.session != nil || c.starting {
		c.mu.Unlock()
		return ErrAlreadyCapturing
	}
	settings := c.settings
	if errs := settings.Validate(); len(errs) > 0 {
		defer c.mu.Unlock()
		return c.failLocked(fmt.Errorf("%w: %v", ErrInvalidSettings, errs))
	}

	session, err := retarget.NewSession(c.mappings.Entries(), c.rig, settings.Options())
	if err != nil {
		defer c.mu.Unlock()
		if errors.Is(err, retarget.ErrNoActiveBones) {
			return c.failLocked(ErrNoMappings)
		}
		return c.failLocked(err)
	}
	c.starting = true
	c.message = "Starting..."
	c.mu.Unlock()

	openErr := c.openSources()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.starting = false
	if openErr != nil {
		return c.failLocked(openErr)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.session = session
	c.cancel = cancel
	c.done = done
	c.message = "Capturing..."

	go c.run(loopCtx, session, settings, done)

	c.logger.Info("capture started", "session", session.ID(), "bones", len(session.Bones()), "fps", settings.TargetFPS)
	return nil
}

// openSources opens the camera and waits for the detector, closing the
// camera again when the detector is unavailable.
func (c *Controller) openSources() error {
	if err := c.frames.Open(); err != nil {
		return fmt.Errorf("%w: camera: %v", ErrSourceUnavailable, err)
	}
	if err := c.landmarks.Ready(); err != nil {
		c.frames.Close()
		return fmt.Errorf("%w: landmarks: %v", ErrSourceUnavailable, err)
	}
	return nil
}

// failLocked records err as the status message and returns it.
func (c *Controller) failLocked(err error) error {
	c.message = "Error: " + err.Error()
	c.logger.Warn("capture not started", "error", err)
	return err
}

// Stop ends the frame loop and discards the session. An active recording is
// stopped and kept for baking. Stopping an idle controller is a no-op.
func (c *Controller) Stop() error {
	c.mu.Lock()
	session := c.session
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()

	if session == nil {
		return nil
	}

	cancel()
	<-done

	err := c.frames.Close()

	c.mu.Lock()
	if session.Recording() {
		c.recorded = session.StopRecording()
	}
	stats := session.Stats()
	c.session = nil
	c.cancel = nil
	c.done = nil
	c.message = "Stopped"
	c.mu.Unlock()

	c.logger.Info("capture stopped", "session", stats.ID, "frames", stats.Frames, "dropped", stats.DroppedFrames)
	c.publishStatus()
	return err
}

// Wait blocks until the running frame loop exits.
func (c *Controller) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Capturing reports whether the frame loop is running.
func (c *Controller) Capturing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// StartRecording begins keyframing at the session's current time index.
func (c *Controller) StartRecording() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return 0, ErrNotCapturing
	}
	if c.session.Recording() {
		return 0, ErrAlreadyRecording
	}

	start := c.session.Stats().TimeIndex
	c.take = record.NewTake(start)
	c.recorded = 0
	c.session.StartRecording(c.take)
	c.message = "Recording..."

	c.logger.Info("recording started", "take", c.take.ID, "start_frame", start)
	return start, nil
}

// StopRecording ends keyframing and returns the number of recorded frames.
func (c *Controller) StopRecording() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil || !c.session.Recording() {
		return 0, ErrNotRecording
	}
	c.recorded = c.session.StopRecording()
	c.message = fmt.Sprintf("Recorded %d frames", c.recorded)

	c.logger.Info("recording stopped", "take", c.take.ID, "frames", c.recorded)
	return c.recorded, nil
}

// Bake turns the last recording into a named action.
func (c *Controller) Bake(name string) (*record.Action, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil && c.session.Recording() {
		return nil, ErrStillRecording
	}
	if c.take == nil {
		return nil, record.ErrNothingRecorded
	}
	action, err := c.take.Bake(name, c.recorded)
	if err != nil {
		return nil, err
	}
	c.actions = append(c.actions, action)
	c.message = "Baked " + action.Name

	c.logger.Info("action baked", "name", action.Name, "start", action.FrameStart, "end", action.FrameEnd)
	return action, nil
}

// Actions returns every baked action.
func (c *Controller) Actions() []*record.Action {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*record.Action, len(c.actions))
	copy(out, c.actions)
	return out
}

// AutoMap replaces the mapping list with one derived from the rig's bones.
// The list is left untouched when nothing resolves.
func (c *Controller) AutoMap() (int, error) {
	bones := c.rig.BoneNames()
	if len(bones) == 0 {
		return 0, ErrNoRigBones
	}
	entries := mapping.AutoMap(bones)
	n := 0
	for _, e := range entries {
		if e.Active() {
			n++
		}
	}
	if n == 0 {
		return 0, ErrNoMappings
	}
	c.mappings.Replace(entries)
	c.logger.Info("auto-mapped rig", "rig", c.rig.Name(), "mapped", n, "rows", len(entries))
	return n, nil
}

// ZeroPose resets every mapped bone to its rest rotation.
func (c *Controller) ZeroPose() int {
	var bones []string
	for _, e := range c.mappings.Entries() {
		if e.Bone != "" {
			bones = append(bones, e.Bone)
		}
	}
	return c.rig.ZeroPose(bones)
}

// SaveMappings writes the mapping list to the maps directory under name.
func (c *Controller) SaveMappings(name string) (string, error) {
	return c.mapsDir().Save(name, c.mappings.Entries())
}

// LoadMappings replaces the mapping list with a saved one.
func (c *Controller) LoadMappings(name string) (int, error) {
	entries, err := c.mapsDir().Load(name)
	if err != nil {
		return 0, err
	}
	c.mappings.Replace(entries)
	return len(entries), nil
}

// SavedMappings lists the saved mapping names.
func (c *Controller) SavedMappings() ([]string, error) {
	return c.mapsDir().List()
}

func (c *Controller) mapsDir() *mapping.Dir {
	c.mu.Lock()
	dir := c.settings.MapsDir
	c.mu.Unlock()
	if dir == "" {
		dir = "mocap_maps"
	}
	return mapping.NewDir(dir)
}

// Status returns a snapshot of the capture state.
func (c *Controller) Status() protocol.StatusData {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

func (c *Controller) statusLocked() protocol.StatusData {
	st := protocol.StatusData{
		Capturing:      c.session != nil,
		Message:        c.message,
		RecordedFrames: c.recorded,
	}
	if rs, ok := c.frames.(rateSource); ok && c.session != nil {
		st.FPS = rs.FPS()
		st.LatencyMs = rs.LatencyMs()
	}
	if c.session != nil {
		s := c.session.Stats()
		st.Session = s.ID
		st.Recording = s.Recording
		st.Frames = s.Frames
		st.DroppedFrames = s.DroppedFrames
		st.TimeIndex = s.TimeIndex
		if s.Recording {
			st.RecordedFrames = s.RecordedFrames
		}
	}
	return st
}

func (c *Controller) publishStatus() {
	c.mu.Lock()
	st := c.statusLocked()
	p := c.publisher
	c.mu.Unlock()
	p.PublishStatus(st)
}
