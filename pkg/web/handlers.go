package web

import (
	"errors"
	"os"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-mocap/pkg/camera"
	"github.com/teslashibe/go-mocap/pkg/capture"
	"github.com/teslashibe/go-mocap/pkg/landmark"
	"github.com/teslashibe/go-mocap/pkg/mapping"
	"github.com/teslashibe/go-mocap/pkg/record"
)

// statusFor maps controller errors onto HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, capture.ErrInvalidSettings):
		return fiber.StatusBadRequest
	case errors.Is(err, mapping.ErrIndexOutOfRange), errors.Is(err, os.ErrNotExist):
		return fiber.StatusNotFound
	case errors.Is(err, capture.ErrAlreadyCapturing),
		errors.Is(err, capture.ErrNotCapturing),
		errors.Is(err, capture.ErrAlreadyRecording),
		errors.Is(err, capture.ErrNotRecording),
		errors.Is(err, capture.ErrStillRecording),
		errors.Is(err, record.ErrNothingRecorded):
		return fiber.StatusConflict
	case errors.Is(err, capture.ErrNoMappings), errors.Is(err, capture.ErrNoRigBones):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, capture.ErrSourceUnavailable):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.ctrl.Status())
}

// handleStreams reports hub counters plus whichever landmark source is wired.
func (s *Server) handleStreams(c *fiber.Ctx) error {
	out := fiber.Map{
		"status": s.statusHub.Stats(),
		"bones":  s.bonesHub.Stats(),
		"camera": s.cameraHub.Stats(),
	}
	if s.opts.Sidecar != nil {
		out["sidecar"] = s.opts.Sidecar.Stats()
	}
	if s.opts.Inbox != nil {
		out["inbox"] = s.opts.Inbox.Stats()
	}
	return c.JSON(out)
}

// Settings

func (s *Server) handleGetSettings(c *fiber.Ctx) error {
	return c.JSON(s.ctrl.Settings())
}

// handlePutSettings replaces the settings. Changes apply on the next capture start.
func (s *Server) handlePutSettings(c *fiber.Ctx) error {
	settings := s.ctrl.Settings()
	if err := c.BodyParser(&settings); err != nil {
		return badRequest(c, "invalid JSON: "+err.Error())
	}
	if err := s.ctrl.UpdateSettings(settings); err != nil {
		return fail(c, err)
	}
	if s.opts.SettingsPath != "" {
		if err := settings.Save(s.opts.SettingsPath); err != nil {
			return fail(c, err)
		}
	}
	s.logger.Info("settings updated", "persisted", s.opts.SettingsPath != "")
	return c.JSON(settings)
}

// Camera

func noCamera(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "camera settings not available"})
}

func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	m := s.opts.Camera
	if m == nil {
		return noCamera(c)
	}
	return c.JSON(m.Config())
}

func (s *Server) handlePutCamera(c *fiber.Ctx) error {
	m := s.opts.Camera
	if m == nil {
		return noCamera(c)
	}
	cfg := m.Config()
	if err := c.BodyParser(&cfg); err != nil {
		return badRequest(c, "invalid JSON: "+err.Error())
	}
	if err := m.Set(cfg); err != nil {
		return badRequest(c, err.Error())
	}
	return c.JSON(m.Config())
}

func (s *Server) handleCameraPresets(c *fiber.Ctx) error {
	return c.JSON(camera.Presets())
}

func (s *Server) handleApplyCameraPreset(c *fiber.Ctx) error {
	m := s.opts.Camera
	if m == nil {
		return noCamera(c)
	}
	if err := m.ApplyPreset(c.Params("name")); err != nil {
		return badRequest(c, err.Error())
	}
	return c.JSON(m.Config())
}

// Mappings

type mappingsResponse struct {
	Entries []mapping.Entry `json:"entries"`
	Active  int             `json:"active"`
	Enabled int             `json:"enabled"`
}

func (s *Server) mappings(c *fiber.Ctx) error {
	list := s.ctrl.Mappings()
	entries := list.Entries()
	if entries == nil {
		entries = []mapping.Entry{}
	}
	return c.JSON(mappingsResponse{
		Entries: entries,
		Active:  list.Active(),
		Enabled: list.EnabledCount(),
	})
}

func (s *Server) handleGetMappings(c *fiber.Ctx) error {
	return s.mappings(c)
}

// labelled fills the display label from the landmark when the client left it out.
func labelled(e mapping.Entry) mapping.Entry {
	if e.RigBone == "" {
		e.RigBone = mapping.LabelFor(e.Landmark, e.Bone)
	}
	return e
}

func (s *Server) handlePutMappings(c *fiber.Ctx) error {
	var entries []mapping.Entry
	if err := c.BodyParser(&entries); err != nil {
		return badRequest(c, "invalid JSON: "+err.Error())
	}
	for i, e := range entries {
		if e.Landmark != "" && !landmark.Known(e.Landmark) {
			return badRequest(c, "unknown landmark "+strconv.Quote(e.Landmark))
		}
		entries[i] = labelled(e)
	}
	s.ctrl.Mappings().Replace(entries)
	return s.mappings(c)
}

func (s *Server) handleAddMapping(c *fiber.Ctx) error {
	e := mapping.Entry{Enabled: true}
	if err := c.BodyParser(&e); err != nil {
		return badRequest(c, "invalid JSON: "+err.Error())
	}
	if _, err := s.ctrl.Mappings().Add(labelled(e)); err != nil {
		return badRequest(c, err.Error())
	}
	return s.mappings(c)
}

func (s *Server) handleUpdateMapping(c *fiber.Ctx) error {
	i, err := c.ParamsInt("index")
	if err != nil {
		return badRequest(c, "index must be an integer")
	}
	var e mapping.Entry
	if err := c.BodyParser(&e); err != nil {
		return badRequest(c, "invalid JSON: "+err.Error())
	}
	if err := s.ctrl.Mappings().Update(i, labelled(e)); err != nil {
		if errors.Is(err, mapping.ErrIndexOutOfRange) {
			return fail(c, err)
		}
		return badRequest(c, err.Error())
	}
	return s.mappings(c)
}

func (s *Server) handleRemoveMapping(c *fiber.Ctx) error {
	i, err := c.ParamsInt("index")
	if err != nil {
		return badRequest(c, "index must be an integer")
	}
	if err := s.ctrl.Mappings().Remove(i); err != nil {
		return fail(c, err)
	}
	return s.mappings(c)
}

func (s *Server) handleClearMappings(c *fiber.Ctx) error {
	s.ctrl.Mappings().Clear()
	return s.mappings(c)
}

func (s *Server) handleAutoMap(c *fiber.Ctx) error {
	if _, err := s.ctrl.AutoMap(); err != nil {
		return fail(c, err)
	}
	return s.mappings(c)
}

// handleMirrorMappings copies one side's rows onto the other side.
func (s *Server) handleMirrorMappings(c *fiber.Ctx) error {
	if _, err := s.ctrl.Mappings().Mirror(c.Params("side")); err != nil {
		return badRequest(c, err.Error())
	}
	return s.mappings(c)
}

func (s *Server) handleSavedMappings(c *fiber.Ctx) error {
	names, err := s.ctrl.SavedMappings()
	if err != nil {
		return fail(c, err)
	}
	if names == nil {
		names = []string{}
	}
	return c.JSON(fiber.Map{"maps": names})
}

func (s *Server) handleSaveMappings(c *fiber.Ctx) error {
	path, err := s.ctrl.SaveMappings(c.Params("name"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"path": path})
}

func (s *Server) handleLoadMappings(c *fiber.Ctx) error {
	if _, err := s.ctrl.LoadMappings(c.Params("name")); err != nil {
		return fail(c, err)
	}
	return s.mappings(c)
}

// Capture and recording

func (s *Server) handleStartCapture(c *fiber.Ctx) error {
	if err := s.ctrl.Start(s.baseContext()); err != nil {
		s.PublishStatus(s.ctrl.Status())
		return fail(c, err)
	}
	st := s.ctrl.Status()
	s.PublishStatus(st)
	return c.JSON(st)
}

func (s *Server) handleStopCapture(c *fiber.Ctx) error {
	if err := s.ctrl.Stop(); err != nil {
		return fail(c, err)
	}
	return c.JSON(s.ctrl.Status())
}

func (s *Server) handleStartRecording(c *fiber.Ctx) error {
	start, err := s.ctrl.StartRecording()
	if err != nil {
		return fail(c, err)
	}
	s.PublishStatus(s.ctrl.Status())
	return c.JSON(fiber.Map{"start_frame": start})
}

func (s *Server) handleStopRecording(c *fiber.Ctx) error {
	n, err := s.ctrl.StopRecording()
	if err != nil {
		return fail(c, err)
	}
	s.PublishStatus(s.ctrl.Status())
	return c.JSON(fiber.Map{"recorded_frames": n})
}

type bakeRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleBake(c *fiber.Ctx) error {
	var req bakeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON: "+err.Error())
		}
	}
	action, err := s.ctrl.Bake(req.Name)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(action)
}

type actionSummary struct {
	Name       string `json:"name"`
	TakeID     string `json:"take_id"`
	FrameStart int    `json:"frame_start"`
	FrameEnd   int    `json:"frame_end"`
	Bones      int    `json:"bones"`
}

func (s *Server) handleActions(c *fiber.Ctx) error {
	actions := s.ctrl.Actions()
	out := make([]actionSummary, 0, len(actions))
	for _, a := range actions {
		out = append(out, actionSummary{
			Name:       a.Name,
			TakeID:     a.TakeID,
			FrameStart: a.FrameStart,
			FrameEnd:   a.FrameEnd,
			Bones:      len(a.Tracks),
		})
	}
	return c.JSON(out)
}

// Rig

type boneRotation struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (s *Server) handleRig(c *fiber.Ctx) error {
	rig := s.ctrl.Rig()
	pose := make(map[string]boneRotation)
	for bone, q := range rig.Pose() {
		pose[bone] = boneRotation{W: q.Real, X: q.Imag, Y: q.Jmag, Z: q.Kmag}
	}
	return c.JSON(fiber.Map{
		"name":  rig.Name(),
		"bones": rig.BoneNames(),
		"pose":  pose,
	})
}

func (s *Server) handleZeroPose(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"reset": s.ctrl.ZeroPose()})
}
