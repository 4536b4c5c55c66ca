// Package web serves the mocap dashboard: REST controls for capture,
// recording and mappings, plus websocket streams of status, bones and
// camera frames.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-mocap/internal/log"
	"github.com/teslashibe/go-mocap/pkg/camera"
	"github.com/teslashibe/go-mocap/pkg/capture"
	"github.com/teslashibe/go-mocap/pkg/hub"
	"github.com/teslashibe/go-mocap/pkg/perception"
	"github.com/teslashibe/go-mocap/pkg/protocol"
)

// Options configures optional server features.
type Options struct {
	// SettingsPath, when set, is where PUT /api/settings persists settings.
	SettingsPath string
	// Camera edits camera settings; nil disables the camera routes.
	Camera *camera.Manager
	// Inbox mounts /ws/landmarks for pushed landmark streams.
	Inbox *perception.Inbox
	// Sidecar is the detector client whose counters /api/streams reports.
	Sidecar *perception.Client
	// StaticDir serves the dashboard page when set.
	StaticDir string
}

// Server is the dashboard server. It implements capture.Publisher.
type Server struct {
	app    *fiber.App
	port   string
	ctrl   *capture.Controller
	opts   Options
	logger *slog.Logger

	statusHub *hub.Hub
	bonesHub  *hub.Hub
	cameraHub *hub.Hub

	ctxMu sync.RWMutex
	ctx   context.Context
}

// NewServer builds the routes for ctrl and registers the server as its publisher.
func NewServer(port string, ctrl *capture.Controller, opts Options) *Server {
	s := &Server{
		port:      port,
		ctrl:      ctrl,
		opts:      opts,
		logger:    log.Component("web"),
		statusHub: hub.New("status", hub.WithRetain()),
		bonesHub:  hub.New("bones", hub.WithRetain()),
		cameraHub: hub.New("camera", hub.WithQueue(8)),
		ctx:       context.Background(),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Mocap Dashboard",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())
	if opts.StaticDir != "" {
		app.Static("/", opts.StaticDir)
	}

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/streams", s.handleStreams)

	api.Get("/settings", s.handleGetSettings)
	api.Put("/settings", s.handlePutSettings)

	api.Get("/camera", s.handleGetCamera)
	api.Put("/camera", s.handlePutCamera)
	api.Get("/camera/presets", s.handleCameraPresets)
	api.Post("/camera/presets/:name", s.handleApplyCameraPreset)

	api.Get("/mappings", s.handleGetMappings)
	api.Put("/mappings", s.handlePutMappings)
	api.Post("/mappings", s.handleAddMapping)
	api.Put("/mappings/:index", s.handleUpdateMapping)
	api.Delete("/mappings/:index", s.handleRemoveMapping)
	api.Delete("/mappings", s.handleClearMappings)
	api.Post("/mappings/autofill", s.handleAutoMap)
	api.Post("/mappings/mirror/:side", s.handleMirrorMappings)
	api.Get("/mappings/saved", s.handleSavedMappings)
	api.Post("/mappings/saved/:name", s.handleSaveMappings)
	api.Post("/mappings/saved/:name/load", s.handleLoadMappings)

	api.Post("/capture/start", s.handleStartCapture)
	api.Post("/capture/stop", s.handleStopCapture)
	api.Post("/record/start", s.handleStartRecording)
	api.Post("/record/stop", s.handleStopRecording)
	api.Post("/record/bake", s.handleBake)
	api.Get("/actions", s.handleActions)

	api.Get("/rig", s.handleRig)
	api.Post("/pose/zero", s.handleZeroPose)

	if opts.Inbox != nil {
		opts.Inbox.RegisterRoutes(app)
	}

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.statusHub.Serve))
	app.Get("/ws/bones", websocket.New(s.bonesHub.Serve))
	app.Get("/ws/camera", websocket.New(s.cameraHub.Serve))

	s.app = app
	ctrl.SetPublisher(s)
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the hubs and serves until ctx is cancelled or Listen fails.
// Captures started over the API stop with ctx.
func (s *Server) Start(ctx context.Context) error {
	s.ctxMu.Lock()
	s.ctx = ctx
	s.ctxMu.Unlock()

	go s.statusHub.Run(ctx)
	go s.bonesHub.Run(ctx)
	go s.cameraHub.Run(ctx)
	s.statusHub.PublishJSON(s.statusMessage(s.ctrl.Status()))

	go func() {
		<-ctx.Done()
		s.app.Shutdown()
	}()

	fmt.Printf("🌐 Dashboard: http://localhost:%s\n", s.port)
	return s.app.Listen(":" + s.port)
}

func (s *Server) baseContext() context.Context {
	s.ctxMu.RLock()
	defer s.ctxMu.RUnlock()
	return s.ctx
}

// Shutdown stops the HTTP listener.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// PublishBones streams one frame of bone rotations.
func (s *Server) PublishBones(data protocol.BonesData) {
	msg, err := protocol.NewBonesMessage(data)
	if err != nil {
		return
	}
	s.publish(s.bonesHub, msg)
}

// PublishStatus streams a status snapshot.
func (s *Server) PublishStatus(status protocol.StatusData) {
	s.statusHub.PublishJSON(s.statusMessage(status))
}

// PublishCamera streams a JPEG frame as a binary message.
func (s *Server) PublishCamera(frame camera.Frame) {
	if len(frame.JPEG) == 0 || s.cameraHub.Subscribers() == 0 {
		return
	}
	s.cameraHub.PublishBinary(frame.JPEG)
}

func (s *Server) statusMessage(status protocol.StatusData) *protocol.Message {
	msg, _ := protocol.NewStatusMessage(status)
	return msg
}

func (s *Server) publish(h *hub.Hub, msg *protocol.Message) {
	data, err := msg.Bytes()
	if err != nil {
		s.logger.Warn("encode failed", "type", msg.Type, "error", err)
		return
	}
	h.Publish(hub.TextMessage(data))
}
