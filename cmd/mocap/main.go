// mocap streams webcam body tracking onto a rig and serves the dashboard
// used to map bones, record takes and bake actions.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/teslashibe/go-mocap/internal/config"
	mlog "github.com/teslashibe/go-mocap/internal/log"
	"github.com/teslashibe/go-mocap/pkg/camera"
	"github.com/teslashibe/go-mocap/pkg/capture"
	"github.com/teslashibe/go-mocap/pkg/debug"
	"github.com/teslashibe/go-mocap/pkg/perception"
	"github.com/teslashibe/go-mocap/pkg/skeleton"
	"github.com/teslashibe/go-mocap/pkg/web"
)

type options struct {
	settingsPath string
	port         string
	preset       string
	source       string
	mapping      string
	staticDir    string
	autoMap      bool
	autoStart    bool
}

func main() {
	opts := parseFlags()

	settings, err := loadSettings(opts)
	if err != nil {
		log.Fatalf("❌ Settings error: %v", err)
	}

	debug.Log("⚙️  Settings: %+v\n", settings)

	rig := skeleton.NewRig(settings.Rig.Name, settings.RigBones())
	fmt.Printf("🦴 Rig %q: %d bones\n", rig.Name(), len(rig.BoneNames()))

	webcam := camera.NewWebcam(settings.Camera)
	cameras := camera.NewManager(settings.Camera)

	var (
		landmarks capture.LandmarkSource
		inbox     *perception.Inbox
		sidecar   *perception.Client
	)
	switch settings.Source.Mode {
	case capture.SourceInbox:
		inbox = perception.NewInbox()
		landmarks = inbox
		fmt.Println("📥 Waiting for landmark producers on /ws/landmarks")
	default:
		sidecar = perception.NewClient(settings.Source.URL)
		defer sidecar.Close()
		landmarks = sidecar
		fmt.Printf("🧠 Perception sidecar: %s\n", settings.Source.URL)
	}

	ctrl := capture.NewController(settings, rig, nil, webcam, landmarks)

	cameras.OnChange(func(cfg camera.Config) error {
		s := ctrl.Settings()
		s.Camera = cfg
		if err := ctrl.UpdateSettings(s); err != nil {
			return err
		}
		webcam.Reconfigure(cfg)
		return nil
	})

	if opts.mapping != "" {
		n, err := ctrl.LoadMappings(opts.mapping)
		if err != nil {
			log.Fatalf("❌ Mapping error: %v", err)
		}
		fmt.Printf("🗺️  Loaded mapping %q (%d rows)\n", opts.mapping, n)
	} else if opts.autoMap {
		n, err := ctrl.AutoMap()
		if err != nil {
			fmt.Printf("⚠️  Auto-map: %v\n", err)
		} else {
			fmt.Printf("🗺️  Auto-mapped %d bones\n", n)
		}
	}

	for i, e := range ctrl.Mappings().Entries() {
		debug.Log("   %2d %-16s %-16s -> %q enabled=%v\n", i, e.RigBone, e.Landmark, e.Bone, e.Enabled)
	}

	server := web.NewServer(opts.port, ctrl, web.Options{
		SettingsPath: opts.settingsPath,
		Camera:       cameras,
		Inbox:        inbox,
		Sidecar:      sidecar,
		StaticDir:    opts.staticDir,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start(ctx) }()

	if opts.autoStart {
		if err := ctrl.Start(ctx); err != nil {
			fmt.Printf("⚠️  Capture not started: %v\n", err)
		} else {
			fmt.Println("🎬 Capturing...")
		}
	}

	select {
	case <-ctx.Done():
		fmt.Println("\n👋 Shutting down...")
	case err := <-errCh:
		if err != nil {
			fmt.Printf("⚠️  Web server error: %v\n", err)
		}
	}

	if err := ctrl.Stop(); err != nil {
		mlog.Warn("camera close failed", "error", err)
	}
	if n := len(ctrl.Actions()); n > 0 {
		fmt.Printf("🎞️  %d action(s) baked this session\n", n)
	}
}

func parseFlags() options {
	var opts options

	debugFlag := flag.Bool("debug", false, "Enable verbose debug logging")
	debugFrames := flag.Bool("debug-frames", false, "Log every frame (very verbose)")
	level := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.StringVar(&opts.settingsPath, "settings", config.SettingsPath(), "Settings file (YAML)")
	flag.StringVar(&opts.port, "port", config.Port(), "Dashboard port")
	flag.StringVar(&opts.preset, "preset", "", "Filter preset: default, smooth, responsive")
	flag.StringVar(&opts.source, "source", "", "Landmark source: sidecar or inbox (overrides settings)")
	flag.StringVar(&opts.mapping, "mapping", "", "Saved mapping to load at startup")
	flag.StringVar(&opts.staticDir, "static", "./web", "Dashboard static files")
	flag.BoolVar(&opts.autoMap, "automap", true, "Auto-map the rig at startup")
	flag.BoolVar(&opts.autoStart, "start", false, "Start capturing immediately")
	flag.Parse()

	debug.Enabled = *debugFlag
	debug.Frames = *debugFrames
	if *debugFlag {
		*level = "debug"
	}
	mlog.Init(*level)
	return opts
}

// loadSettings layers flags and environment over the settings file.
func loadSettings(opts options) (capture.Settings, error) {
	settings, err := capture.LoadSettingsOrDefault(opts.settingsPath)
	if err != nil {
		return settings, err
	}

	if opts.preset != "" {
		p, ok := capture.Preset(opts.preset)
		if !ok {
			return settings, fmt.Errorf("unknown preset %q", opts.preset)
		}
		settings.Filter = p.Filter
		settings.TargetFPS = p.TargetFPS
		settings.Camera.Framerate = p.Camera.Framerate
	}
	if opts.source != "" {
		settings.Source.Mode = opts.source
	}
	if url := os.Getenv("MOCAP_LANDMARK_URL"); url != "" || settings.Source.URL == "" {
		settings.Source.URL = config.LandmarkURL()
	}
	settings.Camera.Index = config.CameraIndex(settings.Camera.Index)
	if settings.MapsDir == "" {
		settings.MapsDir = config.MapsDir(filepath.Dir(opts.settingsPath))
	}

	if errs := settings.Validate(); len(errs) > 0 {
		return settings, fmt.Errorf("%w: %v", capture.ErrInvalidSettings, errs)
	}
	return settings, nil
}
