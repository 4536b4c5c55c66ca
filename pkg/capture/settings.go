// Package capture runs live motion capture: it owns the settings, the mapping
// list and the frame loop that feeds camera frames through the detector and
// the retargeter onto the rig.
package capture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-mocap/pkg/camera"
	"github.com/teslashibe/go-mocap/pkg/filter"
	"github.com/teslashibe/go-mocap/pkg/retarget"
	"github.com/teslashibe/go-mocap/pkg/skeleton"
)

// Landmark source modes.
const (
	SourceSidecar = "sidecar" // we send frames, the detector answers
	SourceInbox   = "inbox"   // the detector pushes poses to /ws/landmarks
)

// SourceConfig selects where landmarks come from.
type SourceConfig struct {
	Mode string `json:"mode" yaml:"mode"`
	URL  string `json:"url,omitempty" yaml:"url,omitempty"` // sidecar websocket URL
}

// RigConfig describes the target skeleton.
type RigConfig struct {
	Name   string   `json:"name" yaml:"name"`
	Preset string   `json:"preset,omitempty" yaml:"preset,omitempty"` // "rigify" or "metarig"
	Bones  []string `json:"bones,omitempty" yaml:"bones,omitempty"`   // explicit list, overrides preset
}

// Settings holds every capture parameter.
type Settings struct {
	Camera camera.Config `json:"camera" yaml:"camera"`
	Source SourceConfig  `json:"source" yaml:"source"`
	Rig    RigConfig     `json:"rig" yaml:"rig"`
	Filter filter.Config `json:"filter" yaml:"filter"`

	TargetFPS      int     `json:"target_fps" yaml:"target_fps"`
	MotionScale    float64 `json:"motion_scale" yaml:"motion_scale"`
	ZOffset        float64 `json:"z_offset" yaml:"z_offset"`
	StartFrame     int     `json:"start_frame" yaml:"start_frame"`
	ShowCameraFeed bool    `json:"show_camera_feed" yaml:"show_camera_feed"`
	MapsDir        string  `json:"maps_dir,omitempty" yaml:"maps_dir,omitempty"`
}

// DefaultSettings returns balanced settings for a seated or standing performer.
func DefaultSettings() Settings {
	return Settings{
		Camera:         camera.DefaultConfig(),
		Source:         SourceConfig{Mode: SourceSidecar, URL: "ws://localhost:8765/pose"},
		Rig:            RigConfig{Name: "rig", Preset: "rigify"},
		Filter:         filter.DefaultConfig(),
		TargetFPS:      30,
		MotionScale:    1.0,
		ZOffset:        0,
		StartFrame:     1,
		ShowCameraFeed: true,
	}
}

// SmoothSettings favours stable output over responsiveness and plants feet.
func SmoothSettings() Settings {
	s := DefaultSettings()
	s.Filter.Smoothing = 0.8
	s.Filter.MinConfidence = 0.6
	s.Filter.FootLockThreshold = 0.05
	return s
}

// ResponsiveSettings favours low latency for fast motion.
func ResponsiveSettings() Settings {
	s := DefaultSettings()
	s.Filter.Smoothing = 0.2
	s.Filter.MinConfidence = 0.3
	s.TargetFPS = 60
	s.Camera.Framerate = 60
	return s
}

// Preset returns named settings.
func Preset(name string) (Settings, bool) {
	switch name {
	case "default", "":
		return DefaultSettings(), true
	case "smooth":
		return SmoothSettings(), true
	case "responsive":
		return ResponsiveSettings(), true
	}
	return Settings{}, false
}

// Validate checks if the settings are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (s *Settings) Validate() []string {
	errors := s.Camera.Validate()

	if s.TargetFPS < 1 || s.TargetFPS > 120 {
		errors = append(errors, "target_fps must be between 1 and 120")
	}
	if s.MotionScale < 0.01 || s.MotionScale > 10 {
		errors = append(errors, "motion_scale must be between 0.01 and 10")
	}
	if s.ZOffset < -5 || s.ZOffset > 5 {
		errors = append(errors, "z_offset must be between -5 and 5")
	}
	if s.Filter.Smoothing < 0 || s.Filter.Smoothing > 1 {
		errors = append(errors, "smoothing must be between 0 and 1")
	}
	if s.Filter.MinConfidence < 0 || s.Filter.MinConfidence > 1 {
		errors = append(errors, "min_confidence must be between 0 and 1")
	}
	if s.Filter.FootLockThreshold < 0 || s.Filter.FootLockThreshold > 0.5 {
		errors = append(errors, "foot_lock_threshold must be between 0 and 0.5")
	}
	switch s.Source.Mode {
	case SourceSidecar:
		if s.Source.URL == "" {
			errors = append(errors, "source.url is required in sidecar mode")
		}
	case SourceInbox:
	default:
		errors = append(errors, "source.mode must be sidecar or inbox")
	}
	if len(s.Rig.Bones) == 0 {
		if _, ok := skeleton.Preset(s.Rig.Preset); !ok {
			errors = append(errors, "rig needs bones or a known preset (rigify, metarig)")
		}
	}

	return errors
}

// RigBones returns the configured bone list.
func (s *Settings) RigBones() []string {
	if len(s.Rig.Bones) > 0 {
		return s.Rig.Bones
	}
	bones, _ := skeleton.Preset(s.Rig.Preset)
	return bones
}

// Options converts the settings into retarget session options.
func (s *Settings) Options() retarget.Options {
	return retarget.Options{
		MotionScale: s.MotionScale,
		ZOffset:     s.ZOffset,
		StartFrame:  s.StartFrame,
		Filter:      s.Filter,
	}
}

// LoadSettings reads YAML settings layered over DefaultSettings.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("failed to read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to parse settings: %w", err)
	}
	if errs := s.Validate(); len(errs) > 0 {
		return s, fmt.Errorf("%w: %v", ErrInvalidSettings, errs)
	}
	return s, nil
}

// LoadSettingsOrDefault is LoadSettings that treats a missing file as defaults.
func LoadSettingsOrDefault(path string) (Settings, error) {
	s, err := LoadSettings(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultSettings(), nil
	}
	return s, err
}

// Save writes the settings as YAML.
func (s *Settings) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
