// Package config provides configuration helpers for go-mocap commands.
package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// Default service configuration.
const (
	DefaultPort         = "8090"
	DefaultSettingsFile = "mocap.yaml"
	DefaultLandmarkURL  = "ws://localhost:8765/pose"
	DefaultMapsDir      = "mocap_maps"
)

// Port returns the dashboard port from MOCAP_PORT or the default.
func Port() string {
	return envOr("MOCAP_PORT", DefaultPort)
}

// SettingsPath returns the settings file from MOCAP_SETTINGS.
// Falls back to mocap.yaml in the working directory.
func SettingsPath() string {
	return envOr("MOCAP_SETTINGS", DefaultSettingsFile)
}

// LandmarkURL returns the perception sidecar websocket URL.
func LandmarkURL() string {
	return envOr("MOCAP_LANDMARK_URL", DefaultLandmarkURL)
}

// MapsDir returns the directory mapping files are saved to.
// A relative MOCAP_MAPS_DIR is resolved against base.
func MapsDir(base string) string {
	dir := envOr("MOCAP_MAPS_DIR", DefaultMapsDir)
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(base, dir)
}

// CameraIndex returns MOCAP_CAMERA_INDEX, or def when unset or malformed.
func CameraIndex(def int) int {
	v := os.Getenv("MOCAP_CAMERA_INDEX")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
