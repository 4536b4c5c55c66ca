package camera

import "sort"

// Preset names for common configurations
const (
	PresetDefault    = "default"
	PresetLowLatency = "low-latency"
	Preset720p       = "720p"
	Preset1080p      = "1080p"
	PresetSelfie     = "selfie"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	lowLatency := DefaultConfig()
	lowLatency.Width, lowLatency.Height, lowLatency.Framerate = 320, 240, 60

	hd := DefaultConfig()
	hd.Width, hd.Height = 1280, 720

	fullHD := DefaultConfig()
	fullHD.Width, fullHD.Height = 1920, 1080

	selfie := DefaultConfig()
	selfie.Mirror = true

	return map[string]Config{
		PresetDefault:    DefaultConfig(),
		PresetLowLatency: lowLatency,
		Preset720p:       hd,
		Preset1080p:      fullHD,
		PresetSelfie:     selfie,
	}
}

// GetPreset returns a preset by name, or nil if not found.
func GetPreset(name string) *Config {
	cfg, ok := Presets()[name]
	if !ok {
		return nil
	}
	return &cfg
}

// PresetNames returns the available preset names, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(Presets()))
	for name := range Presets() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
