// Package camera provides the webcam frame source for live capture and its
// runtime-configurable settings.
package camera

// Config holds webcam settings.
// These can be modified via the camera API while capture is stopped.
type Config struct {
	Index     int  `json:"index" yaml:"index"`         // OS device index
	Width     int  `json:"width" yaml:"width"`         // Requested frame width in pixels
	Height    int  `json:"height" yaml:"height"`       // Requested frame height in pixels
	Framerate int  `json:"framerate" yaml:"framerate"` // Requested device FPS
	Quality   int  `json:"quality" yaml:"quality"`     // JPEG quality 1-100
	Mirror    bool `json:"mirror" yaml:"mirror"`       // Flip horizontally (selfie view)
}

// Device limits accepted by Validate.
const (
	MaxIndex  = 10
	MaxWidth  = 3840
	MaxHeight = 2160
	MaxFPS    = 120
)

// DefaultConfig returns 640x480 at 30 FPS, which keeps detection latency low.
func DefaultConfig() Config {
	return Config{
		Index:     0,
		Width:     640,
		Height:    480,
		Framerate: 30,
		Quality:   80,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Index < 0 || c.Index > MaxIndex {
		errors = append(errors, "index must be between 0 and 10")
	}
	if c.Width < 160 || c.Width > MaxWidth {
		errors = append(errors, "width must be between 160 and 3840")
	}
	if c.Height < 120 || c.Height > MaxHeight {
		errors = append(errors, "height must be between 120 and 2160")
	}
	if c.Framerate < 1 || c.Framerate > MaxFPS {
		errors = append(errors, "framerate must be between 1 and 120")
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}

	return errors
}
