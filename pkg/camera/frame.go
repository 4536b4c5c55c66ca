package camera

import (
	"errors"
	"time"
)

// ErrReadFailed means the device returned no image for this frame.
var ErrReadFailed = errors.New("camera read failed")

// ErrNotOpen is returned when reading from a closed source.
var ErrNotOpen = errors.New("camera not open")

// Frame is one captured image, JPEG encoded.
type Frame struct {
	ID       uint64
	JPEG     []byte
	Width    int
	Height   int
	Captured time.Time
}

// statsWindow is the number of samples averaged for FPS and latency.
const statsWindow = 30

// Stats tracks capture rate and read latency over the last frames.
type Stats struct {
	intervals []time.Duration
	next      int
	latencies []time.Duration
	nextLat   int
	last      time.Time
}

// Observe records a frame captured at t whose read took latency.
func (s *Stats) Observe(t time.Time, latency time.Duration) {
	if !s.last.IsZero() {
		d := t.Sub(s.last)
		if len(s.intervals) < statsWindow {
			s.intervals = append(s.intervals, d)
		} else {
			s.intervals[s.next] = d
			s.next = (s.next + 1) % statsWindow
		}
	}
	s.last = t
	if len(s.latencies) < statsWindow {
		s.latencies = append(s.latencies, latency)
	} else {
		s.latencies[s.nextLat] = latency
		s.nextLat = (s.nextLat + 1) % statsWindow
	}
}

// FPS returns the average frame rate over the window, or 0 before two frames.
func (s *Stats) FPS() float64 {
	if len(s.intervals) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range s.intervals {
		total += d
	}
	avg := total / time.Duration(len(s.intervals))
	if avg <= 0 {
		return 0
	}
	return float64(time.Second) / float64(avg)
}

// LatencyMs returns the average read latency over the window in milliseconds.
func (s *Stats) LatencyMs() float64 {
	if len(s.latencies) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range s.latencies {
		total += d
	}
	return float64(total) / float64(len(s.latencies)) / float64(time.Millisecond)
}

// Reset clears the window.
func (s *Stats) Reset() {
	*s = Stats{}
}
