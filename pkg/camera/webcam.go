package camera

import (
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-mocap/internal/log"
)

// Webcam reads frames from a local capture device through OpenCV.
type Webcam struct {
	cfg Config

	mu    sync.Mutex
	cap   *gocv.VideoCapture
	img   gocv.Mat
	seq   uint64
	stats Stats
}

// NewWebcam creates a webcam source; the device is opened by Open.
func NewWebcam(cfg Config) *Webcam {
	return &Webcam{cfg: cfg}
}

// Open opens the device and applies the requested resolution and rate.
func (w *Webcam) Open() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cap != nil {
		return nil
	}
	if errs := w.cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid camera config: %v", errs)
	}

	vc, err := gocv.OpenVideoCapture(w.cfg.Index)
	if err != nil {
		return fmt.Errorf("failed to open camera %d: %w", w.cfg.Index, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return fmt.Errorf("camera %d not available", w.cfg.Index)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(w.cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(w.cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(w.cfg.Framerate))

	w.cap = vc
	w.img = gocv.NewMat()
	w.stats.Reset()

	log.Info("camera opened", "index", w.cfg.Index, "width", w.cfg.Width, "height", w.cfg.Height)
	return nil
}

// Read grabs and encodes the next frame.
func (w *Webcam) Read() (Frame, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cap == nil {
		return Frame{}, ErrNotOpen
	}

	start := time.Now()
	if ok := w.cap.Read(&w.img); !ok || w.img.Empty() {
		return Frame{}, ErrReadFailed
	}

	img := w.img
	if w.cfg.Mirror {
		flipped := gocv.NewMat()
		defer flipped.Close()
		gocv.Flip(w.img, &flipped, 1)
		img = flipped
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{int(gocv.IMWriteJpegQuality), w.cfg.Quality})
	if err != nil {
		return Frame{}, fmt.Errorf("%w: encode: %v", ErrReadFailed, err)
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())

	now := time.Now()
	w.stats.Observe(now, now.Sub(start))
	w.seq++

	return Frame{
		ID:       w.seq,
		JPEG:     data,
		Width:    img.Cols(),
		Height:   img.Rows(),
		Captured: now,
	}, nil
}

// Reconfigure replaces the device settings. An open device keeps its
// settings until it is closed and opened again.
func (w *Webcam) Reconfigure(cfg Config) {
	w.mu.Lock()
	w.cfg = cfg
	w.mu.Unlock()
}

// FPS returns the measured capture rate.
func (w *Webcam) FPS() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats.FPS()
}

// LatencyMs returns the last read latency.
func (w *Webcam) LatencyMs() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats.LatencyMs()
}

// Close releases the device.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cap == nil {
		return nil
	}
	w.img.Close()
	err := w.cap.Close()
	w.cap = nil
	return err
}
