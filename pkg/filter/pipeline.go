package filter

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Config holds the tunable filter parameters shared by every bone.
type Config struct {
	Smoothing         float64 `json:"smoothing" yaml:"smoothing"`                     // 0 = raw, 1 = frozen
	MinConfidence     float64 `json:"min_confidence" yaml:"min_confidence"`           // gate threshold
	FootLockThreshold float64 `json:"foot_lock_threshold" yaml:"foot_lock_threshold"` // 0 disables
}

// DefaultConfig returns the defaults used by the capture settings.
func DefaultConfig() Config {
	return Config{
		Smoothing:     0.5,
		MinConfidence: 0.5,
	}
}

// Pipeline is the filter state for one bone.
// Positions and rotations each get their own gate and smoother;
// positions additionally pass through the foot lock when flagged as a foot.
type Pipeline struct {
	posGate   *Gate[r3.Vec]
	posSmooth *Smoother[r3.Vec]
	rotGate   *Gate[quat.Number]
	rotSmooth *Smoother[quat.Number]
	foot      *FootLock

	lastHeight float64
	hasHeight  bool
}

// NewPipeline creates fresh filter state from cfg.
func NewPipeline(cfg Config) *Pipeline {
	return &Pipeline{
		posGate:   NewGate[r3.Vec](cfg.MinConfidence),
		posSmooth: NewVectorSmoother(cfg.Smoothing),
		rotGate:   NewGate[quat.Number](cfg.MinConfidence),
		rotSmooth: NewRotationSmoother(cfg.Smoothing),
		foot:      NewFootLock(cfg.FootLockThreshold),
	}
}

// FilterPosition gates, smooths and (for feet) locks a position.
// Returns false while no confident sample has been seen.
func (p *Pipeline) FilterPosition(pos r3.Vec, confidence float64, isFoot bool) (r3.Vec, bool) {
	gated, ok := p.posGate.Filter(pos, confidence)
	if !ok {
		return r3.Vec{}, false
	}
	smoothed := p.posSmooth.Filter(gated)

	if !isFoot || !p.foot.Enabled() {
		return smoothed, true
	}

	var velocity float64
	if p.hasHeight {
		velocity = math.Abs(smoothed.Z - p.lastHeight)
	}
	p.lastHeight = smoothed.Z
	p.hasHeight = true

	return p.foot.Filter(smoothed, velocity), true
}

// FilterRotation gates and smooths a rotation.
// Returns false while no confident sample has been seen.
func (p *Pipeline) FilterRotation(q quat.Number, confidence float64) (quat.Number, bool) {
	gated, ok := p.rotGate.Filter(q, confidence)
	if !ok {
		return quat.Number{}, false
	}
	return p.rotSmooth.Filter(gated), true
}

// FootLocked reports whether the foot lock is engaged.
func (p *Pipeline) FootLocked() bool {
	return p.foot.Locked()
}

// Reset clears all filter history.
func (p *Pipeline) Reset() {
	p.posGate.Reset()
	p.posSmooth.Reset()
	p.rotGate.Reset()
	p.rotSmooth.Reset()
	p.foot.Reset()
	p.lastHeight = 0
	p.hasHeight = false
}
