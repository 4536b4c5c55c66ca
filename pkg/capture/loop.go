package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/teslashibe/go-mocap/pkg/debug"
	"github.com/teslashibe/go-mocap/pkg/protocol"
	"github.com/teslashibe/go-mocap/pkg/retarget"
)

// statusEvery is how many frames pass between status broadcasts.
const statusEvery = 15

// run paces steps at the target rate. Steps never overlap: a slow step
// makes the ticker drop ticks instead of queueing them.
func (c *Controller) run(ctx context.Context, s *retarget.Session, settings Settings, done chan struct{}) {
	defer close(done)

	interval := time.Second / time.Duration(settings.TargetFPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for n := 0; ; n++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.step(ctx, s, settings)
			if n%statusEvery == 0 {
				c.publishStatus()
			}
		}
	}
}

// step runs one frame: read, detect, retarget, publish.
func (c *Controller) step(ctx context.Context, s *retarget.Session, settings Settings) {
	c.mu.Lock()
	p := c.publisher
	c.mu.Unlock()

	frame, err := c.frames.Read()
	if err != nil {
		s.MarkDropped()
		debug.FrameLog("📷 frame dropped: %v\n", err)
		return
	}
	if settings.ShowCameraFeed {
		p.PublishCamera(frame)
	}

	lms, err := c.landmarks.Detect(ctx, frame)
	if err != nil {
		s.MarkDropped()
		if ctx.Err() == nil {
			c.logger.Debug("detection failed", "frame", frame.ID, "error", err)
		}
		return
	}
	if lms == nil {
		s.MarkDropped()
		debug.FrameLog("👤 no body in frame %d\n", frame.ID)
		return
	}

	res := s.Step(lms)
	p.PublishBones(bonesData(s.ID(), res))

	if rs, ok := c.frames.(rateSource); ok {
		c.mu.Lock()
		if c.session == s && !s.Recording() {
			c.message = fmt.Sprintf("Tracking | FPS: %.1f | Latency: %.1f ms", rs.FPS(), rs.LatencyMs())
		}
		c.mu.Unlock()
	}
}

// bonesData converts a step result for the wire.
func bonesData(session string, res retarget.Result) protocol.BonesData {
	out := protocol.BonesData{
		Session:   session,
		Frame:     res.Frame,
		Recording: res.Recorded,
		Bones:     make([]protocol.BoneData, 0, len(res.Applied)),
	}
	for _, b := range res.Applied {
		out.Bones = append(out.Bones, protocol.BoneData{
			Bone: b.Bone,
			W:    b.Rotation.Real,
			X:    b.Rotation.Imag,
			Y:    b.Rotation.Jmag,
			Z:    b.Rotation.Kmag,
		})
	}
	for _, f := range res.Feet {
		out.Feet = append(out.Feet, protocol.FootData{
			Bone:   f.Bone,
			X:      f.Position.X,
			Y:      f.Position.Y,
			Z:      f.Position.Z,
			Locked: f.Locked,
		})
	}
	return out
}
