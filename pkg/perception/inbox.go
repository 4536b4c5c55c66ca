package perception

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-mocap/internal/log"
	"github.com/teslashibe/go-mocap/pkg/camera"
	"github.com/teslashibe/go-mocap/pkg/landmark"
	"github.com/teslashibe/go-mocap/pkg/protocol"
)

// Inbox accepts poses pushed by a detector that owns its own camera.
// Detect hands each pushed pose to the capture loop at most once.
type Inbox struct {
	mu        sync.Mutex
	latest    []landmark.Landmark
	fresh     bool
	producers int

	received atomic.Uint64
	dropped  atomic.Uint64
}

// NewInbox creates an empty inbox.
func NewInbox() *Inbox {
	return &Inbox{}
}

// RegisterRoutes mounts the push endpoint at /ws/landmarks.
func (in *Inbox) RegisterRoutes(app *fiber.App) {
	app.Use("/ws/landmarks", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/landmarks", websocket.New(in.handleProducer))
}

func (in *Inbox) handleProducer(c *websocket.Conn) {
	in.mu.Lock()
	in.producers++
	in.mu.Unlock()
	log.Info("landmark producer connected", "remote", c.RemoteAddr().String())

	defer func() {
		in.mu.Lock()
		in.producers--
		in.mu.Unlock()
		log.Info("landmark producer disconnected", "remote", c.RemoteAddr().String())
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			return
		}

		msg, err := protocol.ParseMessage(data)
		if err != nil {
			log.Debug("ignoring malformed producer message", "error", err)
			continue
		}

		switch msg.Type {
		case protocol.TypePose:
			pose, err := msg.GetPoseData()
			if err != nil {
				continue
			}
			in.Push(FromProtocol(pose.Landmarks))

		case protocol.TypePing:
			var ping protocol.PingData
			msg.ParseData(&ping)
			pong, _ := protocol.NewPongMessage(ping.ID, msg.Timestamp, time.Now().UnixMilli())
			if b, err := pong.Bytes(); err == nil {
				c.WriteMessage(websocket.TextMessage, b)
			}
		}
	}
}

// Push stores a pose as the newest one. An unread previous pose is counted as dropped.
func (in *Inbox) Push(lms []landmark.Landmark) {
	in.mu.Lock()
	if in.fresh {
		in.dropped.Add(1)
	}
	in.latest = lms
	in.fresh = true
	in.mu.Unlock()
	in.received.Add(1)
}

// Ready reports ErrNoProducer until a detector has connected.
func (in *Inbox) Ready() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.producers == 0 {
		return ErrNoProducer
	}
	return nil
}

// Detect returns the newest unread pose, or nil when nothing new arrived.
// The camera frame is unused; the producer has its own camera.
func (in *Inbox) Detect(_ context.Context, _ camera.Frame) ([]landmark.Landmark, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.fresh {
		return nil, nil
	}
	in.fresh = false
	return in.latest, nil
}

// Producers returns the number of connected detectors.
func (in *Inbox) Producers() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.producers
}

// InboxStats contains push counters.
type InboxStats struct {
	Producers int    `json:"producers"`
	Received  uint64 `json:"received"`
	Dropped   uint64 `json:"dropped"`
}

// Stats returns push counters.
func (in *Inbox) Stats() InboxStats {
	return InboxStats{
		Producers: in.Producers(),
		Received:  in.received.Load(),
		Dropped:   in.dropped.Load(),
	}
}
