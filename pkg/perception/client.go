package perception

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-mocap/internal/log"
	"github.com/teslashibe/go-mocap/pkg/camera"
	"github.com/teslashibe/go-mocap/pkg/landmark"
	"github.com/teslashibe/go-mocap/pkg/protocol"
)

// DefaultReplyTimeout bounds how long Detect waits for the sidecar's answer.
const DefaultReplyTimeout = 2 * time.Second

// Client sends camera frames to a detector sidecar and reads back poses,
// one request per frame. A broken connection is redialed on the next call.
type Client struct {
	url     string
	timeout time.Duration

	mu   sync.Mutex
	conn *websocket.Conn

	framesSent    atomic.Uint64
	posesReceived atomic.Uint64
}

// NewClient creates a client for the sidecar at url (ws:// or wss://).
func NewClient(url string) *Client {
	return &Client{url: url, timeout: DefaultReplyTimeout}
}

// SetTimeout changes the per-frame reply timeout.
func (c *Client) SetTimeout(d time.Duration) {
	c.mu.Lock()
	c.timeout = d
	c.mu.Unlock()
}

// Connect dials the sidecar.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dialLocked(ctx)
}

func (c *Client) dialLocked(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to perception sidecar: %w", err)
	}

	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
	})

	c.conn = conn
	log.Info("perception sidecar connected", "url", c.url)
	return nil
}

// Ready connects if needed and reports whether the sidecar is reachable.
func (c *Client) Ready() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return c.Connect(ctx)
}

// Detect sends frame and waits for the matching pose.
// It returns nil landmarks when the detector found no body.
func (c *Client) Detect(ctx context.Context, frame camera.Frame) ([]landmark.Landmark, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.dialLocked(ctx); err != nil {
		return nil, err
	}

	msg, err := protocol.NewFrameMessage(frame.Width, frame.Height, frame.JPEG, frame.ID)
	if err != nil {
		return nil, err
	}
	data, err := msg.Bytes()
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.dropLocked()
		return nil, fmt.Errorf("send frame: %w", err)
	}
	c.framesSent.Add(1)

	c.conn.SetReadDeadline(deadline)
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.dropLocked()
			return nil, fmt.Errorf("read pose: %w", err)
		}

		reply, err := protocol.ParseMessage(raw)
		if err != nil {
			log.Debug("ignoring malformed sidecar message", "error", err)
			continue
		}

		switch reply.Type {
		case protocol.TypePose:
			pose, err := reply.GetPoseData()
			if err != nil {
				return nil, fmt.Errorf("decode pose: %w", err)
			}
			// Late answer for an earlier frame
			if pose.FrameID != 0 && pose.FrameID < frame.ID {
				continue
			}
			c.posesReceived.Add(1)
			return FromProtocol(pose.Landmarks), nil

		case protocol.TypePing:
			var ping protocol.PingData
			reply.ParseData(&ping)
			pong, _ := protocol.NewPongMessage(ping.ID, reply.Timestamp, time.Now().UnixMilli())
			if b, err := pong.Bytes(); err == nil {
				c.conn.WriteMessage(websocket.TextMessage, b)
			}
		}
	}
}

func (c *Client) dropLocked() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// Close disconnects from the sidecar.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	err := c.conn.Close()
	c.conn = nil
	return err
}

// ClientStats contains sidecar traffic counters.
type ClientStats struct {
	FramesSent    uint64 `json:"frames_sent"`
	PosesReceived uint64 `json:"poses_received"`
}

// Stats returns traffic counters.
func (c *Client) Stats() ClientStats {
	return ClientStats{
		FramesSent:    c.framesSent.Load(),
		PosesReceived: c.posesReceived.Load(),
	}
}
