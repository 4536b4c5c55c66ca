// Package protocol defines the WebSocket message types exchanged with the
// perception sidecar and dashboard clients.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// MessageType names the payload carried in Data.
type MessageType string

const (
	// Capture → perception
	TypeFrame MessageType = "frame" // Camera frame to run detection on

	// Perception → capture
	TypePose MessageType = "pose" // Detected body landmarks

	// Capture → dashboard
	TypeBones  MessageType = "bones"  // Retargeted bone rotations
	TypeStatus MessageType = "status" // Capture status

	// Bidirectional
	TypePing MessageType = "ping"
	TypePong MessageType = "pong"
)

// Message is the envelope every websocket payload travels in.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds at creation
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage wraps data (may be nil) in an envelope stamped with the current time.
func NewMessage(t MessageType, data any) (*Message, error) {
	msg := &Message{Type: t, Timestamp: time.Now().UnixMilli()}
	if data == nil {
		return msg, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", t, err)
	}
	msg.Data = raw
	return msg, nil
}

// ParseData decodes the payload into v. A message without data leaves v untouched.
func (m *Message) ParseData(v any) error {
	if len(m.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", m.Type, err)
	}
	return nil
}

// Bytes encodes the envelope.
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage decodes an envelope. The payload stays raw until ParseData.
func ParseMessage(data []byte) (*Message, error) {
	msg := new(Message)
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}
	if msg.Type == "" {
		return nil, errors.New("invalid message: missing type")
	}
	return msg, nil
}

// FrameData contains a camera frame
type FrameData struct {
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Format  string `json:"format"` // "jpeg"
	Data    string `json:"data"`   // base64 encoded
	FrameID uint64 `json:"frame_id,omitempty"`
}

// LandmarkData is one detected point in normalized image space
type LandmarkData struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// PoseData is one frame of detector output. Landmarks is empty when no body was found.
type PoseData struct {
	FrameID   uint64         `json:"frame_id,omitempty"`
	Landmarks []LandmarkData `json:"landmarks"`
}

// BoneData is one bone's rotation as a unit quaternion
type BoneData struct {
	Bone string  `json:"bone"`
	W    float64 `json:"w"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Z    float64 `json:"z"`
}

// FootData is a foot landmark position in target space
type FootData struct {
	Bone   string  `json:"bone"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
	Locked bool    `json:"locked"`
}

// BonesData is the per-frame retarget output
type BonesData struct {
	Session   string     `json:"session"`
	Frame     int        `json:"frame"`
	Recording bool       `json:"recording"`
	Bones     []BoneData `json:"bones"`
	Feet      []FootData `json:"feet,omitempty"`
}

// StatusData reports capture state
type StatusData struct {
	Capturing      bool    `json:"capturing"`
	Recording      bool    `json:"recording"`
	Message        string  `json:"message"`
	Session        string  `json:"session,omitempty"`
	FPS            float64 `json:"fps"`
	LatencyMs      float64 `json:"latency_ms"`
	Frames         int     `json:"frames"`
	DroppedFrames  int     `json:"dropped_frames"`
	RecordedFrames int     `json:"recorded_frames"`
	TimeIndex      int     `json:"time_index"`
}

// PingData is a health check request
type PingData struct {
	ID string `json:"id"`
}

// PongData answers a ping
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
