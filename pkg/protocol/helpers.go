package protocol

import (
	"encoding/base64"
	"fmt"
)

// NewFrameMessage wraps a JPEG for the perception sidecar.
func NewFrameMessage(width, height int, jpegData []byte, frameID uint64) (*Message, error) {
	return NewMessage(TypeFrame, FrameData{
		FrameID: frameID,
		Width:   width,
		Height:  height,
		Format:  "jpeg",
		Data:    base64.StdEncoding.EncodeToString(jpegData),
	})
}

// NewPoseMessage wraps detector output. Empty landmarks mean no body.
func NewPoseMessage(frameID uint64, landmarks []LandmarkData) (*Message, error) {
	if landmarks == nil {
		landmarks = []LandmarkData{}
	}
	return NewMessage(TypePose, PoseData{FrameID: frameID, Landmarks: landmarks})
}

func NewBonesMessage(data BonesData) (*Message, error) {
	return NewMessage(TypeBones, data)
}

func NewStatusMessage(data StatusData) (*Message, error) {
	return NewMessage(TypeStatus, data)
}

// NewPongMessage answers ping id; latency is the gap between the two stamps.
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{ID: id, PingTS: pingTS, PongTS: pongTS, LatencyMs: pongTS - pingTS})
}

// payload decodes m's data as T after checking the message type.
// A message without data yields the zero payload.
func payload[T any](m *Message, want MessageType) (*T, error) {
	if m.Type != want {
		return nil, fmt.Errorf("expected %s message, got %s", want, m.Type)
	}
	v := new(T)
	if err := m.ParseData(v); err != nil {
		return nil, err
	}
	return v, nil
}

// GetFrameData returns the payload of a frame message.
func (m *Message) GetFrameData() (*FrameData, error) {
	return payload[FrameData](m, TypeFrame)
}

// GetPoseData returns the payload of a pose message.
func (m *Message) GetPoseData() (*PoseData, error) {
	return payload[PoseData](m, TypePose)
}

// DecodeFrameData returns the raw JPEG bytes.
func (f *FrameData) DecodeFrameData() ([]byte, error) {
	if f.Format != "" && f.Format != "jpeg" {
		return nil, fmt.Errorf("unsupported frame format %q", f.Format)
	}
	return base64.StdEncoding.DecodeString(f.Data)
}
