package protocol

import (
	"bytes"
	"testing"
)

func TestFrameMessage(t *testing.T) {
	jpeg := []byte{0xff, 0xd8, 0xff, 0xd9}
	msg, err := NewFrameMessage(640, 480, jpeg, 7)
	if err != nil {
		t.Fatalf("NewFrameMessage: %v", err)
	}
	if msg.Timestamp == 0 {
		t.Error("Timestamp should be set")
	}

	raw, _ := msg.Bytes()
	parsed, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	frame, err := parsed.GetFrameData()
	if err != nil {
		t.Fatalf("GetFrameData: %v", err)
	}
	if frame.Width != 640 || frame.FrameID != 7 || frame.Format != "jpeg" {
		t.Errorf("frame = %+v", frame)
	}
	data, err := frame.DecodeFrameData()
	if err != nil || !bytes.Equal(data, jpeg) {
		t.Errorf("DecodeFrameData = %v, %v", data, err)
	}
}

func TestGetPoseDataWrongType(t *testing.T) {
	msg, _ := NewStatusMessage(StatusData{Message: "Ready"})
	if _, err := msg.GetPoseData(); err == nil {
		t.Error("GetPoseData should reject a status message")
	}
}

func TestParsePoseFromSidecar(t *testing.T) {
	raw := []byte(`{"type":"pose","ts":1,"data":{"frame_id":3,"landmarks":[{"x":0.5,"y":0.25,"z":-0.1,"visibility":0.9}]}}`)
	msg, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	pose, err := msg.GetPoseData()
	if err != nil {
		t.Fatalf("GetPoseData: %v", err)
	}
	if pose.FrameID != 3 || len(pose.Landmarks) != 1 || pose.Landmarks[0].Y != 0.25 {
		t.Errorf("pose = %+v", pose)
	}
}

func TestParseMessageInvalid(t *testing.T) {
	if _, err := ParseMessage([]byte("not json")); err == nil {
		t.Error("ParseMessage should fail on invalid JSON")
	}
}

func TestParseMessageMissingType(t *testing.T) {
	if _, err := ParseMessage([]byte(`{"ts":1,"data":{}}`)); err == nil {
		t.Error("ParseMessage should reject an envelope without type")
	}
}

func TestPoseWithoutData(t *testing.T) {
	msg, err := ParseMessage([]byte(`{"type":"pose"}`))
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	pose, err := msg.GetPoseData()
	if err != nil || len(pose.Landmarks) != 0 {
		t.Errorf("GetPoseData = %+v, %v; want empty pose", pose, err)
	}
}

func TestDecodeFrameDataFormat(t *testing.T) {
	f := FrameData{Format: "png", Data: ""}
	if _, err := f.DecodeFrameData(); err == nil {
		t.Error("DecodeFrameData should reject non-JPEG frames")
	}
}
