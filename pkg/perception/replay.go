package perception

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/teslashibe/go-mocap/pkg/landmark"
	"github.com/teslashibe/go-mocap/pkg/protocol"
)

// maxLineSize bounds a single JSONL record.
const maxLineSize = 1 << 20

// Replay reads recorded pose messages, one JSON protocol message per line.
// Non-pose messages and blank lines are skipped.
type Replay struct {
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
}

// NewReplay reads poses from r.
func NewReplay(r io.Reader) *Replay {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	rp := &Replay{scanner: s}
	if c, ok := r.(io.Closer); ok {
		rp.closer = c
	}
	return rp
}

// OpenReplay opens a JSONL recording.
func OpenReplay(path string) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open replay: %w", err)
	}
	return NewReplay(f), nil
}

// Next returns the next pose. Frames without a detection come back as a nil
// slice with ok true; ok is false at end of input.
func (r *Replay) Next() (lms []landmark.Landmark, ok bool, err error) {
	for r.scanner.Scan() {
		r.line++
		raw := bytes.TrimSpace(r.scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		msg, err := protocol.ParseMessage(raw)
		if err != nil {
			return nil, false, fmt.Errorf("line %d: %w", r.line, err)
		}
		if msg.Type != protocol.TypePose {
			continue
		}
		pose, err := msg.GetPoseData()
		if err != nil {
			return nil, false, fmt.Errorf("line %d: %w", r.line, err)
		}
		return FromProtocol(pose.Landmarks), true, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, false, fmt.Errorf("read replay: %w", err)
	}
	return nil, false, nil
}

// Close releases the underlying file.
func (r *Replay) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// CountPoses counts pose lines in a recording, for progress reporting.
func CountPoses(path string) (int, error) {
	rp, err := OpenReplay(path)
	if err != nil {
		return 0, err
	}
	defer rp.Close()

	n := 0
	for {
		_, ok, err := rp.Next()
		if err != nil {
			return n, err
		}
		if !ok {
			return n, nil
		}
		n++
	}
}
