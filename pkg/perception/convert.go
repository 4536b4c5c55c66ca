// Package perception connects the capture loop to an external body-landmark
// detector. The detector runs as a sidecar process and exchanges protocol
// messages over WebSocket; recorded sessions can be replayed from JSONL.
package perception

import (
	"errors"

	"github.com/teslashibe/go-mocap/pkg/landmark"
	"github.com/teslashibe/go-mocap/pkg/protocol"
)

// ErrNoProducer means no detector is connected.
var ErrNoProducer = errors.New("no landmark producer connected")

// FromProtocol converts wire landmarks. An empty input yields nil (no detection).
func FromProtocol(in []protocol.LandmarkData) []landmark.Landmark {
	if len(in) == 0 {
		return nil
	}
	out := make([]landmark.Landmark, len(in))
	for i, l := range in {
		out[i] = landmark.Landmark{X: l.X, Y: l.Y, Z: l.Z, Visibility: l.Visibility}
	}
	return out
}
