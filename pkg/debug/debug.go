// Package debug holds the verbose-output switches set from command flags.
package debug

import (
	"fmt"
	"io"
	"os"
)

var (
	// Enabled turns on one-off diagnostic dumps (settings, mapping tables).
	Enabled bool

	// Frames turns on per-frame retarget output: applied bones, gate
	// rejects, dropped frames. Very noisy at capture rate.
	Frames bool

	// Out receives debug output.
	Out io.Writer = os.Stdout
)

// Log prints when Enabled is set.
func Log(format string, args ...any) {
	if Enabled {
		fmt.Fprintf(Out, format, args...)
	}
}

// FrameLog prints when Frames is set.
func FrameLog(format string, args ...any) {
	if Frames {
		fmt.Fprintf(Out, format, args...)
	}
}
