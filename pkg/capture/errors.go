package capture

import "errors"

// Capture errors. Configuration errors are returned before any state changes.
var (
	ErrSourceUnavailable = errors.New("capture source unavailable")
	ErrAlreadyCapturing  = errors.New("already capturing")
	ErrNotCapturing      = errors.New("not capturing")
	ErrAlreadyRecording  = errors.New("already recording")
	ErrNotRecording      = errors.New("not recording")
	ErrStillRecording    = errors.New("stop recording before baking")
	ErrNoMappings        = errors.New("no mapping entries resolve to rig bones")
	ErrNoRigBones        = errors.New("rig has no bones")
	ErrInvalidSettings   = errors.New("invalid settings")
)
