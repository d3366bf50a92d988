package analysis

import "errors"

var (
	// ErrSourceUnavailable means the frame source could not be opened.
	ErrSourceUnavailable = errors.New("failed to open video source")

	// ErrCannotReadFrames means the source opened but not even the first
	// frame could be decoded.
	ErrCannotReadFrames = errors.New("failed to read video frames")

	// ErrNoFrameData means the source yielded no frame transitions to
	// analyze (empty or single-frame stream).
	ErrNoFrameData = errors.New("no frame data extracted")

	// ErrInvalidOptions flags tunables that would produce undefined
	// comparisons.
	ErrInvalidOptions = errors.New("invalid analysis options")
)
