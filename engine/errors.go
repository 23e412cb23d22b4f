package engine

import "errors"

var (
	// ErrInvalidQualityLevel is returned for a level outside [0, levelCount) that is not AutoLevel.
	ErrInvalidQualityLevel = errors.New("invalid quality level")

	// ErrNoActiveSession is returned for commands against a destroyed or missing handle.
	ErrNoActiveSession = errors.New("no active session")

	// ErrQualityUnavailable is returned when quality is changed during native playback.
	ErrQualityUnavailable = errors.New("quality selection unavailable in native playback")

	// ErrUnsupported is returned when neither managed nor native playback is possible.
	ErrUnsupported = errors.New("playback not supported")
)
