// Package media describes the playback surface a session drives: the element that decodes and renders media.
package media

// EventKind enumerates the element notifications the synchronizer consumes.
type EventKind int

const (
	Waiting EventKind = iota + 1
	Playing
	CanPlay
	TimeUpdate
	Play
	Pause
	LoadedData
	Ended
)

func (k EventKind) String() string {
	switch k {
	case Waiting:
		return "waiting"
	case Playing:
		return "playing"
	case CanPlay:
		return "canplay"
	case TimeUpdate:
		return "timeupdate"
	case Play:
		return "play"
	case Pause:
		return "pause"
	case LoadedData:
		return "loadeddata"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

// Event is a single element notification. Values are read back from the element, not carried here.
type Event struct {
	Kind EventKind
}

// ReadyState reports how much media data the element holds.
type ReadyState int

const (
	HaveNothing ReadyState = iota
	HaveMetadata
	HaveCurrentData
	HaveFutureData
	HaveEnoughData
)

// Element is the playback surface bound to a session.
type Element interface {
	// SetSource assigns a source for native playback, bypassing any streaming engine.
	SetSource(src string) error

	// CanPlayType reports whether the element can play the MIME type natively.
	CanPlayType(mime string) bool

	// CurrentTime returns the playback position in seconds.
	CurrentTime() float64

	// SetCurrentTime moves playback to an absolute position in seconds.
	SetCurrentTime(seconds float64) error

	// Duration returns the media length in seconds; zero or NaN while unknown.
	Duration() float64

	Paused() bool
	Play() error
	Pause() error

	ReadyState() ReadyState

	// Listen registers fn for element events. Calling remove detaches it; remove is safe to call twice.
	Listen(fn func(Event)) (remove func())
}
