// Package engine adapts an external adaptive streaming engine to a uniform session surface.
//
// The engine itself (manifest parsing, fragment loading, bitrate adaptation and
// buffering) is a collaborator behind the Engine interface. The Adapter owns
// the wiring around it: capability probing with native fallback, quality
// selection with range checks, starting the load once the manifest is known,
// and idempotent teardown that silences late callbacks.
package engine

import (
	"fmt"

	"github.com/playsync/playsync/constant"
	"github.com/playsync/playsync/media"
)

// AutoLevel is the level selector that re-enables automatic quality selection.
const AutoLevel = constant.AutoQuality

// QualityLevel is one rendition announced by the engine after the manifest is parsed.
type QualityLevel struct {
	Index   int
	Height  int
	Width   int
	Bitrate int
}

func (q QualityLevel) String() string {
	if q.Height > 0 {
		return fmt.Sprintf("%dp", q.Height)
	}
	if q.Bitrate > 0 {
		return fmt.Sprintf("%dkbps", q.Bitrate/1000)
	}
	return fmt.Sprintf("level %d", q.Index)
}

// Category classifies engine errors for the recovery policy.
type Category int

const (
	CategoryOther Category = iota
	CategoryNetwork
	CategoryMedia
	CategoryKeySystem
	CategoryMux
)

func (c Category) String() string {
	switch c {
	case CategoryNetwork:
		return "network"
	case CategoryMedia:
		return "media"
	case CategoryKeySystem:
		return "key-system"
	case CategoryMux:
		return "mux"
	default:
		return "other"
	}
}

// Error is an engine-reported failure. Fatal errors halt playback unless handled.
type Error struct {
	Category Category
	Fatal    bool
	Details  string
}

func (e *Error) Error() string {
	kind := "non-fatal"
	if e.Fatal {
		kind = "fatal"
	}
	return fmt.Sprintf("%s %s error: %s", kind, e.Category, e.Details)
}

// EventKind tags the payload carried by an Event.
type EventKind int

const (
	ManifestParsed EventKind = iota + 1
	LevelSwitched
	ErrorRaised
)

func (k EventKind) String() string {
	switch k {
	case ManifestParsed:
		return "manifest-parsed"
	case LevelSwitched:
		return "level-switched"
	case ErrorRaised:
		return "error"
	default:
		return "unknown"
	}
}

// Event is the tagged variant delivered by an engine.
// Levels is set for ManifestParsed, Level for LevelSwitched and Err for ErrorRaised.
type Event struct {
	Kind   EventKind
	Levels []QualityLevel
	Level  int
	Err    *Error
}

// Engine is the external streaming engine bound to one media element.
type Engine interface {
	LoadSource(src string) error
	AttachMedia(el media.Element) error

	// StartLoad begins fragment loading; a negative position continues from the engine's own start point.
	StartLoad(startPosition float64) error

	// RecoverMediaError detaches and reattaches the media pipeline.
	RecoverMediaError() error

	// SetCurrentLevel forces a level; AutoLevel re-enables automatic selection.
	SetCurrentLevel(level int) error
	CurrentLevel() int
	AutoLevelEnabled() bool

	Destroy() error

	// Listen registers fn for engine events. Calling remove detaches it.
	Listen(fn func(Event)) (remove func())
}

// Factory probes for managed streaming support and builds engines.
type Factory interface {
	Supported() bool
	New(cfg Config) (Engine, error)
}
