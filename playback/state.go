// Package playback keeps an observable playback snapshot in step with a media element and its engine.
package playback

import (
	"fmt"
	"math"

	"github.com/playsync/playsync/engine"
)

// State is an immutable snapshot. It is always derived from the element and engine, never authoritative.
type State struct {
	IsPlaying       bool
	CurrentTime     float64
	Duration        float64
	ProgressPercent float64
	IsBuffering     bool

	// Levels is the most recently announced level list. Treat it as read-only.
	Levels []engine.QualityLevel
	// SelectedQuality is engine.AutoLevel or an index into Levels.
	SelectedQuality int

	// Terminated is set once the session died on an unrecoverable error.
	Terminated bool
}

// IsAuto reports whether quality is chosen by the engine.
func (s State) IsAuto() bool {
	return s.SelectedQuality == engine.AutoLevel
}

// Progress returns current/duration as a percentage, or 0 when duration is unknown.
func Progress(current, duration float64) float64 {
	if !finite(duration) || duration <= 0 || !finite(current) {
		return 0
	}
	p := current / duration * 100
	if !finite(p) {
		return 0
	}
	return p
}

// FormatTime renders seconds as m:ss.
func FormatTime(seconds float64) string {
	if !finite(seconds) || seconds < 0 {
		seconds = 0
	}
	mins := int(math.Floor(seconds / 60))
	secs := int(math.Floor(math.Mod(seconds, 60)))
	return fmt.Sprintf("%d:%02d", mins, secs)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
