// Package tui provides the interactive player view of a playback session.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/playsync/playsync/playback"
)

// Controls is the session surface the player view drives.
type Controls interface {
	State() playback.State
	Subscribe(fn func(playback.State)) (cancel func())
	TogglePlay() error
	Seek(percent float64) error
	SetQuality(level int) error
}

// Options encapsulates the runtime configuration for the terminal user interface.
type Options struct {
	Title string
	// SeekStep is the percentage skipped by the seek keys.
	SeekStep float64
	// Done closes when playback can no longer continue, e.g. the player window was closed.
	Done <-chan struct{}
}

// Run shows the player view until the user quits or Done closes.
func Run(controls Controls, options Options) error {
	bubble := newBubble(controls, options)
	defer bubble.cancel()

	_, err := tea.NewProgram(bubble, tea.WithAltScreen()).Run()
	return err
}
