package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/playsync/playsync/internal/ui"
	"github.com/playsync/playsync/playback"
	"github.com/playsync/playsync/util"
)

// DefaultSeekStep is used when Options.SeekStep is not positive.
const DefaultSeekStep = 5.0

var paddingStyle = lipgloss.NewStyle().Padding(1, 2)

type bubble struct {
	controls Controls
	states   <-chan playback.State
	cancel   func()
	done     <-chan struct{}

	state    playback.State
	title    string
	seekStep float64
	keymap   *keymap

	spinnerC  spinner.Model
	progressC progress.Model
	helpC     help.Model
	notifier  *ui.Model

	width, height int
}

func newBubble(controls Controls, options Options) *bubble {
	states, cancel := subscribe(controls)

	b := &bubble{
		controls: controls,
		states:   states,
		cancel:   cancel,
		done:     options.Done,
		state:    controls.State(),
		title:    options.Title,
		seekStep: options.SeekStep,
		keymap:   newKeymap(),
		helpC:    help.New(),
		notifier: &ui.Model{},
	}
	if b.seekStep <= 0 {
		b.seekStep = DefaultSeekStep
	}

	b.spinnerC = spinner.New()
	b.spinnerC.Spinner = spinner.Dot
	b.spinnerC.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	b.progressC = progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())

	if w, h, err := util.TerminalSize(); err == nil {
		b.resize(w, h)
	}
	return b
}

func (b *bubble) resize(width, height int) {
	x, y := paddingStyle.GetFrameSize()
	b.width = width - x
	b.height = height - y
	b.progressC.Width = b.width
	b.helpC.Width = b.width
}

// subscribe forwards snapshots into a one-slot channel that always holds the newest state.
// Subscribers run on the session's event path and must never block on the UI loop.
func subscribe(controls Controls) (<-chan playback.State, func()) {
	states := make(chan playback.State, 1)
	cancel := controls.Subscribe(func(st playback.State) {
		for {
			select {
			case states <- st:
				return
			default:
				select {
				case <-states:
				default:
				}
			}
		}
	})
	return states, cancel
}
