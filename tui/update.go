package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/playsync/playsync/engine"
	"github.com/playsync/playsync/internal/ui"
	"github.com/playsync/playsync/log"
	"github.com/playsync/playsync/playback"
	"github.com/playsync/playsync/util"
)

type stateMsg playback.State

type doneMsg struct{}

func (b *bubble) waitForState() tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-b.states)
	}
}

func (b *bubble) waitForDone() tea.Cmd {
	if b.done == nil {
		return nil
	}
	return func() tea.Msg {
		<-b.done
		return doneMsg{}
	}
}

func (b *bubble) Init() tea.Cmd {
	return tea.Batch(b.waitForState(), b.waitForDone(), b.spinnerC.Tick)
}

func (b *bubble) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	notice := b.notifier.Update(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.resize(msg.Width, msg.Height)
	case stateMsg:
		b.state = playback.State(msg)
		return b, tea.Batch(notice, b.waitForState())
	case doneMsg:
		return b, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		b.spinnerC, cmd = b.spinnerC.Update(msg)
		return b, cmd
	case tea.KeyMsg:
		return b, tea.Batch(notice, b.handleKey(msg))
	}

	return b, notice
}

func (b *bubble) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, b.keymap.forceQuit), key.Matches(msg, b.keymap.quit):
		return tea.Quit
	case key.Matches(msg, b.keymap.showHelp):
		b.helpC.ShowAll = !b.helpC.ShowAll
	case key.Matches(msg, b.keymap.togglePlay):
		return b.report(b.controls.TogglePlay())
	case key.Matches(msg, b.keymap.seekBack):
		return b.seekBy(-b.seekStep)
	case key.Matches(msg, b.keymap.seekForward):
		return b.seekBy(b.seekStep)
	case key.Matches(msg, b.keymap.auto):
		return b.selectQuality(engine.AutoLevel)
	case key.Matches(msg, b.keymap.level):
		return b.selectQuality(int(msg.Runes[0] - '1'))
	}
	return nil
}

func (b *bubble) seekBy(delta float64) tea.Cmd {
	target := util.Clamp(b.state.ProgressPercent+delta, 0, 100)
	return b.report(b.controls.Seek(target))
}

func (b *bubble) selectQuality(level int) tea.Cmd {
	if err := b.controls.SetQuality(level); err != nil {
		return b.report(err)
	}

	label := "Auto"
	if level >= 0 && level < len(b.state.Levels) {
		label = b.state.Levels[level].String()
	}
	return ui.Notify(fmt.Sprintf("Quality: %s", label))
}

func (b *bubble) report(err error) tea.Cmd {
	if err == nil {
		return nil
	}
	log.Warn(err)
	return ui.Notify(err.Error())
}
