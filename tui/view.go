package tui

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/wrap"
	"github.com/playsync/playsync/color"
	"github.com/playsync/playsync/engine"
	"github.com/playsync/playsync/icon"
	"github.com/playsync/playsync/playback"
	"github.com/playsync/playsync/style"
)

func (b *bubble) View() string {
	st := b.state

	lines := []string{
		style.Title("Now Playing"),
		"",
		style.Truncate(b.width)(style.Fg(color.Purple)(b.title)),
		"",
		b.status(st),
		b.progressC.ViewAs(st.ProgressPercent / 100),
		fmt.Sprintf("%s / %s", playback.FormatTime(st.CurrentTime), playback.FormatTime(st.Duration)),
		"",
		b.qualities(st),
	}

	if st.Terminated {
		message := wrap.String("Playback stopped after an unrecoverable stream error.", b.width)
		lines = append(lines, "", style.ErrorTitle("Error"), "", icon.Get(icon.Fail)+" "+message)
	}

	return b.notifier.View(b.renderLines(lines))
}

func (b *bubble) status(st playback.State) string {
	switch {
	case st.Terminated:
		return icon.Get(icon.Ended) + " Stopped"
	case st.IsBuffering:
		return b.spinnerC.View() + " Buffering"
	case st.IsPlaying:
		return icon.Get(icon.Play) + " Playing"
	default:
		return icon.Get(icon.Pause) + " Paused"
	}
}

func (b *bubble) qualities(st playback.State) string {
	if len(st.Levels) == 0 {
		return style.Faint("Quality: Auto")
	}

	labels := engine.LevelLabels(st.Levels)
	entries := make([]string, 0, len(labels)+1)

	auto := "a:Auto"
	if st.IsAuto() {
		auto = style.Fg(color.Orange)(icon.Get(icon.Mark) + auto)
	}
	entries = append(entries, auto)

	for i, label := range labels {
		entry := fmt.Sprintf("%d:%s", i+1, label)
		if i == st.SelectedQuality {
			entry = style.Fg(color.Orange)(icon.Get(icon.Mark) + entry)
		}
		entries = append(entries, entry)
	}

	return icon.Get(icon.Quality) + " " + strings.Join(entries, "  ")
}

func (b *bubble) renderLines(lines []string) string {
	h := len(lines)
	l := strings.Join(lines, "\n")
	if b.height > h+1 {
		l += strings.Repeat("\n", b.height-h-1)
	}
	l += "\n" + b.helpC.View(b.keymap)

	return paddingStyle.Render(l)
}
