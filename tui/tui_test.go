package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/playsync/playsync/engine"
	"github.com/playsync/playsync/internal/fake"
	"github.com/playsync/playsync/internal/ui"
	"github.com/playsync/playsync/playback"
	. "github.com/smartystreets/goconvey/convey"
)

type controls struct {
	state    playback.State
	subs     []func(playback.State)
	toggles  int
	seeks    []float64
	levels   []int
	levelErr error
}

func (c *controls) State() playback.State { return c.state }

func (c *controls) Subscribe(fn func(playback.State)) func() {
	c.subs = append(c.subs, fn)
	return func() {}
}

func (c *controls) TogglePlay() error { c.toggles++; return nil }

func (c *controls) Seek(percent float64) error {
	c.seeks = append(c.seeks, percent)
	return nil
}

func (c *controls) SetQuality(level int) error {
	if c.levelErr != nil {
		return c.levelErr
	}
	c.levels = append(c.levels, level)
	return nil
}

func (c *controls) publish(st playback.State) {
	for _, fn := range c.subs {
		fn(st)
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// notice resolves the command a key produced into the notice it shows.
func notice(b *bubble, cmd tea.Cmd) string {
	if cmd == nil {
		return ""
	}
	switch msg := cmd().(type) {
	case ui.NoticeMsg:
		b.notifier.Update(msg)
	case tea.BatchMsg:
		for _, c := range msg {
			if c == nil {
				continue
			}
			if n, ok := c().(ui.NoticeMsg); ok {
				b.notifier.Update(n)
			}
		}
	}
	return b.notifier.Notice()
}

func TestKeys(t *testing.T) {
	Convey("Given a player view halfway through a stream", t, func() {
		c := &controls{state: playback.State{
			CurrentTime:     100,
			Duration:        200,
			ProgressPercent: 50,
			Levels:          fake.Levels(3),
			SelectedQuality: engine.AutoLevel,
		}}
		b := newBubble(c, Options{Title: "Big Buck Bunny"})

		Convey("Space toggles playback", func() {
			b.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
			So(c.toggles, ShouldEqual, 1)
		})

		Convey("Arrows seek by the configured step", func() {
			b.Update(tea.KeyMsg{Type: tea.KeyLeft})
			b.Update(tea.KeyMsg{Type: tea.KeyRight})
			So(c.seeks, ShouldResemble, []float64{45, 55})
		})

		Convey("Seeking is clamped at both ends", func() {
			b.state.ProgressPercent = 98
			b.Update(tea.KeyMsg{Type: tea.KeyRight})
			b.state.ProgressPercent = 2
			b.Update(tea.KeyMsg{Type: tea.KeyLeft})
			So(c.seeks, ShouldResemble, []float64{100, 0})
		})

		Convey("Digits select levels and a selects automatic mode", func() {
			_, cmd := b.Update(runes("2"))
			So(notice(b, cmd), ShouldEqual, "Quality: 480p")

			_, cmd = b.Update(runes("a"))
			So(notice(b, cmd), ShouldEqual, "Quality: Auto")

			So(c.levels, ShouldResemble, []int{1, engine.AutoLevel})
		})

		Convey("Rejected levels are reported", func() {
			c.levelErr = errors.New("invalid quality level")
			_, cmd := b.Update(runes("9"))
			So(notice(b, cmd), ShouldEqual, "invalid quality level")
		})

		Convey("q quits", func() {
			_, cmd := b.Update(runes("q"))
			So(cmd(), ShouldResemble, tea.Quit())
		})
	})
}

func TestStates(t *testing.T) {
	Convey("Given a subscribed player view", t, func() {
		c := &controls{state: playback.State{SelectedQuality: engine.AutoLevel}}
		b := newBubble(c, Options{Title: "Big Buck Bunny"})

		Convey("Only the newest published state is delivered", func() {
			c.publish(playback.State{CurrentTime: 1, SelectedQuality: engine.AutoLevel})
			c.publish(playback.State{CurrentTime: 2, SelectedQuality: engine.AutoLevel})

			msg := b.waitForState()()
			b.Update(msg)
			So(b.state.CurrentTime, ShouldEqual, 2)
		})

		Convey("The view reflects the state", func() {
			b.Update(stateMsg(playback.State{
				CurrentTime:     83,
				Duration:        200,
				ProgressPercent: 41.5,
				IsBuffering:     true,
				Levels:          fake.Levels(2),
				SelectedQuality: 1,
			}))

			view := b.View()
			So(view, ShouldContainSubstring, "Big Buck Bunny")
			So(view, ShouldContainSubstring, "1:23 / 3:20")
			So(view, ShouldContainSubstring, "Buffering")
			So(view, ShouldContainSubstring, "2:480p")
		})

		Convey("A terminated session shows the error", func() {
			b.Update(stateMsg(playback.State{Terminated: true, SelectedQuality: engine.AutoLevel}))
			view := b.View()
			So(view, ShouldContainSubstring, "Stopped")
			So(view, ShouldContainSubstring, "unrecoverable")
		})

		Convey("Done quits the program", func() {
			done := make(chan struct{})
			b.done = done
			close(done)
			_, cmd := b.Update(b.waitForDone()())
			So(cmd(), ShouldResemble, tea.Quit())
		})
	})
}
