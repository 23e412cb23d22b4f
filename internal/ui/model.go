// Package ui renders short-lived notices under the main view.
package ui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/playsync/playsync/style"
)

// NoticeLifetime is how long a notice stays visible.
const NoticeLifetime = 3 * time.Second

// Model holds the notice currently shown, if any.
type Model struct {
	notice string
}

// NoticeMsg shows Text until it expires.
type NoticeMsg struct {
	Text string
}

// ClearNoticeMsg resets the notice.
type ClearNoticeMsg struct{}

// Notify returns a tea.Cmd that shows text.
func Notify(text string) tea.Cmd {
	return func() tea.Msg {
		return NoticeMsg{Text: text}
	}
}

func clearLater() tea.Cmd {
	return tea.Tick(NoticeLifetime, func(time.Time) tea.Msg {
		return ClearNoticeMsg{}
	})
}

// Update processes incoming messages to modify the notice state.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case NoticeMsg:
		m.notice = msg.Text
		return clearLater()
	case ClearNoticeMsg:
		m.notice = ""
	}
	return nil
}

// Notice returns the visible notice.
func (m *Model) Notice() string {
	return m.notice
}

// View appends the notice to the last line of content.
func (m *Model) View(content string) string {
	if m.notice == "" {
		return content
	}

	lines := strings.Split(content, "\n")
	lines[len(lines)-1] += "  " + style.Faint(m.notice)
	return strings.Join(lines, "\n")
}
