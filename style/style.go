// Package style wraps lipgloss with the render helpers used by the CLI and the player view.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/playsync/playsync/color"
)

// New returns an empty style.
func New() lipgloss.Style {
	return lipgloss.NewStyle()
}

// Fg returns a renderer painting its input in c.
func Fg(c lipgloss.Color) func(string) string {
	return func(s string) string { return New().Foreground(c).Render(s) }
}

// Truncate returns a renderer that lays its input out in a block of width columns.
func Truncate(width int) func(string) string {
	return func(s string) string { return New().MaxWidth(width).Render(s) }
}

var (
	Faint = func(s string) string { return New().Faint(true).Render(s) }
	Bold  = func(s string) string { return New().Bold(true).Render(s) }
)

// Title renders a padded banner, e.g. above the player view.
func Title(s string) string {
	return banner(color.New("62"))(s)
}

// ErrorTitle renders a banner for terminal error states.
func ErrorTitle(s string) string {
	return banner(color.Red)(s)
}

func banner(bg lipgloss.Color) func(string) string {
	return func(s string) string {
		return New().Foreground(color.New("230")).Background(bg).Padding(0, 1).Render(s)
	}
}
