package style

import "github.com/charmbracelet/lipgloss"

// Hex palette for text blocks that should not follow the terminal's ANSI theme.
var (
	Text        = lipgloss.Color("#cdd6f4")
	AccentColor = lipgloss.Color("#cba6f7")
	HiRed       = lipgloss.Color("#f38ba8")
)
