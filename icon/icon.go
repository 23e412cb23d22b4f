// Package icon renders playback glyphs in the variant chosen by the user.
//
// Icons can be displayed as emoji, nerd-font glyphs, plain ASCII
// or Unicode squares depending on user preference.
package icon

import (
	"github.com/playsync/playsync/key"
	"github.com/spf13/viper"
)

const (
	emoji   = "emoji"
	nerd    = "nerd"
	plain   = "plain"
	squares = "squares"
)

// AvailableVariants returns a slice of all registered icon style identifiers.
func AvailableVariants() []string {
	return []string{emoji, nerd, plain, squares}
}

// Icon identifies a glyph.
type Icon int

const (
	Play Icon = iota
	Pause
	Buffering
	Ended
	Quality
	Auto
	Success
	Fail
	Mark
)

type iconDef struct {
	emoji   string
	nerd    string
	plain   string
	squares string
}

// Get returns the representation for the configured variant, or "" for an unknown one.
func (d *iconDef) Get() string {
	switch viper.GetString(key.IconsVariant) {
	case emoji:
		return d.emoji
	case nerd:
		return d.nerd
	case plain:
		return d.plain
	case squares:
		return d.squares
	default:
		return ""
	}
}

var icons = map[Icon]*iconDef{
	Play:      {emoji: "▶️", nerd: "\uf04b", plain: ">", squares: "▶"},
	Pause:     {emoji: "⏸️", nerd: "\uf04c", plain: "||", squares: "⏸"},
	Buffering: {emoji: "⏳", nerd: "\uf252", plain: "...", squares: "◌"},
	Ended:     {emoji: "⏹️", nerd: "\uf04d", plain: "[]", squares: "■"},
	Quality:   {emoji: "📺", nerd: "\uf26c", plain: "Q", squares: "▣"},
	Auto:      {emoji: "🔁", nerd: "\uf021", plain: "A", squares: "◈"},
	Success:   {emoji: "✅", nerd: "\uf00c", plain: "v", squares: "▪"},
	Fail:      {emoji: "❌", nerd: "\uf00d", plain: "x", squares: "▫"},
	Mark:      {emoji: "👉", nerd: "\uf0da", plain: "*", squares: "▸"},
}

// Get returns the rendered string for i.
func Get(i Icon) string {
	d, ok := icons[i]
	if !ok {
		return ""
	}
	return d.Get()
}
