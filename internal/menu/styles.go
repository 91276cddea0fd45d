// file: internal/menu/styles.go
// version: 1.0.0
// guid: 1b3d5f7a-9c1e-4b3d-8f7a-9c1e3b5d7f0a

package menu

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	accent = lipgloss.Color("#E5A00D")
	dim    = lipgloss.Color("#6B7280")
	green  = lipgloss.Color("#10B981")
	red    = lipgloss.Color("#EF4444")
	yellow = lipgloss.Color("#F59E0B")
)

// styles are bound to the menu's output, so colors are only emitted when
// that output is a terminal.
type styles struct {
	title   lipgloss.Style
	rule    lipgloss.Style
	heading lipgloss.Style
	option  lipgloss.Style
	prompt  lipgloss.Style
	success lipgloss.Style
	err     lipgloss.Style
	hint    lipgloss.Style
	dim     lipgloss.Style
}

func newStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(accent),
		rule:    r.NewStyle().Foreground(dim),
		heading: r.NewStyle().Bold(true),
		option:  r.NewStyle(),
		prompt:  r.NewStyle().Foreground(accent),
		success: r.NewStyle().Foreground(green),
		err:     r.NewStyle().Foreground(red),
		hint:    r.NewStyle().Foreground(yellow),
		dim:     r.NewStyle().Foreground(dim),
	}
}
