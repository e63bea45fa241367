package fire

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"touchkeys/internal/keys"
)

var (
	litPad   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6A00")).Render("■")
	darkPad  = lipgloss.NewStyle().Foreground(lipgloss.Color("#3A3A3A")).Render("·")
	rowLabel = lipgloss.NewStyle().Bold(true).Width(2)
	header   = lipgloss.NewStyle().Faint(true)
)

// RenderGrid draws ks the way the display shows it: one row per note, one pad
// per pitch level.
func RenderGrid(ks keys.KeySet) string {
	var out strings.Builder
	out.WriteString(header.Render("   0 1 2 3 4"))
	for _, n := range keys.Notes {
		out.WriteString("\n")
		out.WriteString(rowLabel.Render(n.String()))
		for _, p := range keys.Pitches {
			out.WriteString(" ")
			if ks.Has(keys.Key{Note: n, Pitch: p}) {
				out.WriteString(litPad)
			} else {
				out.WriteString(darkPad)
			}
		}
	}
	return out.String()
}
