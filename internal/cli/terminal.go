package cli

import (
	"fmt"
	"strings"

	"github.com/bastiangx/cvsuggest/pkg/autocomplete"
	"github.com/charmbracelet/lipgloss"
)

var (
	queryStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	rowStyle    = lipgloss.NewStyle().PaddingLeft(2)
	activeStyle = lipgloss.NewStyle().PaddingLeft(2).Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#286983", Dark: "#9ccfd8"})
	subtitleStyle = lipgloss.NewStyle().Faint(true)
	spacerStyle   = lipgloss.NewStyle().Faint(true).Italic(true).PaddingLeft(2)
	errorStyle    = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#b4637a", Dark: "#eb6f92"})
	frameStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.AdaptiveColor{Light: "#9893a5", Dark: "#6e6a86"}).
			Padding(0, 1)
)

// Render draws a widget snapshot. Rows outside the virtual window are summarized
// by their spacer heights, in rows.
func Render(v autocomplete.View, rowHeight int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", queryStyle.Render("query:"), v.Query)

	switch {
	case v.State == autocomplete.Loading:
		b.WriteString(subtitleStyle.Render("loading suggestions..."))
	case v.State == autocomplete.Error:
		b.WriteString(errorStyle.Render(v.Message))
	case v.NoResults:
		b.WriteString(subtitleStyle.Render("no results"))
	case v.State == autocomplete.Open:
		b.WriteString(frameStyle.Render(renderRows(v, rowHeight)))
	default:
		b.WriteString(subtitleStyle.Render(v.State.String()))
	}
	return b.String()
}

func renderRows(v autocomplete.View, rowHeight int) string {
	if rowHeight <= 0 {
		rowHeight = autocomplete.DefaultRowHeight
	}
	lines := make([]string, 0, len(v.Rows)+2)
	if above := v.Window.PadTop / rowHeight; above > 0 {
		lines = append(lines, spacerStyle.Render(fmt.Sprintf("↑ %d more", above)))
	}
	for _, r := range v.Rows {
		label := fmt.Sprintf("%2d. %s", r.Index+1, r.Option.Name)
		if sub := r.Option.Subtitle(); sub != "" {
			label += " " + subtitleStyle.Render("("+sub+")")
		}
		if r.Active {
			lines = append(lines, activeStyle.Render("> "+label))
		} else {
			lines = append(lines, rowStyle.Render("  "+label))
		}
	}
	if below := v.Window.PadBottom / rowHeight; below > 0 {
		lines = append(lines, spacerStyle.Render(fmt.Sprintf("↓ %d more", below)))
	}
	return strings.Join(lines, "\n")
}
