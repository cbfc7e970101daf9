package ui

import (
	"fmt"
	"strings"

	"github.com/alpindale/tinyscripts/internal"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("  Spawn Finder  "))
	b.WriteString(" ")
	b.WriteString(mutedStyle.Render("v" + internal.FullVersion()))
	b.WriteString("\n\n")

	switch m.screen {
	case ScreenLoading:
		b.WriteString(m.renderLoading())
	case ScreenSearch:
		b.WriteString(m.renderSearch())
	case ScreenSearching:
		fmt.Fprintf(&b, "%s Searching for %s within %s km...\n",
			m.spinner.View(), DisplayName(m.query), formatFloat(m.area.RadiusKM))
	case ScreenResults:
		b.WriteString(RenderSpawns(m.query, m.area, m.records, m.cursor))
		if m.status != "" {
			b.WriteString("\n" + okStyle.Render(m.status) + "\n")
		}
		b.WriteString("\n" + mutedStyle.Render("↑/↓ select • c copy coordinates • n new search • q quit"))
	}
	return b.String()
}

func (m Model) renderLoading() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Loading species catalog...\n\n", m.spinner.View())
	if m.total > 0 {
		percent := float64(m.done) / float64(m.total) * 100
		fmt.Fprintf(&b, "  %s %s\n", renderProgressBar(percent, 30, lipgloss.Color("63")),
			mutedStyle.Render(fmt.Sprintf("%s / %s", humanize.Comma(int64(m.done)), humanize.Comma(int64(m.total)))))
	}
	return b.String()
}

func (m Model) renderSearch() string {
	var b strings.Builder
	b.WriteString(m.input.View())
	b.WriteString("\n")

	if suggestions := m.catalog.Suggest(m.input.Value(), maxSuggestions); len(suggestions) > 0 {
		b.WriteString(mutedStyle.Render("  " + strings.Join(suggestions, "  ")))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString("\n" + RenderError(m.err))
		b.WriteString(RenderHints(m.hints))
	}

	if len(m.failed) > 0 {
		b.WriteString("\n" + RenderWarning(fmt.Sprintf("⚠ %s species could not be loaded", humanize.Comma(int64(len(m.failed))))))
	}

	fmt.Fprintf(&b, "\n%s", mutedStyle.Render(fmt.Sprintf("%s species • tab complete • enter search • esc quit",
		humanize.Comma(int64(m.catalog.Len())))))
	return b.String()
}
