package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alpindale/tinyscripts/internal"
	"github.com/alpindale/tinyscripts/internal/driver"
	"github.com/alpindale/tinyscripts/internal/spawn"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

func renderProgressBar(percent float64, width int, color lipgloss.Color) string {
	if percent > 100 {
		percent = 100
	}
	if percent < 0 {
		percent = 0
	}

	filled := int(float64(width) * percent / 100.0)
	empty := width - filled

	filledStyle := lipgloss.NewStyle().Foreground(color)
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	return filledStyle.Render(strings.Repeat("█", filled)) +
		emptyStyle.Render(strings.Repeat("░", empty))
}

// DisplayName title-cases a species name: "mr-mime" becomes "Mr-Mime".
func DisplayName(name string) string {
	return titleCaser.String(strings.ToLower(strings.TrimSpace(name)))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FormatCoords is the "lat, lon" pair pasted into map search boxes.
func FormatCoords(r spawn.Record) string {
	return formatFloat(r.Latitude) + ", " + formatFloat(r.Longitude)
}

// RenderSpawns lists the matches for one species. cursor marks a row in the
// TUI; pass -1 for plain output.
func RenderSpawns(name string, area spawn.Area, records []spawn.Record, cursor int) string {
	display := DisplayName(name)
	if len(records) == 0 {
		return warnStyle.Render(fmt.Sprintf("No %s found within %s km.", display, formatFloat(area.RadiusKM))) + "\n"
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("--- %s Spawns Near (%s, %s) ---",
		display, formatFloat(area.Lat), formatFloat(area.Lon))))
	b.WriteString("\n")
	for i, r := range records {
		line := fmt.Sprintf("Location: (%s), Disappears at: %s", FormatCoords(r), r.DisappearTime)
		if i == cursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else if cursor >= 0 {
			b.WriteString("  " + line)
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderHostReport is the detection summary printed before a driver search.
func RenderHostReport(info *internal.HostInfo) string {
	var b strings.Builder
	if info.Host != "" && info.Host != "localhost" {
		fmt.Fprintf(&b, "%s %s\n", headerStyle.Render("Host:"), info.Host)
	}

	gpuLine := warnStyle.Render("failed to detect")
	if dev, ok := info.PrimaryGPU(); ok {
		gpuLine = dev.Name
		if dev.DriverVersion != "" {
			gpuLine += mutedStyle.Render(" (installed driver " + dev.DriverVersion + ")")
		}
	}
	fmt.Fprintf(&b, "%s %s\n", headerStyle.Render("Detected GPU:"), gpuLine)
	for _, dev := range info.GPUs[min(1, len(info.GPUs)):] {
		fmt.Fprintf(&b, "%s\n", mutedStyle.Render(fmt.Sprintf("  also found GPU %d: %s", dev.Index, dev.Name)))
	}
	fmt.Fprintf(&b, "%s %s\n", headerStyle.Render("Detected OS:"), info.OS.String())
	return b.String()
}

// RenderResolution reports what the driver search settled on.
func RenderResolution(res driver.Resolution) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", headerStyle.Render("Latest driver version:"), okStyle.Render(res.Driver.Version))
	fmt.Fprintf(&b, "%s\n", mutedStyle.Render(fmt.Sprintf("series %d, family %d, os %s (%d)",
		res.Identity.SeriesID, res.Identity.FamilyID, res.OS.Value, res.OS.ID)))
	return b.String()
}

// RenderError formats a failure for the console.
func RenderError(err error) string {
	return errorStyle.Render("Error: ") + err.Error() + "\n"
}

// RenderWarning formats a non-fatal message for the console.
func RenderWarning(msg string) string {
	return warnStyle.Render(msg) + "\n"
}

// RenderHints is the "did you mean" line after an unknown species.
func RenderHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return mutedStyle.Render("Did you mean: "+strings.Join(hints, ", ")+"?") + "\n"
}
