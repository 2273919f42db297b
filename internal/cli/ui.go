package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/wayfinder/pkg/directions"
	"github.com/matzehuels/wayfinder/pkg/pipeline"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - floor changes
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleHeader      = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleFloorChange = lipgloss.NewStyle().Foreground(colorBlue).Bold(true)
	styleArrive      = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "built"
)

// stepGlyphs are the arrows shown next to each instruction.
var stepGlyphs = map[directions.Icon]string{
	directions.IconExit:      "↑",
	directions.IconStraight:  "↑",
	directions.IconBearLeft:  "↖",
	directions.IconBearRight: "↗",
	directions.IconTurnLeft:  "←",
	directions.IconTurnRight: "→",
	directions.IconArrive:    "◉",
	directions.IconEscalator: "⇅",
	directions.IconElevator:  "⇳",
}

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// =============================================================================
// Data Output
// =============================================================================

// writeKeyValue writes a labeled value.
func writeKeyValue(w io.Writer, key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(14)
	fmt.Fprintln(w, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// writeLoadStats writes graph size on a single line.
func writeLoadStats(w io.Writer, r *pipeline.LoadReport) {
	parts := []string{
		fmt.Sprintf("%d floors", len(r.Floors)),
		fmt.Sprintf("%d nodes", r.Nodes),
		fmt.Sprintf("%d arcs", r.Arcs),
	}
	status, statusStyle := iconFresh, styleComputed
	if r.CacheHit {
		status, statusStyle = iconCached, styleCached
	}

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	line += StyleDim.Render(" · ") + statusStyle.Render(status)
	fmt.Fprintln(w, line)
}

// writeSteps renders the instructions of a route as a table followed by the
// totals.
func writeSteps(w io.Writer, res *pipeline.Result) {
	steps := res.Directions.Steps
	rows := make([][]string, len(steps))
	for i, s := range steps {
		rows[i] = []string{
			fmt.Sprintf("%d", i+1),
			stepGlyphs[s.Icon],
			s.Text,
			s.Floor.Name(),
			fmt.Sprintf("%.0f m", s.Distance),
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "", "Instruction", "Floor", "Distance").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if row < 0 || row >= len(steps) {
				return base
			}
			switch {
			case col == 0 || col == 3 || col == 4:
				return base.Foreground(colorGray)
			case steps[row].FloorChange != nil:
				return base.Inherit(styleFloorChange)
			case steps[row].Icon == directions.IconArrive:
				return base.Inherit(styleArrive)
			}
			return base.Foreground(colorWhite)
		})

	fmt.Fprintln(w, StyleTitle.Render(fmt.Sprintf("%s %s %s", displayName(res.Start), iconArrow, displayName(res.Goal))))
	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "  %s %s  %s %s  %s %s\n",
		StyleDim.Render("distance"), StyleNumber.Render(fmt.Sprintf("%.0f m", res.Directions.TotalDistance)),
		StyleDim.Render("time"), StyleNumber.Render(formatMinutes(res.Directions.TotalTime.Minutes())),
		StyleDim.Render("mode"), StyleValue.Render(res.Mode.String()),
	)
}

// writePlaces renders places as a table.
func writePlaces(w io.Writer, places []pipeline.Place) {
	rows := make([][]string, len(places))
	for i, p := range places {
		rows[i] = []string{p.Name, p.Floor.Name(), p.Kind.String(), p.Label}
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Place", "Floor", "Kind", "Label").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorWhite)
			}
			return lipgloss.NewStyle().Foreground(colorGray)
		})
	fmt.Fprintln(w, t.Render())
}

// displayName shows a qualified label as a place name.
func displayName(label string) string {
	if i := strings.IndexByte(label, ':'); i >= 0 {
		label = label[i+1:]
	}
	return directions.Name(label)
}

func formatMinutes(m float64) string {
	if m < 1 {
		return "< 1 min"
	}
	return fmt.Sprintf("%.0f min", m)
}
