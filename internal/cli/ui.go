package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/stackdepth/pkg/pipeline"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
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

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleChanged  = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	styleHeader   = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
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
	iconFresh   = "fresh"
	iconMissing = "—"
)

// =============================================================================
// Status Output
// =============================================================================

// printer writes styled status lines. Commands print to cmd.OutOrStdout()
// so output can be captured in tests.
type printer struct {
	w io.Writer
}

func (p printer) line(s string) { fmt.Fprintln(p.w, s) }

func (p printer) success(format string, args ...any) {
	p.line(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func (p printer) error(format string, args ...any) {
	p.line(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func (p printer) warning(format string, args ...any) {
	p.line(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func (p printer) info(format string, args ...any) {
	p.line(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

func (p printer) detail(format string, args ...any) {
	p.line("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

func (p printer) file(path string) {
	p.line("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// stats prints run statistics on a single line.
func (p printer) stats(res *pipeline.Result) {
	parts := []string{
		fmt.Sprintf("%d nodes", res.Stats.Nodes),
		fmt.Sprintf("%d frames", len(res.Frames)),
		fmt.Sprintf("%d passes", res.Stats.Passes),
	}
	if res.Stats.Squeezed > 0 {
		parts = append(parts, fmt.Sprintf("%d squeezed", res.Stats.Squeezed))
	}
	status, statusStyle := iconFresh, styleComputed
	if res.CacheHit {
		status, statusStyle = iconCached, styleCached
	}

	var b strings.Builder
	b.WriteString("  ")
	for i, part := range parts {
		if i > 0 {
			b.WriteString(StyleDim.Render(" · "))
		}
		b.WriteString(StyleDim.Render(part))
	}
	b.WriteString(StyleDim.Render(" · ") + statusStyle.Render(status))
	p.line(b.String())
}

// =============================================================================
// Tables
// =============================================================================

// formatDepth prints a depth with at most three decimals.
func formatDepth(d float64) string {
	s := strconv.FormatFloat(d, 'f', 3, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func newTable() *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim))
}

// depthTable lists the final depths of res in paint order.
func depthTable(res *pipeline.Result) string {
	rows := make([][]string, 0, len(res.PaintOrder))
	for i, name := range res.PaintOrder {
		rows = append(rows, []string{strconv.Itoa(i + 1), name, formatDepth(res.Final[name])})
	}
	return newTable().
		Headers("#", "Node", "Depth").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleHeader
			case col == 0:
				return StyleDim
			case col == 2:
				return StyleNumber
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// framesTable shows every node's depth in every frame. Nodes are listed in
// final paint order, followed by nodes deleted along the way. Depths that
// changed since the previous frame are highlighted.
func framesTable(res *pipeline.Result) string {
	names := append([]string(nil), res.PaintOrder...)
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	for _, f := range res.Frames {
		for _, n := range slices.Sorted(maps.Keys(f.Depths)) {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}

	headers := []string{"Node"}
	for _, f := range res.Frames {
		headers = append(headers, fmt.Sprintf("f%d", f.Index))
	}
	rows := make([][]string, len(names))
	changed := make([][]bool, len(names))
	for i, n := range names {
		rows[i] = []string{n}
		changed[i] = make([]bool, len(res.Frames)+1)
		for j, f := range res.Frames {
			d, ok := f.Depths[n]
			if !ok {
				rows[i] = append(rows[i], iconMissing)
				continue
			}
			rows[i] = append(rows[i], formatDepth(d))
			if j > 0 {
				prev, had := res.Frames[j-1].Depths[n]
				changed[i][j+1] = !had || prev != d
			}
		}
	}

	return newTable().
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleHeader
			case col == 0:
				return lipgloss.NewStyle()
			case row >= 0 && row < len(changed) && changed[row][col]:
				return styleChanged
			}
			return StyleNumber
		}).
		Render()
}
