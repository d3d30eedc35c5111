package cli

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackdepth/pkg/pipeline"
)

var (
	watchCursorStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	watchNewStyle    = lipgloss.NewStyle().Foreground(colorGreen)
)

// watchCommand creates the watch command, an interactive stepper through
// the frames of a scene.
func (c *CLI) watchCommand() *cobra.Command {
	var zmax float64
	var noCache bool

	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Step through the frames of a scene interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			popts := c.pipelineOptions()
			popts.ZMax = zmax
			res, err := runner.RunFile(ctx, args[0], popts)
			if err != nil {
				return err
			}

			p := tea.NewProgram(NewFrameModel(res), tea.WithContext(ctx),
				tea.WithInput(cmd.InOrStdin()), tea.WithOutput(cmd.OutOrStdout()))
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().Float64Var(&zmax, "zmax", 0, "depth range of the root context")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// =============================================================================
// FrameModel - Interactive frame stepper
// =============================================================================

// frameRow is one node of a frame, in paint order.
type frameRow struct {
	name    string
	depth   float64
	prev    float64
	isNew   bool
	changed bool
}

// FrameModel is the bubbletea model for stepping through run frames.
type FrameModel struct {
	Result *pipeline.Result
	Frame  int
	Cursor int
	Offset int
	Height int
}

// NewFrameModel starts at the initial frame.
func NewFrameModel(res *pipeline.Result) FrameModel {
	return FrameModel{Result: res, Height: 15}
}

func (m FrameModel) Init() tea.Cmd {
	return nil
}

func (m FrameModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "right", "l", "n", " ":
			if m.Frame < len(m.Result.Frames)-1 {
				m.Frame++
				m.clampCursor()
			}
		case "left", "h", "p":
			if m.Frame > 0 {
				m.Frame--
				m.clampCursor()
			}
		case "home", "g":
			m.Frame = 0
			m.clampCursor()
		case "end", "G":
			m.Frame = len(m.Result.Frames) - 1
			m.clampCursor()
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.rows())-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m *FrameModel) clampCursor() {
	n := len(m.rows())
	if m.Cursor >= n {
		m.Cursor = max(n-1, 0)
	}
	if m.Offset > m.Cursor {
		m.Offset = m.Cursor
	}
}

// rows returns the nodes of the current frame sorted back to front.
func (m FrameModel) rows() []frameRow {
	if len(m.Result.Frames) == 0 {
		return nil
	}
	cur := m.Result.Frames[m.Frame]
	var prev map[string]float64
	if m.Frame > 0 {
		prev = m.Result.Frames[m.Frame-1].Depths
	}

	rows := make([]frameRow, 0, len(cur.Depths))
	for name, d := range cur.Depths {
		r := frameRow{name: name, depth: d}
		if prev != nil {
			p, ok := prev[name]
			r.prev = p
			r.isNew = !ok
			r.changed = ok && p != d
		}
		rows = append(rows, r)
	}
	slices.SortFunc(rows, func(a, b frameRow) int {
		if a.depth != b.depth {
			if a.depth < b.depth {
				return -1
			}
			return 1
		}
		return strings.Compare(a.name, b.name)
	})
	return rows
}

func (m FrameModel) View() string {
	var b strings.Builder

	title := m.Result.Scene
	if title == "" {
		title = "scene"
	}
	b.WriteString(StyleTitle.Render(fmt.Sprintf("%s · frame %d/%d", title, m.Frame, len(m.Result.Frames)-1)))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("←/→ frame  ↑/↓ scroll  q quit"))
	b.WriteString("\n\n")

	rows := m.rows()
	end := min(m.Offset+m.Height, len(rows))
	cells := make([][]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		r := rows[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		was := ""
		switch {
		case r.isNew:
			was = "new"
		case r.changed:
			was = formatDepth(r.prev)
		}
		cells = append(cells, []string{cursor, r.name, formatDepth(r.depth), was})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Node", "Depth", "Was").
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			idx := m.Offset + row
			if idx >= len(rows) {
				return lipgloss.NewStyle()
			}
			r := rows[idx]
			switch {
			case col == 3 && r.isNew:
				return watchNewStyle
			case col == 3:
				return StyleDim
			case col == 2 && r.changed:
				return styleChanged
			case idx == m.Cursor:
				return watchCursorStyle
			case col == 2:
				return StyleNumber
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")

	f := m.Result.Frames[m.Frame]
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %d nodes · %d passes · %d changed · %d squeezed",
		len(f.Depths), f.Passes, f.Stats.Changed, f.Stats.Squeezed)))
	if f.Stats.Pending > 0 {
		b.WriteString("  " + StyleWarning.Render(fmt.Sprintf("%d pending", f.Stats.Pending)))
	}
	return b.String()
}
