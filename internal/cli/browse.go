package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tailwater/pkg/network"
	"github.com/matzehuels/tailwater/pkg/topology"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// browseCommand creates the browse command for interactive exploration.
func (c *CLI) browseCommand() *cobra.Command {
	var flags partitionFlags

	cmd := &cobra.Command{
		Use:   "browse <table.csv|topo.json>",
		Short: "Interactively browse networks and their reaches",
		Long: `Interactively browse the decomposed networks.

The top level lists every independent network with its size. Selecting a
network shows its reaches in topological order, leaf reaches first.

Examples:
  tailwater browse topo.json
  tailwater browse flows.csv --mask texas.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(cmd.Context(), flags.noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			d, err := c.loadDecomposition(cmd.Context(), runner, args[0], flags)
			if err != nil {
				return err
			}
			model := NewBrowseModel(d)
			_, err = tea.NewProgram(model, tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	flags.register(cmd, c.Config)

	return cmd
}

// BrowseModel is the bubbletea model for network exploration. It has two
// levels: the network list, and the reach list of the selected network.
type BrowseModel struct {
	d          *topology.Decomposition
	Cursor     int
	Offset     int
	Height     int
	Selected   *network.SegmentID // nil while on the network list
	ReachIndex int
}

// NewBrowseModel creates a browse model over a decomposition.
func NewBrowseModel(d *topology.Decomposition) BrowseModel {
	return BrowseModel{
		d:      d,
		Height: 15,
	}
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc":
			if m.Selected != nil {
				m.Selected = nil
				m.ReachIndex = 0
				return m, nil
			}
			return m, tea.Quit
		case "up", "k":
			if m.Selected != nil {
				if m.ReachIndex > 0 {
					m.ReachIndex--
				}
				return m, nil
			}
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Selected != nil {
				if m.ReachIndex < len(m.d.Reaches[*m.Selected])-1 {
					m.ReachIndex++
				}
				return m, nil
			}
			if m.Cursor < len(m.d.Tailwaters)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if m.Selected == nil && len(m.d.Tailwaters) > 0 {
				tw := m.d.Tailwaters[m.Cursor]
				m.Selected = &tw
				m.ReachIndex = 0
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m BrowseModel) View() string {
	if m.Selected != nil {
		return m.reachView()
	}
	return m.networkView()
}

// networkView renders the top-level network table.
func (m BrowseModel) networkView() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Independent Networks"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ inspect  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.d.Tailwaters) {
		end = len(m.d.Tailwaters)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		tw := m.d.Tailwaters[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		sub := m.d.Networks[tw]
		rows = append(rows, []string{
			cursor,
			fmt.Sprintf("%d", tw),
			fmt.Sprintf("%d", sub.Size()),
			fmt.Sprintf("%d", len(m.d.Reaches[tw])),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Tailwater", "Segments", "Reaches").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return listSelectedStyle
			}
			return listNormalStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.d.Tailwaters))))

	return b.String()
}

// reachView renders the reaches of the selected network.
func (m BrowseModel) reachView() string {
	var b strings.Builder
	tw := *m.Selected
	reaches := m.d.Reaches[tw]

	b.WriteString(StyleTitle.Render(fmt.Sprintf("Network %d", tw)))
	b.WriteString("  ")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%d segments, %d reaches", m.d.Networks[tw].Size(), len(reaches))))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  esc back  q quit"))
	b.WriteString("\n\n")

	start := 0
	if m.ReachIndex >= m.Height {
		start = m.ReachIndex - m.Height + 1
	}
	end := start + m.Height
	if end > len(reaches) {
		end = len(reaches)
	}

	for i := start; i < end; i++ {
		cursor := "  "
		if i == m.ReachIndex {
			cursor = "▸ "
		}
		line := fmt.Sprintf("%s%-4d %s", cursor, i, formatReach(reaches[i]))
		if i == m.ReachIndex {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.ReachIndex+1, len(reaches))))

	return b.String()
}

// formatReach renders a reach as "head → ... → tail", eliding long chains.
func formatReach(r topology.Reach) string {
	const maxShown = 6
	ids := make([]string, 0, maxShown+1)
	if len(r) <= maxShown {
		for _, s := range r {
			ids = append(ids, fmt.Sprintf("%d", s))
		}
	} else {
		for _, s := range r[:maxShown-2] {
			ids = append(ids, fmt.Sprintf("%d", s))
		}
		ids = append(ids, fmt.Sprintf("… %d more …", len(r)-maxShown+1))
		ids = append(ids, fmt.Sprintf("%d", r[len(r)-1]))
	}
	return strings.Join(ids, " "+iconArrow+" ")
}
