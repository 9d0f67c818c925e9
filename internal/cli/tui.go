package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/netlayout/pkg/circuit"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// SeedListModel - Interactive seed device selection
// =============================================================================

// SeedRow is one device offered as a seed.
type SeedRow struct {
	Name      string
	Type      string
	Value     float64
	Candidate bool // grounded source, a first-level candidate
}

// SeedListModel is the bubbletea model for picking the first-level devices.
type SeedListModel struct {
	Rows      []SeedRow
	Cursor    int
	Checked   map[int]bool
	Height    int
	Offset    int
	Confirmed bool
}

// NewSeedListModel lists the devices of g with the first-level candidates
// preselected.
func NewSeedListModel(g *circuit.Graph) SeedListModel {
	candidates := make(map[int]bool)
	for _, d := range g.FirstLevelCandidates() {
		candidates[d.ID] = true
	}
	m := SeedListModel{Checked: make(map[int]bool), Height: 15}
	for i, d := range g.Devices() {
		m.Rows = append(m.Rows, SeedRow{
			Name:      d.Name,
			Type:      d.Type.String(),
			Value:     d.Value,
			Candidate: candidates[d.ID],
		})
		if candidates[d.ID] {
			m.Checked[i] = true
		}
	}
	return m
}

// Selected returns the checked device names in netlist order.
func (m SeedListModel) Selected() []string {
	var names []string
	for i, r := range m.Rows {
		if m.Checked[i] {
			names = append(names, r.Name)
		}
	}
	return names
}

func (m SeedListModel) Init() tea.Cmd {
	return nil
}

func (m SeedListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case " ", "x":
			if len(m.Rows) > 0 {
				checked := make(map[int]bool, len(m.Checked)+1)
				for k, v := range m.Checked {
					checked[k] = v
				}
				checked[m.Cursor] = !checked[m.Cursor]
				m.Checked = checked
			}
		case "enter":
			if len(m.Selected()) == 0 {
				return m, nil
			}
			m.Confirmed = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m SeedListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Seed Devices"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  ⏎ confirm  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Rows))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		r := m.Rows[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		check := "[ ]"
		if m.Checked[i] {
			check = "[x]"
		}
		grounded := ""
		if r.Candidate {
			grounded = "✓"
		}
		rows = append(rows, []string{cursor + check, r.Name, r.Type, strconv.FormatFloat(r.Value, 'g', -1, 64), grounded})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Device", "Type", "Value", "Grounded").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Rows) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if col == 3 {
				base = base.Foreground(colorGray)
			}
			switch {
			case idx == m.Cursor && m.Checked[idx]:
				return base.Foreground(colorGreen).Bold(true)
			case idx == m.Cursor:
				return base.Bold(true)
			case m.Checked[idx]:
				return base.Foreground(colorGreen)
			case m.Rows[idx].Candidate:
				return base
			}
			return base.Foreground(colorDim)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]  %d selected", m.Cursor+1, len(m.Rows), len(m.Selected()))))

	return b.String()
}

// pickSeeds runs the seed picker and returns the chosen names, or nil when
// the user quit without confirming.
func pickSeeds(g *circuit.Graph) ([]string, error) {
	final, err := tea.NewProgram(NewSeedListModel(g)).Run()
	if err != nil {
		return nil, err
	}
	fm, ok := final.(SeedListModel)
	if !ok || !fm.Confirmed {
		return nil, nil
	}
	return fm.Selected(), nil
}
