package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/leadgen/models"
	"github.com/harperreed/leadgen/viz"
)

var (
	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	activeColumnStyle = columnStyle.
				BorderForeground(lipgloss.Color("170"))

	headerStyle = lipgloss.NewStyle().Bold(true)

	cardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedCardStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("170"))

	pendingCardStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Italic(true)

	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func (m Model) renderBoardView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("PIPELINE"))
	s.WriteString("\n")

	cols := m.board.Columns()
	width := m.columnWidth(len(cols))
	rendered := make([]string, 0, len(cols))
	for ci, col := range cols {
		var b strings.Builder
		b.WriteString(headerStyle.Render(fmt.Sprintf("%s (%d)", stageLabel(col.Stage), len(col.Deals))))
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(viz.FormatEuros(col.Total)))
		b.WriteString("\n\n")

		for ri, d := range col.Deals {
			b.WriteString(m.renderCard(d, ci == m.col && ri == m.row, width))
			b.WriteString("\n")
		}

		style := columnStyle
		if ci == m.col {
			style = activeColumnStyle
		}
		rendered = append(rendered, style.Width(width).Render(b.String()))
	}
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	s.WriteString("\n")

	t := m.board.Totals()
	s.WriteString(fmt.Sprintf("Ouvert %s • pondéré %s • gagné %s\n",
		viz.FormatEuros(t.OpenValue), viz.FormatEuros(t.OpenWeighted), viz.FormatEuros(t.WonValue)))

	if msg := m.renderMessages(); msg != "" {
		s.WriteString(msg)
		s.WriteString("\n")
	}

	s.WriteString(m.help.ShortHelpView([]key.Binding{
		m.keys.Left, m.keys.Up, m.keys.MoveLeft, m.keys.MoveRight,
		m.keys.Open, m.keys.Graph, m.keys.Reload, m.keys.Quit,
	}))
	return s.String()
}

func (m Model) columnWidth(n int) int {
	if n == 0 {
		return 20
	}
	w := m.width/n - 4
	if w < 14 {
		w = 14
	}
	return w
}

func (m Model) renderCard(d models.Deal, selected bool, width int) string {
	line := truncate(d.Title, width-2)
	value := viz.FormatEuros(d.Value)
	if d.ContactID != nil {
		if name := m.names[*d.ContactID]; name != "" {
			value += " · " + truncate(name, width-len(value)-5)
		}
	}
	text := line + "\n" + value

	switch {
	case d.ID == m.pending:
		return pendingCardStyle.Render(text + " …")
	case selected:
		return selectedCardStyle.Render(text)
	}
	return cardStyle.Render(text)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func (m Model) handleBoardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Left):
		m.col--
		m.clampCursor()
	case key.Matches(msg, m.keys.Right):
		m.col++
		m.clampCursor()
	case key.Matches(msg, m.keys.Up):
		m.row--
		m.clampCursor()
	case key.Matches(msg, m.keys.Down):
		m.row++
		m.clampCursor()
	case key.Matches(msg, m.keys.MoveLeft):
		return m.startMove(-1)
	case key.Matches(msg, m.keys.MoveRight):
		return m.startMove(1)
	case key.Matches(msg, m.keys.Open):
		if _, ok := m.selected(); ok {
			m.viewMode = ViewDetail
		}
	case key.Matches(msg, m.keys.Graph):
		m.viewMode = ViewGraph
		m.graph.SetContent("Generating graph...")
		return m, m.generateGraph()
	case key.Matches(msg, m.keys.Reload):
		m.status = ""
		m.err = nil
		return m, m.loadBoard()
	}
	return m, nil
}

// startMove sends the selected card one column over. Only one write is in flight at a time,
// and moving past the first or last column does nothing.
func (m Model) startMove(delta int) (tea.Model, tea.Cmd) {
	if m.pending != "" {
		return m, nil
	}
	d, ok := m.selected()
	if !ok {
		return m, nil
	}
	target := m.col + delta
	if target < 0 || target >= len(models.Stages) {
		return m, nil
	}

	m.pending = d.ID
	m.err = nil
	m.status = ""
	return m, m.moveDeal(d, models.Stages[target])
}
