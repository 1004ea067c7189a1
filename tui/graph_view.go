package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) renderGraphView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("PIPELINE GRAPH"))
	s.WriteString("\n")
	s.WriteString(m.graph.View())
	s.WriteString("\n")
	s.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.Up, m.keys.Down, m.keys.Back, m.keys.Quit}))
	return s.String()
}

func (m Model) handleGraphKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Back) {
		m.viewMode = ViewBoard
		return m, nil
	}
	var cmd tea.Cmd
	m.graph, cmd = m.graph.Update(msg)
	return m, cmd
}

func (m Model) generateGraph() tea.Cmd {
	generator := m.graphGenerator()
	ctx := m.ctx
	return func() tea.Msg {
		dot, err := generator.GeneratePipelineGraph(ctx)
		return graphMsg{dot: dot, err: err}
	}
}
