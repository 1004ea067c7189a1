package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/leadgen/viz"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

func (m Model) renderDetailView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("DEAL"))
	s.WriteString("\n")

	d, ok := m.selected()
	if !ok {
		s.WriteString("No deal selected\n")
	} else {
		s.WriteString(m.renderField("Title", d.Title))
		s.WriteString(m.renderField("Stage", stageLabel(d.Stage)))
		s.WriteString(m.renderField("Value", viz.FormatEuros(d.Value)))
		s.WriteString(m.renderField("Probability", fmt.Sprintf("%d%%", d.Probability)))
		s.WriteString(m.renderField("Weighted", viz.FormatEuros(d.WeightedValue())))
		if d.ContactID != nil {
			name := m.names[*d.ContactID]
			if name == "" {
				name = *d.ContactID
			}
			s.WriteString(m.renderField("Contact", name))
		}
		if d.ExpectedCloseDate != nil {
			s.WriteString(m.renderField("Expected close", d.ExpectedCloseDate.Format("2006-01-02")))
		}
		s.WriteString(m.renderField("Updated", d.UpdatedAt.Local().Format("2006-01-02 15:04")))
		s.WriteString(m.renderField("ID", d.ID))
	}

	if msg := m.renderMessages(); msg != "" {
		s.WriteString("\n")
		s.WriteString(msg)
	}
	s.WriteString("\n")
	s.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.MoveLeft, m.keys.MoveRight, m.keys.Back, m.keys.Quit}))
	return s.String()
}

func (m Model) renderField(label, value string) string {
	if value == "" {
		return ""
	}
	return fieldLabelStyle.Render(label+":") + " " + fieldValueStyle.Render(value) + "\n"
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.viewMode = ViewBoard
	case key.Matches(msg, m.keys.MoveLeft):
		return m.startMove(-1)
	case key.Matches(msg, m.keys.MoveRight):
		return m.startMove(1)
	}
	return m, nil
}
