// ABOUTME: Terminal pipeline board using the bubbletea framework
// ABOUTME: Cards move only after the store confirms the stage write; failures leave the card in place
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/leadgen/models"
	"github.com/harperreed/leadgen/pipeline"
	"github.com/harperreed/leadgen/viz"
)

type ViewMode int

const (
	ViewBoard ViewMode = iota
	ViewDetail
	ViewGraph
)

type boardLoadedMsg struct{ err error }

type moveDoneMsg struct {
	dealID string
	from   models.DealStage
	to     models.DealStage
	err    error
}

type graphMsg struct {
	dot string
	err error
}

type keyMap struct {
	Left, Right, Up, Down key.Binding
	MoveLeft, MoveRight   key.Binding
	Open, Graph, Reload   key.Binding
	Back, Quit            key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "column")),
		Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "column")),
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "card")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "card")),
		MoveLeft:  key.NewBinding(key.WithKeys("<", "shift+left"), key.WithHelp("<", "move back")),
		MoveRight: key.NewBinding(key.WithKeys(">", "shift+right"), key.WithHelp(">", "move forward")),
		Open:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Graph:     key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "graph")),
		Reload:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// Model is the main bubbletea model
type Model struct {
	ctx      context.Context
	board    *pipeline.Board
	names    map[string]string
	viewMode ViewMode
	keys     keyMap
	help     help.Model

	col, row int

	// pending is the deal whose stage write is in flight; the card has not moved yet.
	pending string
	status  string
	err     error

	graph viewport.Model

	width  int
	height int
}

// NewModel shows board; names maps contact IDs to display names.
func NewModel(ctx context.Context, board *pipeline.Board, names map[string]string) Model {
	if names == nil {
		names = map[string]string{}
	}
	return Model{
		ctx:      ctx,
		board:    board,
		names:    names,
		viewMode: ViewBoard,
		keys:     defaultKeys(),
		help:     help.New(),
		graph:    viewport.New(80, 20),
		width:    120,
		height:   30,
	}
}

// Run starts the full-screen board.
func Run(ctx context.Context, board *pipeline.Board, names map[string]string) error {
	_, err := tea.NewProgram(NewModel(ctx, board, names), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.loadBoard()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.graph.Width = msg.Width
		m.graph.Height = msg.Height - 6
		return m, nil
	case boardLoadedMsg:
		m.err = msg.err
		m.clampCursor()
		return m, nil
	case moveDoneMsg:
		return m.handleMoveDone(msg), nil
	case graphMsg:
		if msg.err != nil {
			m.err = msg.err
			m.viewMode = ViewBoard
			return m, nil
		}
		m.graph.SetContent(msg.dot)
		m.graph.GotoTop()
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewDetail:
		return m.renderDetailView()
	case ViewGraph:
		return m.renderGraphView()
	}
	return m.renderBoardView()
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	switch m.viewMode {
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewGraph:
		return m.handleGraphKeys(msg)
	}
	return m.handleBoardKeys(msg)
}

func (m Model) loadBoard() tea.Cmd {
	board := m.board
	ctx := m.ctx
	return func() tea.Msg {
		return boardLoadedMsg{err: board.Load(ctx)}
	}
}

// moveDeal issues the stage write. The card stays where it is until moveDoneMsg arrives.
func (m Model) moveDeal(d models.Deal, to models.DealStage) tea.Cmd {
	board := m.board
	ctx := m.ctx
	return func() tea.Msg {
		return moveDoneMsg{dealID: d.ID, from: d.Stage, to: to, err: board.Transition(ctx, d.ID, to)}
	}
}

func (m Model) handleMoveDone(msg moveDoneMsg) Model {
	m.pending = ""
	if msg.err != nil {
		m.err = fmt.Errorf("move to %s failed: %w", stageLabel(msg.to), msg.err)
		m.status = ""
		return m
	}

	m.err = nil
	d, _ := m.board.Deal(msg.dealID)
	m.status = fmt.Sprintf("✓ %s: %s → %s", d.Title, stageLabel(msg.from), stageLabel(msg.to))

	// Follow the card to its new column.
	for ci, col := range m.board.Columns() {
		for ri, cd := range col.Deals {
			if cd.ID == msg.dealID {
				m.col, m.row = ci, ri
			}
		}
	}
	return m
}

func (m *Model) clampCursor() {
	cols := m.board.Columns()
	if m.col < 0 {
		m.col = 0
	}
	if m.col >= len(cols) {
		m.col = len(cols) - 1
	}
	n := len(cols[m.col].Deals)
	if m.row >= n {
		m.row = n - 1
	}
	if m.row < 0 {
		m.row = 0
	}
}

// selected returns the deal under the cursor.
func (m Model) selected() (models.Deal, bool) {
	cols := m.board.Columns()
	if m.col < 0 || m.col >= len(cols) {
		return models.Deal{}, false
	}
	deals := cols[m.col].Deals
	if m.row < 0 || m.row >= len(deals) {
		return models.Deal{}, false
	}
	return deals[m.row], true
}

var stageLabels = map[models.DealStage]string{
	models.StageNew:         "Nouveau",
	models.StageContacted:   "Contacté",
	models.StageInterested:  "Intéressé",
	models.StageNegotiation: "Négociation",
	models.StageWon:         "Gagné",
	models.StageLost:        "Perdu",
}

func stageLabel(s models.DealStage) string {
	if l, ok := stageLabels[s]; ok {
		return l
	}
	return string(s)
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))
)

func (m Model) renderMessages() string {
	switch {
	case m.err != nil:
		return errorStyle.Render("✗ " + m.err.Error())
	case m.pending != "":
		return "Enregistrement…"
	case m.status != "":
		return statusStyle.Render(m.status)
	}
	return ""
}

func (m Model) graphGenerator() *viz.GraphGenerator {
	return viz.NewGraphGenerator(m.board, m.names)
}
