// Package preview shows sliced layers in the terminal.
package preview

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Faultbox/layerslice/pkg/slicer"
)

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Bottom key.Binding
	Top    key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.Bottom, k.Top}, {k.Help, k.Quit}}
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k", "pgup"),
		key.WithHelp("↑/k", "layer up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j", "pgdown"),
		key.WithHelp("↓/j", "layer down"),
	),
	Bottom: key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g", "bottom layer"),
	),
	Top: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "top layer"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// Model browses a stack of layers, one at a time.
type Model struct {
	layers []*slicer.Layer
	cur    int

	width  int
	height int

	keys keyMap
	help help.Model
}

// New returns a model showing layers (ordered by index), starting at start.
func New(layers []*slicer.Layer, start int) Model {
	m := Model{
		layers: layers,
		width:  80,
		height: 24,
		keys:   keys,
		help:   help.New(),
	}
	m.setLayer(start)
	return m
}

func (m *Model) setLayer(i int) {
	m.cur = max(0, min(i, len(m.layers)-1))
}

// Current returns the index into the stack of the layer on screen.
func (m Model) Current() int {
	return m.cur
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			m.setLayer(m.cur + 1)
		case key.Matches(msg, m.keys.Down):
			m.setLayer(m.cur - 1)
		case key.Matches(msg, m.keys.Bottom):
			m.setLayer(0)
		case key.Matches(msg, m.keys.Top):
			m.setLayer(len(m.layers) - 1)
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}
	return m, nil
}

// statusLine summarizes layer l, shown as number pos of total.
func statusLine(l *slicer.Layer, pos, total int) string {
	return fmt.Sprintf("layer %d/%d  z=%.3f  filled=%d/%d",
		pos, total, l.Z, l.Filled(), l.Width*l.Height)
}

func (m Model) status() string {
	if len(m.layers) == 0 {
		return "no layers"
	}
	return statusLine(m.layers[m.cur], m.cur+1, len(m.layers))
}

func (m Model) View() string {
	title := titleStyle.Render("layerslice preview")
	status := dimStyle.Render(m.status())
	helpView := m.help.View(m.keys)

	// border and padding take 4 columns and 2 rows
	cols := max(1, m.width-4)
	rows := max(1, m.height-lipgloss.Height(title)-lipgloss.Height(status)-lipgloss.Height(helpView)-2)

	var body string
	if len(m.layers) > 0 {
		body = layerStyle.Render(Render(m.layers[m.cur], cols, rows))
	}
	return appStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		boxStyle.Render(body),
		status,
		helpView,
	))
}

// Run starts the interactive browser on the alternate screen.
func Run(layers []*slicer.Layer, start int) error {
	_, err := tea.NewProgram(New(layers, start), tea.WithAltScreen()).Run()
	return err
}

// Static renders one layer with its status line, for non-interactive output.
func Static(l *slicer.Layer, total, cols, rows int) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		boxStyle.Render(Render(l, cols, rows)),
		dimStyle.Render(statusLine(l, l.Index+1, total)),
	)
}
