package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/warren/pkg/layout"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listItemStyle     = lipgloss.NewStyle().Foreground(colorYellow)
)

// armTreeKeys are the arm browser bindings.
type armTreeKeys struct {
	Up, Down, Top, Bottom, Parent, Help, Quit key.Binding
}

func newArmTreeKeys() armTreeKeys {
	return armTreeKeys{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Top:    key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "first arm")),
		Bottom: key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "last arm")),
		Parent: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "parent")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k armTreeKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Parent, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k armTreeKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.Parent, k.Help, k.Quit},
	}
}

// =============================================================================
// ArmTreeModel - Interactive arm browser
// =============================================================================

// ArmTreeModel is the bubbletea model behind inspect. The upper pane lists
// the arms in tree order; the lower pane tables the rooms of the selected arm.
type ArmTreeModel struct {
	Layout *layout.Layout
	Cursor int
	Height int // Visible arm rows
	Offset int

	keys  armTreeKeys
	help  help.Model
	rooms map[int][]layout.Room // Rooms by arm
	open  map[int]int           // Open exits by arm
}

// NewArmTreeModel creates a browser over l.
func NewArmTreeModel(l *layout.Layout) ArmTreeModel {
	m := ArmTreeModel{
		Layout: l,
		Height: 12,
		keys:   newArmTreeKeys(),
		help:   help.New(),
		rooms:  make(map[int][]layout.Room),
		open:   make(map[int]int),
	}
	for _, r := range l.Rooms {
		m.rooms[r.Node] = append(m.rooms[r.Node], r)
	}
	for _, e := range l.Exits {
		if e.Open {
			m.open[e.Node]++
		}
	}
	return m
}

func (m ArmTreeModel) Init() tea.Cmd {
	return nil
}

func (m ArmTreeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			m.move(m.Cursor - 1)
		case key.Matches(msg, m.keys.Down):
			m.move(m.Cursor + 1)
		case key.Matches(msg, m.keys.Top):
			m.move(0)
		case key.Matches(msg, m.keys.Bottom):
			m.move(len(m.Layout.Arms) - 1)
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Parent):
			if a, ok := m.Selected(); ok {
				for i, b := range m.Layout.Arms {
					if b.ID == a.Parent {
						m.move(i)
						break
					}
				}
			}
		}
	case tea.WindowSizeMsg:
		// Leave room for the header and the room table.
		m.Height = max(msg.Height/2-4, 5)
		m.help.Width = msg.Width
		m.move(m.Cursor)
	}
	return m, nil
}

// move places the cursor at i, clamped, and scrolls it into view.
func (m *ArmTreeModel) move(i int) {
	i = min(i, len(m.Layout.Arms)-1)
	i = max(i, 0)
	m.Cursor = i
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

// Selected returns the arm under the cursor.
func (m ArmTreeModel) Selected() (layout.Arm, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Layout.Arms) {
		return layout.Arm{}, false
	}
	return m.Layout.Arms[m.Cursor], true
}

func (m ArmTreeModel) View() string {
	var b strings.Builder
	l := m.Layout

	status := StyleSuccess.Render("complete")
	if !l.Complete {
		status = stylePartial.Render("partial")
	}
	b.WriteString(StyleTitle.Render("Layout "+l.Seed) + "  " + status)
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%d x %d · %s · %s",
		l.Width, l.Height, plural(len(l.Rooms), "room"), plural(len(l.Arms), "arm"))))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(l.Arms))
	for i := m.Offset; i < end; i++ {
		line := m.armLine(l.Arms[i])
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render("▸ " + line))
		} else {
			b.WriteString(listNormalStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}
	if len(l.Arms) > m.Height {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(l.Arms))))
		b.WriteString("\n")
	}

	if a, ok := m.Selected(); ok {
		b.WriteString("\n")
		b.WriteString(m.roomTable(a))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// armLine describes one arm, indented by depth.
func (m ArmTreeModel) armLine(a layout.Arm) string {
	end := a.End
	if a.ItemType != "" {
		end += "(" + a.ItemType + ")"
	}
	line := fmt.Sprintf("%sarm %d · %s · %d/%d placed", strings.Repeat("  ", a.Depth), a.ID, end, a.Placed, a.Length+1)
	if n := m.open[a.ID]; n > 0 {
		line += fmt.Sprintf(" · %d open", n)
	}
	return line
}

func (m ArmTreeModel) roomTable(a layout.Arm) string {
	rooms := m.rooms[a.ID]
	if len(rooms) == 0 {
		return listDimStyle.Render("  no rooms placed")
	}

	rows := make([][]string, len(rooms))
	for i, r := range rooms {
		step := strconv.Itoa(r.Step)
		if r.Terminal {
			step += "*"
		}
		rows[i] = []string{step, r.Template, r.Kind, r.Rect.String(), strconv.Itoa(len(r.Doors)), r.Item}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Step", "Template", "Kind", "Rect", "Doors", "Item").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 5:
				return listItemStyle
			case col == 0 || col == 3:
				return listDimStyle
			}
			return listNormalStyle
		}).
		Render()
}

// armOutline renders the arm tree without interaction, for pipes.
func armOutline(l *layout.Layout) string {
	m := NewArmTreeModel(l)
	var b strings.Builder
	for _, a := range l.Arms {
		b.WriteString(m.armLine(a))
		b.WriteString("\n")
	}
	return b.String()
}
