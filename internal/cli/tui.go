package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/wayfinder/pkg/pipeline"
)

// List styles
var (
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	listFilterStyle = lipgloss.NewStyle().Foreground(colorCyan)
)

// =============================================================================
// PlaceListModel - Interactive place selection
// =============================================================================

// PlaceListModel is the bubbletea model for picking a place. Typing narrows
// the list by name, floor or label.
type PlaceListModel struct {
	Title    string
	Places   []pipeline.Place
	Filter   string
	Cursor   int
	Offset   int
	Height   int
	Selected *pipeline.Place

	visible []int
}

// NewPlaceListModel creates a picker over places.
func NewPlaceListModel(title string, places []pipeline.Place) PlaceListModel {
	m := PlaceListModel{Title: title, Places: places, Height: 15}
	m.refilter()
	return m
}

func (m PlaceListModel) Init() tea.Cmd {
	return nil
}

func (m PlaceListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case tea.KeyDown:
			if m.Cursor < len(m.visible)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case tea.KeyEnter:
			if len(m.visible) == 0 {
				return m, nil
			}
			p := m.Places[m.visible[m.Cursor]]
			m.Selected = &p
			return m, tea.Quit
		case tea.KeyBackspace:
			if m.Filter != "" {
				r := []rune(m.Filter)
				m.Filter = string(r[:len(r)-1])
				m.refilter()
			}
		case tea.KeySpace:
			m.Filter += " "
			m.refilter()
		case tea.KeyRunes:
			m.Filter += string(msg.Runes)
			m.refilter()
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

// refilter recomputes the visible rows and resets the cursor.
func (m *PlaceListModel) refilter() {
	q := strings.ToLower(strings.TrimSpace(m.Filter))
	m.visible = m.visible[:0]
	for i, p := range m.Places {
		if q == "" ||
			strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Label), q) ||
			strings.Contains(strings.ToLower(p.Floor.Name()), q) {
			m.visible = append(m.visible, i)
		}
	}
	m.Cursor, m.Offset = 0, 0
}

func (m PlaceListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("type to filter  ↑/↓ navigate  ⏎ select  esc quit"))
	b.WriteString("\n")
	b.WriteString(listFilterStyle.Render("› " + m.Filter))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.visible))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		p := m.Places[m.visible[i]]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, p.Name, p.Floor.Name(), p.Kind.String()})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Place", "Floor", "Kind").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col >= 2 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	if len(m.visible) == 0 {
		b.WriteString(listDimStyle.Render("  no matching places"))
	} else {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.visible))))
	}
	return b.String()
}

// pickPlace runs the picker and returns the chosen place, or nil if the
// user quit.
func pickPlace(title string, places []pipeline.Place) (*pipeline.Place, error) {
	final, err := tea.NewProgram(NewPlaceListModel(title, places)).Run()
	if err != nil {
		return nil, err
	}
	m, ok := final.(PlaceListModel)
	if !ok {
		return nil, nil
	}
	return m.Selected, nil
}
