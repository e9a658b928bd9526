package cli

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/nodeformat/pkg/graph"
	"github.com/matzehuels/nodeformat/pkg/layout"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// RootItem is one formattable subgraph, identified by its root.
type RootItem struct {
	Root    *graph.Node
	Members int
}

// candidateRoots returns the distinct roots of g's subgraphs in node order.
func candidateRoots(g *graph.Graph) []RootItem {
	index := make(map[*graph.Node]int)
	var items []RootItem
	for _, n := range g.Nodes() {
		if n.IsGroup() || n.IsKnot() {
			continue
		}
		r := layout.FindRoot(n)
		i, ok := index[r]
		if !ok {
			i = len(items)
			index[r] = i
			items = append(items, RootItem{Root: r})
		}
		items[i].Members++
	}
	return items
}

// RootListModel is the bubbletea model for interactive subgraph selection.
type RootListModel struct {
	Items    []RootItem
	Cursor   int
	Selected *graph.Node
	Height   int
	Offset   int
}

// NewRootListModel creates a new root list model.
func NewRootListModel(items []RootItem) RootListModel {
	return RootListModel{Items: items, Height: 15}
}

func (m RootListModel) Init() tea.Cmd {
	return nil
}

func (m RootListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Items)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Items) == 0 {
				return m, tea.Quit
			}
			m.Selected = m.Items[m.Cursor].Root
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m RootListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Subgraph"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ format  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Items))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		it := m.Items[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		title := it.Root.Title
		if title == "" {
			title = "—"
		}
		rows = append(rows, []string{cursor, string(it.Root.ID), title, it.Root.Kind.String(), strconv.Itoa(it.Members)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Root", "Title", "Kind", "Nodes").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			base := lipgloss.NewStyle()
			if idx == m.Cursor {
				return base.Foreground(colorGreen).Bold(true)
			}
			if idx < len(m.Items) && m.Items[idx].Root.Kind == graph.KindEvent {
				return base.Foreground(colorWhite)
			}
			return base.Foreground(colorGray)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Items))))

	return b.String()
}

// pickRoot asks the user to choose a subgraph and returns its root, or ""
// when the selection was abandoned.
func pickRoot(g *graph.Graph) (graph.NodeID, error) {
	items := candidateRoots(g)
	if len(items) == 0 {
		return "", nil
	}
	slices.SortStableFunc(items, func(a, b RootItem) int { return b.Members - a.Members })

	final, err := tea.NewProgram(NewRootListModel(items)).Run()
	if err != nil {
		return "", fmt.Errorf("run picker: %w", err)
	}
	m, ok := final.(RootListModel)
	if !ok || m.Selected == nil {
		return "", nil
	}
	return m.Selected.ID, nil
}
