package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/phylotangle/phylotangle/pkg/tree"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// TreeModel - Interactive clade browser
// =============================================================================

// treeRow is one visible line of the browser: a node plus its indentation
// depth.
type treeRow struct {
	node  *tree.Node
	depth int
}

// TreeModel is the bubbletea model for browsing and reordering a tree.
// Collapsed clades are tracked by node so expanding restores the subtree.
type TreeModel struct {
	Root      *tree.Node
	Cursor    int
	Height    int
	Offset    int
	Modified  bool
	collapsed map[*tree.Node]bool
	rows      []treeRow
}

// NewTreeModel creates a browser model rooted at root.
func NewTreeModel(root *tree.Node) TreeModel {
	m := TreeModel{
		Root:      root,
		Height:    20,
		collapsed: make(map[*tree.Node]bool),
	}
	m.reflow()
	return m
}

// reflow rebuilds the visible rows after a structural change.
func (m *TreeModel) reflow() {
	m.rows = m.rows[:0]
	var visit func(n *tree.Node, depth int)
	visit = func(n *tree.Node, depth int) {
		m.rows = append(m.rows, treeRow{node: n, depth: depth})
		if m.collapsed[n] {
			return
		}
		for _, c := range n.Children() {
			visit(c, depth+1)
		}
	}
	visit(m.Root, 0)

	if m.Cursor >= len(m.rows) {
		m.Cursor = len(m.rows) - 1
	}
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
}

func (m TreeModel) Init() tea.Cmd {
	return nil
}

func (m TreeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter", " ":
			n := m.rows[m.Cursor].node
			if !n.IsLeaf() {
				m.collapsed[n] = !m.collapsed[n]
				m.reflow()
			}
		case "s":
			n := m.rows[m.Cursor].node
			if n.ChildCount() >= 2 {
				if err := n.SwapChildren(0, n.ChildCount()-1); err == nil {
					m.Modified = true
					m.reflow()
				}
			}
		case "l":
			tree.Ladderize(m.Root, false)
			m.Modified = true
			m.reflow()
		case "L":
			tree.Ladderize(m.Root, true)
			m.Modified = true
			m.reflow()
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m TreeModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Browse Tree"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ collapse  s swap  l/L ladderize  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.rows) {
		end = len(m.rows)
	}

	for i := m.Offset; i < end; i++ {
		row := m.rows[i]
		n := row.node

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		line := cursor + strings.Repeat("  ", row.depth) + nodeLabel(n, m.collapsed[n])

		switch {
		case i == m.Cursor:
			b.WriteString(listSelectedStyle.Render(line))
		case n.IsLeaf():
			b.WriteString(listNormalStyle.Render(line))
		default:
			b.WriteString(listDimStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.rows))))
	if m.Modified {
		b.WriteString(listDimStyle.Render("  modified"))
	}

	return b.String()
}

// nodeLabel formats a single browser row for a node.
func nodeLabel(n *tree.Node, collapsed bool) string {
	name := n.Name
	if name == "" {
		name = fmt.Sprintf("clade (%d leaves)", tree.LeafCount(n))
	}
	if collapsed {
		name += " …"
	}
	if n.Length != 0 {
		return fmt.Sprintf("%s  :%g", name, n.Length)
	}
	return name
}
