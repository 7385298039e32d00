package application

import (
	"fmt"
	"slices"
	"strings"

	"github.com/JonMunkholm/shoplist/internal/core"
	tea "github.com/charmbracelet/bubbletea"
)

// listModel holds the rows of the checklist screen in display order.
type listModel struct {
	products     []core.Product
	observations string
	cursor       int
}

func (l *listModel) set(snap core.Snapshot, sorter *core.Sorter) {
	products := append([]core.Product(nil), snap.Products...)
	sorter.SortByName(products)
	slices.SortStableFunc(products, func(a, b core.Product) int {
		return sorter.CompareAisles(a.Aisle, b.Aisle)
	})

	l.products = products
	l.observations = snap.Observations
	l.cursor = min(l.cursor, max(len(products)-1, 0))
}

func (l *listModel) current() (core.Product, bool) {
	if l.cursor < 0 || l.cursor >= len(l.products) {
		return core.Product{}, false
	}
	return l.products[l.cursor], true
}

func (m *Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.screen = screenMenu
		return m, nil
	case "up", "k":
		if m.list.cursor > 0 {
			m.list.cursor--
		}
		return m, nil
	case "down", "j":
		if m.list.cursor < len(m.list.products)-1 {
			m.list.cursor++
		}
		return m, nil
	case "r":
		return m, m.loadList()
	}

	p, ok := m.list.current()
	if !ok {
		return m, nil
	}
	switch msg.String() {
	case " ", "enter", "x":
		return m, m.run(m.toggle(p.ID))
	case "+", "=", "right", "l":
		return m, m.run(m.setQuantity(p.ID, p.Quantity+1))
	case "-", "left", "h":
		return m, m.run(m.setQuantity(p.ID, p.Quantity-1))
	}
	return m, nil
}

func (m *Model) viewList() string {
	var lines []string
	cursorLine := 0
	checked := 0
	aisle := ""
	for i, p := range m.list.products {
		if i == 0 || p.Aisle != aisle {
			aisle = p.Aisle
			lines = append(lines, headingStyle.Render(core.AisleTitle(aisle)))
		}

		row := "[ ] " + p.Name
		if p.Checked {
			checked++
			row = checkedStyle.Render(fmt.Sprintf("[x] %s x%d", p.Name, p.Quantity))
		}
		if i == m.list.cursor {
			cursorLine = len(lines)
			row = selectedStyle.Render("> ") + row
		} else {
			row = "  " + row
		}
		lines = append(lines, row)
	}
	if len(lines) == 0 {
		lines = append(lines, "The catalog is empty.")
	}

	// Keep the cursor visible on short terminals.
	if visible := m.height - 8; visible > 0 && len(lines) > visible {
		start := min(max(cursorLine-visible/2, 0), len(lines)-visible)
		lines = lines[start : start+visible]
	}

	title := fmt.Sprintf("%s (%d checked)", m.id.Name, checked)
	return titleStyle.Render(title) + "\n" +
		strings.Join(lines, "\n") + "\n" +
		helpStyle.Render("\nspace toggle • +/- quantity • r reload • esc menu")
}
