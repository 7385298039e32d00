package application

import (
	"github.com/JonMunkholm/shoplist/internal/core"
	"github.com/JonMunkholm/shoplist/internal/export"
	tea "github.com/charmbracelet/bubbletea"
)

/* ----------------------------------------
	MENU TREE
---------------------------------------- */

type MenuItem struct {
	Label   string
	Submenu *Menu
	Action  func() tea.Cmd
}

type Menu struct {
	Title  string
	Items  []MenuItem
	Parent *Menu
}

/* ----------------------------------------
	MENU TREE DEFINITION
---------------------------------------- */

func linkParents(menu *Menu, parent *Menu) {
	menu.Parent = parent

	for i := range menu.Items {
		item := &menu.Items[i]

		if item.Label == "Back" {
			item.Submenu = parent
			continue
		}

		if item.Submenu != nil {
			linkParents(item.Submenu, menu)
		}
	}
}

func buildMenuTree(m *Model) *Menu {
	items := []MenuItem{
		{Label: "View list", Action: func() tea.Cmd { return switchTo(screenList) }},
		{Label: "Observations...", Action: m.promptObservations},
		{Label: "Import list...", Action: m.promptImportList},
		{Label: "Export ->", Submenu: loadExportMenu(m)},
		{Label: "Reset ->", Submenu: loadResetMenu(m)},
	}
	if m.id.Can(core.CapImportCatalog) || m.id.Can(core.CapEditMaster) {
		items = append(items, MenuItem{Label: "Catalog ->", Submenu: loadCatalogMenu(m)})
	}
	items = append(items, MenuItem{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }})

	root := &Menu{
		Title: "Shopping list: " + m.id.Name,
		Items: items,
	}

	linkParents(root, nil)

	return root
}

/* ----------------------------------------
	LOAD MENUS
---------------------------------------- */

func loadExportMenu(m *Model) *Menu {
	var items []MenuItem
	for _, f := range export.All() {
		key := f.Key
		items = append(items, MenuItem{
			Label:  f.Label,
			Action: func() tea.Cmd { return m.exportList(key) },
		})
	}
	items = append(items, MenuItem{Label: "Back"})

	return &Menu{Title: "Export", Items: items}
}

func loadResetMenu(m *Model) *Menu {
	return &Menu{
		Title: "Reset",
		Items: []MenuItem{
			{Label: "Clear selection", Action: m.listOp("selection cleared", m.svc.ClearAll)},
			{Label: "Show all products", Action: m.listOp("every product restored", m.svc.ShowAll)},
			{Label: "Reset list", Action: m.resetList(false)},
			{Label: "Reset and reload catalog", Action: m.resetList(true)},
			{Label: "Back"},
		},
	}
}

func loadCatalogMenu(m *Model) *Menu {
	items := []MenuItem{}
	if m.id.Can(core.CapImportCatalog) {
		items = append(items, MenuItem{Label: "Import catalog...", Action: m.promptImportCatalog})
	}
	if m.id.Can(core.CapEditMaster) {
		items = append(items, MenuItem{Label: "Export catalog", Action: m.exportCatalog})
	}
	if m.resetter != nil && m.id.Can(core.CapManageUsers) {
		items = append(items, MenuItem{Label: "Purge every saved list", Action: m.purgeLists})
	}
	items = append(items, MenuItem{Label: "Back"})

	return &Menu{Title: "Catalog", Items: items}
}
