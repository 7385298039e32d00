// Package application is the terminal front end: a menu tree over one
// identity's list with a checklist screen for picking products.
package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/shoplist/internal/admin"
	"github.com/JonMunkholm/shoplist/internal/core"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type screen int

const (
	screenMenu screen = iota
	screenList
	screenPrompt
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).MarginBottom(1)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	headingStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	checkedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).MarginTop(1)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true).MarginTop(1)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Options configures the terminal front end.
type Options struct {
	// Identity owns the list. The zero value is the anonymous identity.
	Identity core.Identity

	// ExportDir receives exported files (default: current directory).
	ExportDir string

	Title           string
	ProductsPerPage int

	// Resetter enables the purge action for user managers when set.
	Resetter *admin.Resetter
}

// Model is the bubbletea model of the terminal front end.
type Model struct {
	ctx      context.Context
	svc      *core.Service
	id       core.Identity
	opts     Options
	resetter *admin.Resetter

	root   *Menu
	menu   *Menu
	cursor int

	screen screen
	list   listModel
	prompt promptModel

	status   string
	err      error
	busy     bool
	quitting bool
	width    int
	height   int
}

// New builds the model for opts.Identity.
func New(ctx context.Context, svc *core.Service, opts Options) *Model {
	if opts.Identity.Name == "" {
		opts.Identity = core.Anonymous()
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}
	m := &Model{
		ctx:      ctx,
		svc:      svc,
		id:       opts.Identity,
		opts:     opts,
		resetter: opts.Resetter,
		prompt:   newPrompt(),
	}
	m.root = buildMenuTree(m)
	m.menu = m.root
	return m
}

// Run starts the terminal front end and blocks until the user quits.
func Run(ctx context.Context, svc *core.Service, opts Options) error {
	p := tea.NewProgram(New(ctx, svc, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return m.loadList()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.screen {
		case screenList:
			return m.updateList(msg)
		case screenPrompt:
			return m.updatePrompt(msg)
		default:
			return m.updateMenu(msg)
		}

	case screenMsg:
		m.screen = msg.screen
		return m, nil

	case promptMsg:
		m.screen = screenPrompt
		return m, m.prompt.open(msg)

	case listMsg:
		m.list.set(msg.snap, m.svc.Sorter())
		return m, nil

	case DoneMsg:
		m.busy = false
		m.err = nil
		m.status = string(msg)
		return m, m.loadList()

	case ErrMsg:
		m.busy = false
		m.err = msg.Err
		return m, nil
	}

	if m.screen == screenPrompt {
		return m, m.prompt.update(msg)
	}
	return m, nil
}

// run starts cmd and marks the model busy until its result arrives.
func (m *Model) run(cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	m.busy = true
	m.err = nil
	m.status = "working..."
	return cmd
}

/* ----------------------------------------
	MENU SCREEN
---------------------------------------- */

func (m *Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.menu.Items)-1 {
			m.cursor++
		}
	case "esc", "backspace":
		if m.menu.Parent != nil {
			m.menu = m.menu.Parent
			m.cursor = 0
		}
	case "enter", " ":
		item := m.menu.Items[m.cursor]
		switch {
		case item.Submenu != nil:
			m.menu = item.Submenu
			m.cursor = 0
		case item.Action != nil:
			return m, m.run(item.Action())
		}
	}
	return m, nil
}

func (m *Model) viewMenu() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.menu.Title))
	b.WriteString("\n")
	for i, item := range m.menu.Items {
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + item.Label))
		} else {
			b.WriteString("  " + item.Label)
		}
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("\n↑/↓ move • enter select • esc back • q quit"))
	return b.String()
}

/* ----------------------------------------
	PROMPT SCREEN
---------------------------------------- */

type promptModel struct {
	title  string
	input  textinput.Model
	submit func(string) tea.Cmd
}

func newPrompt() promptModel {
	input := textinput.New()
	input.CharLimit = 1024
	input.Width = 60
	return promptModel{input: input}
}

func (p *promptModel) open(msg promptMsg) tea.Cmd {
	p.title = msg.title
	p.submit = msg.submit
	p.input.SetValue(msg.value)
	p.input.CursorEnd()
	return p.input.Focus()
}

func (p *promptModel) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return cmd
}

func (m *Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		value := strings.TrimSpace(m.prompt.input.Value())
		m.prompt.input.Blur()
		m.screen = screenMenu
		if m.prompt.submit == nil {
			return m, nil
		}
		return m, m.run(m.prompt.submit(value))
	case "esc":
		m.prompt.input.Blur()
		m.screen = screenMenu
		return m, nil
	}
	return m, m.prompt.update(msg)
}

func (m *Model) viewPrompt() string {
	return titleStyle.Render(m.prompt.title) + "\n" +
		m.prompt.input.View() + "\n" +
		helpStyle.Render("\nenter confirm • esc cancel")
}

/* ----------------------------------------
	VIEW
---------------------------------------- */

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.screen {
	case screenList:
		content = m.viewList()
	case screenPrompt:
		content = m.viewPrompt()
	default:
		content = m.viewMenu()
	}

	switch {
	case m.err != nil:
		content += "\n" + errorStyle.Render(fmt.Sprintf("Error: %s", core.FormatUserError(m.err)))
	case m.status != "":
		content += "\n" + statusStyle.Render(m.status)
	}
	return content
}
