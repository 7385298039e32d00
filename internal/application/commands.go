package application

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/JonMunkholm/shoplist/internal/admin"
	"github.com/JonMunkholm/shoplist/internal/core"
	"github.com/JonMunkholm/shoplist/internal/export"
	tea "github.com/charmbracelet/bubbletea"
)

// DoneMsg reports a finished action. The list is reloaded after it.
type DoneMsg string

// ErrMsg reports a failed action.
type ErrMsg struct{ Err error }

type listMsg struct{ snap core.Snapshot }

type screenMsg struct{ screen screen }

type promptMsg struct {
	title  string
	value  string
	submit func(string) tea.Cmd
}

func switchTo(s screen) tea.Cmd {
	return func() tea.Msg { return screenMsg{screen: s} }
}

func outcomeMsg(done string, out core.Outcome, err error) tea.Msg {
	if err != nil {
		return ErrMsg{Err: err}
	}
	if out.Warning != "" {
		return DoneMsg(done + " (" + out.Warning + ")")
	}
	return DoneMsg(done)
}

func (m *Model) loadList() tea.Cmd {
	return func() tea.Msg {
		snap, err := m.svc.Snapshot(m.ctx, m.id)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return listMsg{snap: snap}
	}
}

/* ----------------------------------------
	LIST ACTIONS
---------------------------------------- */

func (m *Model) listOp(done string, fn func(context.Context, core.Identity) (core.Outcome, error)) func() tea.Cmd {
	return func() tea.Cmd {
		return func() tea.Msg {
			out, err := fn(m.ctx, m.id)
			return outcomeMsg(done, out, err)
		}
	}
}

func (m *Model) resetList(reload bool) func() tea.Cmd {
	return func() tea.Cmd {
		return func() tea.Msg {
			out, err := m.svc.Reset(m.ctx, m.id, reload)
			return outcomeMsg("list reset", out, err)
		}
	}
}

func (m *Model) toggle(ref string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.svc.Toggle(m.ctx, m.id, ref)
		return outcomeMsg(describe(out), out, err)
	}
}

func (m *Model) setQuantity(ref string, q int) tea.Cmd {
	return func() tea.Msg {
		out, err := m.svc.SetQuantity(m.ctx, m.id, ref, q)
		return outcomeMsg(describe(out), out, err)
	}
}

func describe(out core.Outcome) string {
	if out.Product == nil {
		return "nothing changed"
	}
	if !out.Product.Checked {
		return out.Product.Name + " unchecked"
	}
	return fmt.Sprintf("%s x%d", out.Product.Name, out.Product.Quantity)
}

func (m *Model) promptObservations() tea.Cmd {
	current := m.list.observations
	return func() tea.Msg {
		return promptMsg{
			title: "Observations",
			value: current,
			submit: func(text string) tea.Cmd {
				return func() tea.Msg {
					out, err := m.svc.SetObservations(m.ctx, m.id, text)
					return outcomeMsg("observations saved", out, err)
				}
			},
		}
	}
}

func (m *Model) promptImportList() tea.Cmd {
	return func() tea.Msg {
		return promptMsg{title: "Text list to import (path)", submit: m.importList}
	}
}

func (m *Model) importList(path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return ErrMsg{Err: err}
		}
		defer f.Close()

		out, err := m.svc.ImportText(m.ctx, m.id, f)
		if err != nil || out.Import == nil {
			return outcomeMsg("list imported", out, err)
		}
		return outcomeMsg(fmt.Sprintf("list imported: %d updated, %d not found",
			out.Import.Updated, len(out.Import.Unmatched)), out, nil)
	}
}

func (m *Model) exportList(key string) tea.Cmd {
	return func() tea.Msg {
		snap, err := m.svc.Snapshot(m.ctx, m.id)
		if err != nil {
			return ErrMsg{Err: err}
		}

		layout := export.DefaultLayout()
		if m.opts.ProductsPerPage > 0 {
			layout.ProductsPerPage = m.opts.ProductsPerPage
		}
		path, err := export.WriteFile(m.opts.ExportDir, key, export.Document{
			Title:    m.opts.Title,
			User:     m.id.Name,
			Date:     time.Now(),
			Snapshot: snap,
			Sorter:   m.svc.Sorter(),
			Layout:   layout,
		})
		if err != nil {
			return ErrMsg{Err: err}
		}
		return DoneMsg("saved " + path)
	}
}

/* ----------------------------------------
	CATALOG ACTIONS
---------------------------------------- */

func (m *Model) promptImportCatalog() tea.Cmd {
	return func() tea.Msg {
		return promptMsg{title: "Catalog file to import (path)", submit: m.importCatalog}
	}
}

func (m *Model) importCatalog(path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return ErrMsg{Err: err}
		}
		defer f.Close()

		sum, err := m.svc.ImportCatalog(m.ctx, m.id, f)
		if err != nil {
			return ErrMsg{Err: err}
		}
		done := fmt.Sprintf("catalog imported: %d products in %d aisles", sum.Products, len(sum.Aisles))
		if sum.Warning != "" {
			done += " (" + sum.Warning + ")"
		}
		return DoneMsg(done)
	}
}

func (m *Model) exportCatalog() tea.Cmd {
	return func() tea.Msg {
		path := filepath.Join(m.opts.ExportDir, "catalogo.csv")
		f, err := os.Create(path)
		if err != nil {
			return ErrMsg{Err: err}
		}
		if err := m.svc.ExportCatalog(f); err != nil {
			f.Close()
			return ErrMsg{Err: err}
		}
		if err := f.Close(); err != nil {
			return ErrMsg{Err: err}
		}
		return DoneMsg("saved " + path)
	}
}

func (m *Model) purgeLists() tea.Cmd {
	return func() tea.Msg {
		deleted, err := m.resetter.Purge(m.ctx, admin.ScopeLists)
		if err != nil {
			return ErrMsg{Err: err}
		}
		m.svc.Close(m.id)
		return DoneMsg(fmt.Sprintf("%d saved lists purged", len(deleted)))
	}
}
