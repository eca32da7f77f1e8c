package tui

import (
	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"tpsmap/internal/geom"
)

type tpsItem struct {
	title, desc string
	index       int
}

func (t tpsItem) Title() string       { return t.title }
func (t tpsItem) Description() string { return t.desc }
func (t tpsItem) FilterValue() string { return t.title + " " + t.desc }

// refreshSidebar rebuilds the list from the carousel slides.
func (m *Model) refreshSidebar() {
	slides := m.carousel.Slides()
	items := make([]list.Item, 0, len(slides))
	for _, s := range slides {
		desc := geom.Placeholder
		if len(s.Fields) > 0 {
			desc = s.Fields[0].Value
		}
		items = append(items, tpsItem{title: s.Symbol + " " + s.Title, desc: desc, index: s.Index})
	}
	m.l.ResetFilter()
	m.l.SetItems(items)
	m.syncSidebar()
}

// syncSidebar moves the list cursor to the current selection. A filtered
// list keeps its own cursor.
func (m *Model) syncSidebar() {
	if m.l.FilterState() != list.Unfiltered {
		return
	}
	if i, ok := m.coord.Current().Index(); ok && i < len(m.l.Items()) {
		m.l.Select(i)
	}
}

func (m *Model) pickSidebar() tea.Cmd {
	it, ok := m.l.SelectedItem().(tpsItem)
	if !ok {
		return nil
	}
	return m.selected("list", m.coord.SelectByIndex(it.index))
}
