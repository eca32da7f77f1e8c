package tui

import (
	"fmt"
	"sort"

	table "github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"tpsmap/internal/geom"
	"tpsmap/internal/store"
)

// knownAttrs lead the table in this order; other keys follow alphabetically.
var knownAttrs = []string{"name", "address", "capacity", "contact", "type", "description"}

const maxColW = 24

// refreshAttrs rebuilds the table columns/rows from the TPS collection
func (m *Model) refreshAttrs() {
	cols, rows := buildAttributes(m.store.Get(store.TPS))
	if len(rows) == 0 {
		m.showAttrs = false
		m.setError("no TPS attributes to show")
		return
	}
	tcols := make([]table.Column, 0, len(cols)+1)
	tcols = append(tcols, table.Column{Title: "#", Width: max(2, len(fmt.Sprint(len(rows))))})
	for ci, c := range cols {
		w := lipgloss.Width(c)
		for _, r := range rows {
			w = max(w, lipgloss.Width(r[ci]))
		}
		tcols = append(tcols, table.Column{Title: c, Width: min(w, maxColW)})
	}
	trows := make([]table.Row, 0, len(rows))
	for i, r := range rows {
		row := make([]string, 0, len(r)+1)
		row = append(row, fmt.Sprintf("%d", i+1))
		row = append(row, r...)
		trows = append(trows, table.Row(row))
	}
	// Avoid transient mismatch: clear rows, set columns, then set rows
	m.tbl.SetRows(nil)
	m.tbl.SetColumns(tcols)
	m.tbl.SetRows(trows)
	if i, ok := m.coord.Current().Index(); ok && i < len(trows) {
		m.tbl.SetCursor(i)
	}
}

// buildAttributes unions the property keys of every feature and returns
// (columns, rows). Missing values read as the placeholder.
func buildAttributes(col store.Collection) ([]string, [][]string) {
	if col.Len() == 0 {
		return nil, nil
	}
	seen := map[string]bool{}
	order := append([]string(nil), knownAttrs...)
	for _, k := range knownAttrs {
		seen[k] = true
	}
	var extra []string
	for i := 0; i < col.Len(); i++ {
		for k := range col.At(i).Properties {
			if !seen[k] {
				seen[k] = true
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)
	order = append(order, extra...)

	rows := make([][]string, 0, col.Len())
	for i := 0; i < col.Len(); i++ {
		props := col.At(i).Properties
		vals := make([]string, 0, len(order))
		for _, k := range order {
			if k == "name" {
				vals = append(vals, geom.Name(props))
				continue
			}
			vals = append(vals, geom.Attr(props, k))
		}
		rows = append(rows, vals)
	}
	return order, rows
}
