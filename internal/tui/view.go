package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"tpsmap/internal/store"
)

const (
	headerHeight   = 1
	footerHeight   = 2
	sidebarWidth   = 28
	detailWidth    = 34
	carouselHeight = 7
)

// layout is the screen geometry shared by View and mouse handling.
type layout struct {
	width, height int
	// sidebarW includes the gap column after the list.
	sidebarW   int
	mapX, mapY int
	mapW, mapH int
	detailW    int
	carX, carY int
	carW, carH int
}

func (m Model) layout() layout {
	lo := layout{width: max(20, m.width), height: m.height}
	if m.showSidebar {
		lo.sidebarW = sidebarWidth + 1
	}
	if m.hasPanel() {
		lo.detailW = detailWidth
	}
	lo.carH = carouselHeight
	lo.mapH = max(4, m.height-headerHeight-footerHeight-lo.carH)
	lo.mapW = max(10, lo.width-lo.sidebarW-lo.detailW)
	lo.mapX = lo.sidebarW
	lo.mapY = headerHeight
	lo.carY = headerHeight + lo.mapH
	lo.carW = lo.width
	return lo
}

func (lo layout) inMap(x, y int) bool {
	return x >= lo.mapX && x < lo.mapX+lo.mapW && y >= lo.mapY && y < lo.mapY+lo.mapH
}

func (lo layout) inCarousel(x, y int) bool {
	return x >= lo.carX && x < lo.carX+lo.carW && y >= lo.carY && y < lo.carY+lo.carH
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	lo := m.layout()

	header := m.renderHeader(lo.width)

	var mapView string
	if m.showAttrs {
		mapView = m.renderAttrs(lo.mapW, lo.mapH)
	} else {
		// plain map canvas: no border, no background highlight
		mapView = lipgloss.NewStyle().Width(lo.mapW).Height(lo.mapH).Render(m.renderMap(lo.mapW, lo.mapH))
	}

	cols := make([]string, 0, 4)
	if m.showSidebar {
		cols = append(cols, lipgloss.NewStyle().Width(sidebarWidth).Height(lo.mapH).Render(m.l.View()), " ")
	}
	cols = append(cols, mapView)
	if lo.detailW > 0 {
		cols = append(cols, m.renderDetail(lo.detailW, lo.mapH))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, cols...)

	ui := lipgloss.JoinVertical(lipgloss.Left,
		header,
		body,
		m.renderCarousel(lo),
		m.renderFooter(lo.width),
	)
	return appStyle.Width(lo.width).Height(m.height).Render(ui)
}

func (m Model) renderHeader(width int) string {
	title := titleStyle.Render(" tpsmap ─ Bandung waste collection points ")
	var layers []string
	for _, n := range []store.Name{store.TPS, store.Roads, store.Districts, store.Housing} {
		label := layerTitles[n]
		if m.renderer.Visible(n) {
			layers = append(layers, buttonStyle.Render(label))
		} else {
			layers = append(layers, dimStyle.Render(label))
		}
	}
	right := strings.Join(layers, dimStyle.Render(" · "))
	if m.loading {
		right = m.spin.View() + " Loading data…  " + right
	}
	gap := max(1, width-lipgloss.Width(title)-lipgloss.Width(right)-1)
	return lipgloss.NewStyle().Width(width).MaxHeight(1).Render(title + strings.Repeat(" ", gap) + right)
}

func (m Model) renderDetail(w, h int) string {
	_, p, ok := m.view.Panel()
	if !ok {
		return ""
	}
	inner := w - 4
	lines := []string{titleStyle.Render(p.Title), ""}
	for _, f := range p.Fields {
		lines = append(lines, labelStyle.Render(f.Label))
		lines = append(lines, lipgloss.NewStyle().Width(inner).Render(f.Value))
	}
	lines = append(lines, "", dimStyle.Render("esc close"))
	return boxStyle.Width(w - 2).Height(h - 2).MaxHeight(h).Render(strings.Join(lines, "\n"))
}

func (m Model) renderAttrs(w, h int) string {
	// infer a reasonable width from columns
	colW := 0
	for _, c := range m.tbl.Columns() {
		colW += c.Width + 2
	}
	if colW == 0 {
		colW = min(60, w-6)
	}
	boxW := min(w, max(32, colW+4))
	m.tbl.SetWidth(boxW - 4)
	attrsBox := boxStyle.Width(boxW - 2).Render(m.tbl.View())
	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, attrsBox)
}

func (m Model) renderFooter(width int) string {
	status := errorStyle.Render(" " + m.status + " ")
	if m.statusOK {
		status = dimStyle.Render(" " + m.status + " ")
	}

	info := fmt.Sprintf("zoom %.0f", m.view.Zoom())
	if m.hoverHasGeo {
		info = fmt.Sprintf("%s  %s", m.hoverPos, info)
	}
	if m.hoverName != "" {
		info = m.hoverName + "  " + info
	}
	if attr := m.view.Attribution(); attr != "" {
		info += "  " + attr
	}
	info = dimStyle.Render(info + " ")
	spacer := max(1, width-lipgloss.Width(status)-lipgloss.Width(info))
	line1 := lipgloss.NewStyle().Width(width).MaxHeight(1).Render(status + strings.Repeat(" ", spacer) + info)

	// the notice takes the help line so the status line stays free for errors
	var line2 string
	switch {
	case m.searching:
		line2 = " " + m.search.View()
	case m.notice != "":
		line2 = noticeStyle.Render(" "+m.notice) + dimStyle.Render("  (esc to dismiss)")
	default:
		line2 = m.renderHelp()
	}
	line2 = lipgloss.NewStyle().Width(width).MaxHeight(1).Render(line2)
	return lipgloss.JoinVertical(lipgloss.Left, line1, line2)
}

func (m Model) renderHelp() string {
	if !m.helpVisible {
		return dimStyle.Render("  h help")
	}
	keys := []string{
		"↑↓←→ pan",
		"+/- zoom",
		"1-4 layers",
		"/ search",
		"[ ] slides",
		"z zoom to slide",
		"H home",
		"m my location",
		"r reload",
		"a attrs",
		"Tab list",
		"q quit",
	}
	return dimStyle.Render("  " + strings.Join(keys, "  "))
}
