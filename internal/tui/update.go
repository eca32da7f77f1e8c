package tui

import (
	"errors"
	"fmt"
	"strings"

	list "github.com/charmbracelet/bubbles/list"
	spinner "github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"tpsmap/internal/carousel"
	"tpsmap/internal/layer"
	"tpsmap/internal/loader"
	"tpsmap/internal/locate"
	"tpsmap/internal/metrics"
	"tpsmap/internal/selection"
	"tpsmap/internal/store"
)

const fallbackNotice = "Could not load the data files. Showing sample data."

// layerKeys maps the number keys to the layers they toggle.
var layerKeys = map[string]store.Name{
	"1": store.TPS,
	"2": store.Roads,
	"3": store.Districts,
	"4": store.Housing,
}

var layerTitles = map[store.Name]string{
	store.TPS:       "TPS",
	store.Roads:     "Roads",
	store.Districts: "Districts",
	store.Housing:   "Housing",
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case loadedMsg:
		cmd := m.applyLoad(msg.res)
		return m, cmd

	case sourceChangedMsg:
		var cmds []tea.Cmd
		if m.opts.Watcher != nil {
			cmds = append(cmds, waitForChange(m.opts.Watcher.Changes()))
		}
		log.Info().Str("file", msg.path).Msg("Data source changed")
		if m.loading {
			m.reloadPending = true
		} else {
			cmds = append(cmds, m.startLoad())
		}
		return m, tea.Batch(cmds...)

	case carousel.TickMsg:
		ok, cmd := m.carousel.Tick(msg)
		if ok && m.carousel.Len() > 0 {
			m.coord.Advance(+1)
			metrics.SelectionsTotal.WithLabelValues("auto").Inc()
			m.syncSidebar()
		}
		return m, cmd

	case locatedMsg:
		m.applyLocation(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		cmd := m.handleMouse(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.searching {
		switch msg.String() {
		case "esc":
			m.searching = false
			m.search.Blur()
			m.setStatus("search cancelled")
			return m, nil
		case "enter":
			cmd := m.runSearch()
			return m, cmd
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}

	// If list is visible and filtering, send keys to list and ignore global commands
	if m.showSidebar && m.l.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.l, cmd = m.l.Update(msg)
		return m, cmd
	}

	if m.showAttrs {
		switch msg.String() {
		case "up", "down", "k", "j", "pgup", "pgdown", "home", "end", "g", "G":
			var cmd tea.Cmd
			m.tbl, cmd = m.tbl.Update(msg)
			return m, cmd
		case "enter":
			i := m.tbl.Cursor()
			m.showAttrs = false
			cmd := m.selected("table", m.coord.SelectByIndex(i))
			return m, cmd
		case "esc", "a":
			m.showAttrs = false
			return m, nil
		}
	}

	if m.showSidebar {
		switch msg.String() {
		case "up", "down", "k", "j", "pgup", "pgdown", "f":
			var cmd tea.Cmd
			m.l, cmd = m.l.Update(msg)
			return m, cmd
		case "enter":
			cmd := m.pickSidebar()
			return m, cmd
		}
	}

	switch key := msg.String(); key {
	case "q":
		return m, tea.Quit
	case "1", "2", "3", "4":
		name := layerKeys[key]
		on := m.renderer.Toggle(name)
		m.setStatus(fmt.Sprintf("%s layer: %s", layerTitles[name], onOff(on)))
	case "/":
		m.searching = true
		m.search.SetValue("")
		cmd := m.search.Focus()
		return m, cmd
	case "]", "n":
		cmd := m.advance(+1)
		return m, cmd
	case "[", "p":
		cmd := m.advance(-1)
		return m, cmd
	case "z":
		i, ok := m.carousel.ActiveIndex()
		if !ok {
			m.setError("No TPS selected.")
			return m, nil
		}
		cmd := m.selected("slide", m.coord.ZoomTo(i))
		return m, cmd
	case "H":
		m.view.SetView(m.opts.Home, m.opts.HomeZoom)
		m.setStatus("home view")
	case "+", "=":
		m.view.ZoomIn()
		m.setStatus(fmt.Sprintf("zoom: %.0f", m.view.Zoom()))
	case "-", "_":
		m.view.ZoomOut()
		m.setStatus(fmt.Sprintf("zoom: %.0f", m.view.Zoom()))
	case "up":
		m.pan(0, -2)
	case "down":
		m.pan(0, 2)
	case "left":
		m.pan(-4, 0)
	case "right":
		m.pan(4, 0)
	case "m":
		m.setStatus("locating…")
		cmd := m.locateCmd()
		return m, cmd
	case "r":
		if m.loading {
			m.setError("A load is already in progress.")
			return m, nil
		}
		cmd := m.startLoad()
		return m, cmd
	case "a":
		m.showAttrs = !m.showAttrs
		if m.showAttrs {
			m.refreshAttrs()
		}
	case "tab":
		m.showSidebar = !m.showSidebar
		m.resize()
		if m.showSidebar {
			m.syncSidebar()
		}
	case "h", "?":
		m.helpVisible = !m.helpVisible
	case "esc":
		switch {
		case m.notice != "":
			m.notice = ""
		case m.hasPanel():
			m.view.ClosePanel()
		case m.showSidebar:
			m.showSidebar = false
			m.resize()
		}
	}
	return m, nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	lo := m.layout()
	var cmds []tea.Cmd

	// entering the carousel pauses it; leaving restarts a full interval
	inCarousel := lo.inCarousel(msg.X, msg.Y)
	if inCarousel && !m.hoverCarousel {
		m.hoverCarousel = true
		m.carousel.Suspend()
	} else if !inCarousel && m.hoverCarousel {
		m.hoverCarousel = false
		cmds = append(cmds, m.carousel.Resume())
	}

	inMap := lo.inMap(msg.X, msg.Y) && !m.showAttrs
	if inMap {
		cx, cy := msg.X-lo.mapX, msg.Y-lo.mapY
		m.hoverHasGeo = true
		m.hoverPos = m.cellToLatLng(cx, cy, lo.mapW, lo.mapH)
		m.hoverName = ""
		if name, idx, ok := m.hitMarker(cx, cy, lo.mapW, lo.mapH); ok {
			if g, found := m.view.Group(name); found {
				for _, o := range g.Objects {
					if o.Index == idx {
						m.hoverName = o.Panel.Title
						break
					}
				}
			}
		}
	} else {
		m.hoverHasGeo = false
		m.hoverName = ""
	}

	if msg.Action != tea.MouseActionPress {
		return tea.Batch(cmds...)
	}
	switch msg.Button {
	case tea.MouseButtonLeft:
		switch {
		case inMap:
			cmds = append(cmds, m.clickMap(msg.X-lo.mapX, msg.Y-lo.mapY, lo))
		case inCarousel:
			cmds = append(cmds, m.clickCarousel(msg.X, msg.Y, lo))
		}
	case tea.MouseButtonWheelUp:
		if inMap {
			m.view.ZoomIn()
		}
	case tea.MouseButtonWheelDown:
		if inMap {
			m.view.ZoomOut()
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) clickMap(cx, cy int, lo layout) tea.Cmd {
	if name, idx, ok := m.hitMarker(cx, cy, lo.mapW, lo.mapH); ok {
		return m.clickObject(name, idx)
	}
	if name, idx, ok := m.hitShape(cx, cy, lo.mapW, lo.mapH); ok {
		return m.clickObject(name, idx)
	}
	m.view.ClosePanel()
	return nil
}

func (m *Model) clickObject(name string, idx int) tea.Cmd {
	if name == layer.LocationLayer {
		m.view.OpenPanel(name, idx)
		return nil
	}
	err := m.renderer.Click(store.Name(name), idx)
	if store.Name(name) == store.TPS {
		return m.selected("marker", err)
	}
	if err != nil {
		m.setError(err.Error())
		return nil
	}
	if _, p, ok := m.view.Panel(); ok {
		m.setStatus(p.Title)
	}
	return nil
}

func (m *Model) clickCarousel(x, y int, lo layout) tea.Cmd {
	if m.carousel.Len() == 0 {
		return nil
	}
	relX, relY := x-lo.carX-carouselPadX, y-lo.carY-1
	cw := lo.carouselContentWidth()
	if relX < 0 || relX >= cw {
		return nil
	}
	switch relY {
	case navRow:
		switch {
		case relX < len([]rune(prevLabel)):
			return m.advance(-1)
		case relX >= cw-len([]rune(nextLabel)):
			return m.advance(+1)
		}
		// the title zooms to the slide's point
		if i, ok := m.carousel.ActiveIndex(); ok {
			return m.selected("slide", m.coord.ZoomTo(i))
		}
	case indicatorRow:
		start, end := m.carousel.Window(indicatorSlots(cw))
		i := start + relX/2
		if i < end {
			return m.selected("indicator", m.coord.SelectByIndex(i))
		}
	}
	return nil
}

// advance steps the carousel and selection without moving the map.
func (m *Model) advance(dir int) tea.Cmd {
	if m.carousel.Len() == 0 {
		m.setError(carousel.Placeholder)
		return nil
	}
	m.coord.Advance(dir)
	return m.selected("slide", nil)
}

// selected finishes a user-driven selection: metrics, status, sidebar and a
// fresh auto-advance interval.
func (m *Model) selected(source string, err error) tea.Cmd {
	if err != nil {
		m.setError(err.Error())
		return nil
	}
	metrics.SelectionsTotal.WithLabelValues(source).Inc()
	m.syncSidebar()
	if s, ok := m.carousel.Active(); ok {
		m.setStatus(fmt.Sprintf("%s %s", s.Symbol, s.Title))
	}
	return m.carousel.Restart()
}

func (m *Model) runSearch() tea.Cmd {
	q := m.search.Value()
	m.searching = false
	m.search.Blur()
	_, err := m.coord.SelectByAttributeMatch(q)
	switch {
	case errors.Is(err, selection.ErrEmptyQuery):
		m.setError("Enter a search keyword.")
		return nil
	case errors.Is(err, selection.ErrNotFound):
		metrics.SearchMissesTotal.Inc()
		m.setError(fmt.Sprintf("No TPS matches %q. Try another keyword.", strings.TrimSpace(q)))
		return nil
	}
	return m.selected("search", err)
}

func (m *Model) startLoad() tea.Cmd {
	m.loading = true
	m.setStatus("Loading data…")
	return tea.Batch(m.spin.Tick, m.loadCmd())
}

func (m *Model) applyLoad(res loader.Result) tea.Cmd {
	m.loading = false
	cmd := m.adopt(res)
	if m.reloadPending {
		m.reloadPending = false
		return tea.Batch(cmd, m.startLoad())
	}
	return cmd
}

// adopt swaps the loaded collections in and rebuilds everything derived
// from them.
func (m *Model) adopt(res loader.Result) tea.Cmd {
	if res.Collections == nil {
		m.setError("Failed to load data: " + errString(res.Err))
		return nil
	}
	if err := m.store.Replace(res.Collections); err != nil {
		m.setError("Failed to load data: " + err.Error())
		return nil
	}
	m.renderer.RenderAll(m.store)
	m.carousel.Render(m.store.Get(store.TPS))
	m.coord.OnCollectionReplaced()
	m.refreshSidebar()
	if m.showAttrs {
		m.refreshAttrs()
	}
	if res.Fallback {
		m.notice = fallbackNotice
	}
	status := fmt.Sprintf("loaded %d TPS, %d roads, %d districts, %d housing areas",
		m.store.Get(store.TPS).Len(),
		m.store.Get(store.Roads).Len(),
		m.store.Get(store.Districts).Len(),
		m.store.Get(store.Housing).Len())
	if res.Sample {
		status += " (sample data)"
	}
	m.setStatus(status)
	return m.carousel.Restart()
}

func (m *Model) applyLocation(msg locatedMsg) {
	if msg.err != nil {
		m.setError(locate.Message(msg.err))
		return
	}
	m.view.ClearLayer(layer.LocationLayer)
	m.view.AddObject(layer.LocationLayer, layer.LocationMarker(msg.pos))
	m.view.SetView(msg.pos, m.opts.LocateZoom)
	m.view.OpenPanel(layer.LocationLayer, 0)
	m.setStatus("your location: " + msg.pos.String())
}

func (m *Model) resize() {
	lo := m.layout()
	m.l.SetSize(sidebarWidth, lo.mapH)
	m.tbl.SetHeight(max(3, min(lo.mapH-4, 20)))
}

func (m *Model) hasPanel() bool {
	_, _, ok := m.view.Panel()
	return ok
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusOK = true
}

func (m *Model) setError(s string) {
	m.status = s
	m.statusOK = false
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
