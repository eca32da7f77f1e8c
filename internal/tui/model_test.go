package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tpsmap/internal/geom"
	"tpsmap/internal/layer"
	"tpsmap/internal/loader"
	"tpsmap/internal/locate"
	"tpsmap/internal/mapview"
	"tpsmap/internal/selection"
	"tpsmap/internal/store"
)

var home = geom.LatLng{Lat: -6.9175, Lng: 107.6191}

func newModel(t *testing.T, opts Options) Model {
	t.Helper()
	if opts.Loader == nil {
		// nothing exists in an empty dir, so every load falls back
		opts.Loader = loader.New(nil, loader.DefaultSources(t.TempDir()))
	}
	opts.Home = home
	opts.HomeZoom = 12
	opts.Tiles = mapview.TileLayer{Attribution: "© OpenStreetMap contributors"}
	if opts.Interval == 0 {
		opts.Interval = time.Hour
	}
	next, _ := New(opts).Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func loaded(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = update(t, m, m.loadCmd()())
	return m
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m, _ = update(t, m, msg)
	}
	return m
}

func click(t *testing.T, m Model, x, y int) (Model, tea.Cmd) {
	t.Helper()
	return update(t, m, tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
}

func TestFallbackLoadShowsSingleNotice(t *testing.T) {
	m := newModel(t, Options{})
	require.True(t, m.loading)

	m = loaded(t, m)
	assert.False(t, m.loading)
	assert.Equal(t, fallbackNotice, m.notice)
	assert.Equal(t, 4, m.carousel.Len())
	assert.Equal(t, selection.At(0), m.coord.Current())
	for _, n := range store.Names {
		assert.Equal(t, 4, m.store.Get(n).Len(), n)
	}
	assert.Contains(t, m.View(), "Showing sample data")

	m = press(t, m, "esc")
	assert.Empty(t, m.notice)
	assert.NotContains(t, m.View(), "Showing sample data")

	// a second fallback shows the same notice again, not a second one
	m, _ = update(t, m, m.loadCmd()())
	m, _ = update(t, m, m.loadCmd()())
	assert.Equal(t, fallbackNotice, m.notice)
}

func TestErrorsStayVisibleWithNotice(t *testing.T) {
	m := loaded(t, newModel(t, Options{}))
	require.Equal(t, fallbackNotice, m.notice)

	m = press(t, m, "/", "zzzq", "enter")
	view := m.View()
	assert.Contains(t, view, "No TPS matches")
	assert.Contains(t, view, "Showing sample data")

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")})
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	view = m.View()
	assert.Contains(t, view, "not supported")
	assert.Contains(t, view, "Showing sample data")
}

func TestSampleModeShowsNoFailureNotice(t *testing.T) {
	m := newModel(t, Options{})
	m.opts.Loader = nil

	m = loaded(t, m)
	assert.Empty(t, m.notice)
	assert.True(t, m.statusOK)
	assert.Contains(t, m.status, "(sample data)")
	assert.Equal(t, 4, m.carousel.Len())
	assert.NotContains(t, m.View(), fallbackNotice)
}

func TestLoadFromFiles(t *testing.T) {
	sample, err := loader.Sample()
	require.NoError(t, err)
	sample[store.TPS].Features = sample[store.TPS].Features[:2]

	m := newModel(t, Options{})
	m, _ = update(t, m, loadedMsg{res: loader.Result{Collections: sample}})
	assert.Empty(t, m.notice)
	assert.Equal(t, 2, m.carousel.Len())
	assert.Len(t, m.l.Items(), 2)
	assert.Contains(t, m.status, "loaded 2 TPS")
}

func TestReloadRejectedWhileLoading(t *testing.T) {
	m := newModel(t, Options{})
	require.True(t, m.loading)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Nil(t, cmd)
	assert.Equal(t, "A load is already in progress.", m.status)
	assert.False(t, m.statusOK)

	m = loaded(t, m)
	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.NotNil(t, cmd)
	assert.True(t, m.loading)
}

func TestSourceChangesDuringLoadAreCoalesced(t *testing.T) {
	m := newModel(t, Options{})
	m, _ = update(t, m, sourceChangedMsg{path: "data/TITIK_TPS.geojson"})
	m, _ = update(t, m, sourceChangedMsg{path: "data/JALAN_2.geojson"})
	assert.True(t, m.reloadPending)

	m, cmd := update(t, m, m.loadCmd()())
	assert.NotNil(t, cmd)
	assert.False(t, m.reloadPending)
	assert.True(t, m.loading, "one follow-up load is started")

	m = loaded(t, m)
	assert.False(t, m.loading)
}

func TestSlideKeysDoNotMoveMap(t *testing.T) {
	m := loaded(t, newModel(t, Options{}))
	flights := m.view.Flights()

	m = press(t, m, "n")
	assert.Equal(t, selection.At(1), m.coord.Current())
	i, ok := m.carousel.ActiveIndex()
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	m = press(t, m, "p", "p")
	assert.Equal(t, selection.At(3), m.coord.Current())
	assert.Equal(t, flights, m.view.Flights())
	assert.Equal(t, home, m.view.Center())
}

func TestZoomToSlide(t *testing.T) {
	m := loaded(t, newModel(t, Options{}))
	// first esc dismisses the fallback notice
	m = press(t, m, "esc", "]", "z")

	assert.Equal(t, geom.LatLng{Lat: -6.9456, Lng: 107.5789}, m.view.Center())
	assert.Equal(t, float64(selection.DefaultSearchZoom), m.view.Zoom())
	ref, p, ok := m.view.Panel()
	require.True(t, ok)
	assert.Equal(t, "tps", ref.Layer)
	assert.Equal(t, "TPS Kopo", p.Title)

	m = press(t, m, "esc")
	assert.False(t, m.hasPanel())

	m = press(t, m, "H")
	assert.Equal(t, home, m.view.Center())
	assert.Equal(t, 12.0, m.view.Zoom())
}

func TestSearch(t *testing.T) {
	m := loaded(t, newModel(t, Options{}))

	m = press(t, m, "/")
	require.True(t, m.searching)
	m = press(t, m, "ARCAMANIK", "enter")
	assert.False(t, m.searching)
	assert.Equal(t, selection.At(2), m.coord.Current())
	assert.Contains(t, m.status, "TPS Arcamanik")
	assert.Equal(t, geom.LatLng{Lat: -6.9012, Lng: 107.6789}, m.view.Center())
	assert.Equal(t, float64(selection.DefaultSearchZoom), m.view.Zoom())

	// address match
	m = press(t, m, "/", "pasteur no", "enter")
	assert.Equal(t, selection.At(3), m.coord.Current())

	m = press(t, m, "/", "cimahi", "enter")
	assert.Equal(t, selection.At(3), m.coord.Current())
	assert.Contains(t, m.status, "No TPS matches")
	assert.False(t, m.statusOK)

	m = press(t, m, "/", "enter")
	assert.Equal(t, "Enter a search keyword.", m.status)
}

func TestLayerToggle(t *testing.T) {
	m := loaded(t, newModel(t, Options{}))
	assert.False(t, m.view.LayerVisible("housing"))

	m = press(t, m, "4")
	assert.True(t, m.renderer.Visible(store.Housing))
	assert.True(t, m.view.LayerVisible("housing"))
	assert.Equal(t, "Housing layer: on", m.status)

	m = press(t, m, "1")
	assert.False(t, m.view.LayerVisible("tps"))
}

func TestCarouselHoverSuspendsAutoAdvance(t *testing.T) {
	m := loaded(t, newModel(t, Options{}))
	lo := m.layout()

	m, _ = update(t, m, tea.MouseMsg{X: lo.carX + 10, Y: lo.carY + 2, Action: tea.MouseActionMotion})
	assert.True(t, m.carousel.Suspended())

	m, cmd := update(t, m, tea.MouseMsg{X: lo.mapX + 10, Y: lo.mapY + 2, Action: tea.MouseActionMotion})
	assert.False(t, m.carousel.Suspended())
	assert.NotNil(t, cmd)
	assert.True(t, m.hoverHasGeo)
}

func TestAutoAdvanceTick(t *testing.T) {
	m := loaded(t, newModel(t, Options{Interval: 5 * time.Millisecond}))
	msg := m.carousel.Restart()()

	m, cmd := update(t, m, msg)
	assert.Equal(t, selection.At(1), m.coord.Current())
	assert.NotNil(t, cmd)

	// a tick from before the restart is stale
	m, cmd = update(t, m, msg)
	assert.Equal(t, selection.At(1), m.coord.Current())
	assert.Nil(t, cmd)
}

func TestCarouselClicks(t *testing.T) {
	m := loaded(t, newModel(t, Options{}))
	lo := m.layout()
	top := lo.carY + 1
	left := lo.carX + carouselPadX

	// third indicator
	m, _ = click(t, m, left+4, top+indicatorRow)
	assert.Equal(t, selection.At(2), m.coord.Current())
	assert.Equal(t, geom.LatLng{Lat: -6.9012, Lng: 107.6789}, m.view.Center())

	lo = m.layout()
	m, _ = click(t, m, lo.carX+carouselPadX, top+navRow)
	assert.Equal(t, selection.At(1), m.coord.Current())

	m, _ = click(t, m, lo.carX+carouselPadX+lo.carouselContentWidth()-1, top+navRow)
	assert.Equal(t, selection.At(2), m.coord.Current())
}

func TestMarkerClickSelects(t *testing.T) {
	m := loaded(t, newModel(t, Options{}))
	lo := m.layout()
	kopo := geom.LatLng{Lat: -6.9456, Lng: 107.5789}
	cx, cy := m.screenXY(kopo, lo.mapW, lo.mapH)
	require.True(t, lo.inMap(lo.mapX+cx, lo.mapY+cy))

	m, _ = click(t, m, lo.mapX+cx, lo.mapY+cy)
	assert.Equal(t, selection.At(1), m.coord.Current())
	i, _ := m.carousel.ActiveIndex()
	assert.Equal(t, 1, i)
	_, p, ok := m.view.Panel()
	require.True(t, ok)
	assert.Equal(t, "TPS Kopo", p.Title)
}

func TestShapeClickOpensPanelOnly(t *testing.T) {
	m := loaded(t, newModel(t, Options{}))
	lo := m.layout()
	// inside Regol, away from roads and markers
	cx, cy := m.screenXY(geom.LatLng{Lat: -6.944, Lng: 107.595}, lo.mapW, lo.mapH)

	m, _ = click(t, m, lo.mapX+cx, lo.mapY+cy)
	ref, p, ok := m.view.Panel()
	require.True(t, ok)
	assert.Equal(t, "districts", ref.Layer)
	assert.Equal(t, "District Regol", p.Title)
	assert.Equal(t, selection.At(0), m.coord.Current())
}

func TestLocate(t *testing.T) {
	here := geom.LatLng{Lat: -6.9147, Lng: 107.6098}
	m := loaded(t, newModel(t, Options{Locator: locate.Static{Position: here}}))

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")})
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	assert.Equal(t, here, m.view.Center())
	assert.Equal(t, 15.0, m.view.Zoom())
	ref, p, ok := m.view.Panel()
	require.True(t, ok)
	assert.Equal(t, layer.LocationLayer, ref.Layer)
	assert.Equal(t, "Your location", p.Title)

	m, _ = update(t, m, locatedMsg{err: locate.ErrPermissionDenied})
	assert.Equal(t, locate.Message(locate.ErrPermissionDenied), m.status)
	assert.Equal(t, here, m.view.Center())
}

func TestSidebarAndAttrs(t *testing.T) {
	m := loaded(t, newModel(t, Options{}))

	m = press(t, m, "tab", "down", "enter")
	assert.Equal(t, selection.At(1), m.coord.Current())

	m = press(t, m, "tab", "a")
	require.True(t, m.showAttrs)
	require.Len(t, m.tbl.Rows(), 4)
	assert.Equal(t, "#", m.tbl.Columns()[0].Title)
	assert.Equal(t, "name", m.tbl.Columns()[1].Title)
	assert.Equal(t, 1, m.tbl.Cursor())

	m = press(t, m, "down", "enter")
	assert.False(t, m.showAttrs)
	assert.Equal(t, selection.At(2), m.coord.Current())
}

func TestViewRendersCarouselAndMap(t *testing.T) {
	m := newModel(t, Options{})
	assert.Contains(t, m.View(), "No TPS data to display.")

	m = loaded(t, m)
	v := m.View()
	assert.Contains(t, v, "TPS Gedebage")
	assert.Contains(t, v, prevLabel)
	assert.Contains(t, v, "● ○ ○ ○")
	assert.Contains(t, v, "© OpenStreetMap contributors")
}
