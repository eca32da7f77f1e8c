package tui

import (
	"time"

	key "github.com/charmbracelet/bubbles/key"
	list "github.com/charmbracelet/bubbles/list"
	spinner "github.com/charmbracelet/bubbles/spinner"
	table "github.com/charmbracelet/bubbles/table"
	textinput "github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"tpsmap/internal/carousel"
	"tpsmap/internal/geom"
	"tpsmap/internal/layer"
	"tpsmap/internal/loader"
	"tpsmap/internal/locate"
	"tpsmap/internal/mapview"
	"tpsmap/internal/selection"
	"tpsmap/internal/store"
)

// Options wires the viewer to its data and settings.
type Options struct {
	Loader  *loader.Loader
	Locator locate.Locator
	// Watcher is optional; source changes trigger a reload.
	Watcher *loader.Watcher

	Home          geom.LatLng
	HomeZoom      float64
	FocusZoom     float64
	SearchZoom    float64
	LocateZoom    float64
	Interval      time.Duration
	FetchTimeout  time.Duration
	LocateTimeout time.Duration
	Visibility    layer.Visibility
	Tiles         mapview.TileLayer
}

type Model struct {
	width  int
	height int

	showSidebar bool
	helpVisible bool
	showAttrs   bool
	searching   bool

	status   string
	statusOK bool
	// notice is the one-off fallback message; esc dismisses it.
	notice string

	opts Options

	// core
	store    *store.Store
	view     *mapview.Memory
	renderer *layer.Renderer
	coord    *selection.Coordinator
	carousel *carousel.Controller

	// loading
	loading       bool
	reloadPending bool
	spin          spinner.Model

	// carousel hover suspends auto-advance
	hoverCarousel bool

	// map hover
	hoverHasGeo bool
	hoverPos    geom.LatLng
	hoverName   string

	search textinput.Model
	l      list.Model
	tbl    table.Model
}

func New(opts Options) Model {
	if opts.HomeZoom <= 0 {
		opts.HomeZoom = 12
	}
	if opts.LocateZoom <= 0 {
		opts.LocateZoom = 15
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 15 * time.Second
	}
	if opts.LocateTimeout <= 0 {
		opts.LocateTimeout = 10 * time.Second
	}
	if opts.Visibility == nil {
		opts.Visibility = layer.DefaultVisibility()
	}
	if opts.Locator == nil {
		opts.Locator = locate.Unsupported{}
	}

	m := Model{
		helpVisible: true,
		status:      "Loading data…",
		opts:        opts,
		loading:     true,
		store:       store.NewStore(),
		view:        mapview.NewMemory(opts.Home, opts.HomeZoom),
		carousel:    carousel.New(opts.Interval),
	}
	m.view.AddTileLayer(opts.Tiles)
	order := make([]string, 0, len(store.Names)+1)
	for _, n := range store.Names {
		order = append(order, string(n))
	}
	m.view.SetOrder(append(order, layer.LocationLayer)...)
	m.coord = selection.NewCoordinator(m.store, m.view, m.carousel, opts.FocusZoom)
	m.coord.SetSearchZoom(opts.SearchZoom)
	m.renderer = layer.New(m.view, m.coord, opts.Visibility)

	m.spin = spinner.New(spinner.WithSpinner(spinner.Dot))
	m.spin.Style = titleStyle

	m.search = textinput.New()
	m.search.Prompt = "/ "
	m.search.Placeholder = "search TPS by name or address"
	m.search.CharLimit = 120

	// list setup
	d := list.NewDefaultDelegate()
	m.l = list.New(nil, d, 0, 0)
	m.l.Title = "TPS"
	m.l.SetShowHelp(false)
	m.l.SetShowStatusBar(false)
	m.l.SetFilteringEnabled(true)
	// "/" belongs to the search box
	m.l.KeyMap.Filter = key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter"))

	m.tbl = table.New(table.WithFocused(true))
	m.tbl.SetHeight(12)
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spin.Tick, m.loadCmd(), m.carousel.Start()}
	if m.opts.Watcher != nil {
		cmds = append(cmds, waitForChange(m.opts.Watcher.Changes()))
	}
	return tea.Batch(cmds...)
}
