// Package carousel keeps one slide per waste-collection point and advances
// through them on a timer.
package carousel

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"tpsmap/internal/geom"
	"tpsmap/internal/layer"
	"tpsmap/internal/mapview"
	"tpsmap/internal/selection"
	"tpsmap/internal/store"
)

const (
	DefaultInterval = 5 * time.Second
	Placeholder     = "No TPS data to display."
)

var lastID int64

func nextID() int {
	return int(atomic.AddInt64(&lastID, 1))
}

// Slide is the carousel view of one feature.
type Slide struct {
	Index    int
	Title    string
	Symbol   string
	Color    string
	Position geom.LatLng
	Fields   []mapview.Field
}

// TickMsg fires the auto-advance. Ticks from before the last Suspend,
// Resume or Restart are ignored.
type TickMsg struct {
	Time time.Time
	id   int
	tag  int
}

type Controller struct {
	id       int
	interval time.Duration

	slides []Slide
	active selection.Selection

	suspended bool
	tag       int
}

func New(interval time.Duration) *Controller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Controller{id: nextID(), interval: interval}
}

func (c *Controller) Interval() time.Duration { return c.interval }

// Render rebuilds the slides from the TPS collection, in collection order.
func (c *Controller) Render(col store.Collection) {
	c.slides = make([]Slide, 0, col.Len())
	for i := 0; i < col.Len(); i++ {
		f := col.At(i)
		props := f.Properties
		pos, _ := geom.Representative(f.Geometry)
		category, _ := geom.RawAttr(props, "type")
		style := layer.MarkerFor(category)
		c.slides = append(c.slides, Slide{
			Index:    i,
			Title:    geom.Name(props),
			Symbol:   style.Symbol,
			Color:    style.Color,
			Position: pos,
			Fields: []mapview.Field{
				{Label: "Address", Value: geom.Attr(props, "address")},
				{Label: "Capacity", Value: geom.Attr(props, "capacity")},
				{Label: "Description", Value: geom.Attr(props, "description")},
				{Label: "Contact", Value: geom.Attr(props, "contact")},
			},
		})
	}
	c.active = selection.None()
}

func (c *Controller) Slides() []Slide { return c.slides }

func (c *Controller) Len() int { return len(c.slides) }

// Placeholder returns the message shown instead of slides, if any.
func (c *Controller) Placeholder() (string, bool) {
	if len(c.slides) == 0 {
		return Placeholder, true
	}
	return "", false
}

// Indicators returns one flag per slide, true for the active one.
func (c *Controller) Indicators() []bool {
	out := make([]bool, len(c.slides))
	if i, ok := c.active.Index(); ok && i < len(out) {
		out[i] = true
	}
	return out
}

// Show makes sel the active slide. Selections outside the slides are
// treated as none.
func (c *Controller) Show(sel selection.Selection) {
	if i, ok := sel.Index(); ok && (i < 0 || i >= len(c.slides)) {
		sel = selection.None()
	}
	c.active = sel
}

func (c *Controller) ActiveIndex() (int, bool) { return c.active.Index() }

// Active returns the active slide.
func (c *Controller) Active() (Slide, bool) {
	i, ok := c.active.Index()
	if !ok {
		return Slide{}, false
	}
	return c.slides[i], true
}

// Window returns the half-open range of indicators to draw when only
// width of them fit, keeping the active one in view.
func (c *Controller) Window(width int) (start, end int) {
	n := len(c.slides)
	if width <= 0 {
		return 0, 0
	}
	if n <= width {
		return 0, n
	}
	i, ok := c.active.Index()
	if !ok {
		return 0, width
	}
	start = i - width/2
	if start < 0 {
		start = 0
	}
	if start+width > n {
		start = n - width
	}
	return start, start + width
}

// Start arms a fresh full interval, invalidating any pending tick.
func (c *Controller) Start() tea.Cmd {
	c.tag++
	id, tag := c.id, c.tag
	return tea.Tick(c.interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t, id: id, tag: tag}
	})
}

// Tick reports whether msg should advance the carousel. When it should, the
// next tick is returned as well.
func (c *Controller) Tick(msg TickMsg) (bool, tea.Cmd) {
	if msg.id != c.id || msg.tag != c.tag || c.suspended {
		return false, nil
	}
	return true, c.Start()
}

// Suspend stops auto-advance until Resume.
func (c *Controller) Suspend() {
	if c.suspended {
		return
	}
	c.suspended = true
	c.tag++
}

// Resume restarts auto-advance with a full interval. Elapsed time from
// before the suspension is not carried over.
func (c *Controller) Resume() tea.Cmd {
	if !c.suspended {
		return nil
	}
	c.suspended = false
	return c.Start()
}

// Restart re-arms the timer after a user-driven selection, so the next
// automatic step comes a full interval later. It is a no-op while suspended.
func (c *Controller) Restart() tea.Cmd {
	if c.suspended {
		return nil
	}
	return c.Start()
}

func (c *Controller) Suspended() bool { return c.suspended }
