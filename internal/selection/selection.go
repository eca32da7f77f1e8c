// Package selection keeps the map view and the carousel pointed at the same
// waste-collection point.
package selection

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"tpsmap/internal/geom"
	"tpsmap/internal/mapview"
	"tpsmap/internal/store"
)

var (
	ErrEmpty      = errors.New("selection: collection is empty")
	ErrOutOfRange = errors.New("selection: index out of range")
	ErrNotFound   = errors.New("selection: no matching entry")
	ErrEmptyQuery = errors.New("selection: empty query")
)

const (
	// DefaultFocusZoom is used when a slide or marker is picked.
	DefaultFocusZoom = 15
	// DefaultSearchZoom is used for search hits and zoom-to-point.
	DefaultSearchZoom = 16
)

// Selection is either none or an index into the TPS collection.
type Selection struct {
	index int
	ok    bool
}

func None() Selection { return Selection{} }

func At(i int) Selection { return Selection{index: i, ok: true} }

func (s Selection) IsNone() bool { return !s.ok }

// Index returns the selected index; ok is false for none.
func (s Selection) Index() (int, bool) { return s.index, s.ok }

func (s Selection) String() string {
	if !s.ok {
		return "none"
	}
	return fmt.Sprintf("#%d", s.index)
}

// Slides is the carousel side of the coordinator.
type Slides interface {
	Show(sel Selection)
}

// Coordinator owns the current selection.
type Coordinator struct {
	store     *store.Store
	view      mapview.Map
	slides    Slides
	focusZoom  float64
	searchZoom float64
	sel        Selection
}

func NewCoordinator(s *store.Store, view mapview.Map, slides Slides, focusZoom float64) *Coordinator {
	if focusZoom <= 0 {
		focusZoom = DefaultFocusZoom
	}
	return &Coordinator{store: s, view: view, slides: slides, focusZoom: focusZoom, searchZoom: DefaultSearchZoom}
}

// SetSearchZoom overrides the zoom used by ZoomTo and search. Non-positive
// values are ignored.
func (c *Coordinator) SetSearchZoom(z float64) {
	if z > 0 {
		c.searchZoom = z
	}
}

func (c *Coordinator) Current() Selection { return c.sel }

func (c *Coordinator) points() store.Collection { return c.store.Get(store.TPS) }

// SelectByIndex selects entry i, centres the map on it, opens its panel and
// shows its slide. The panel stays closed while the TPS layer is hidden.
func (c *Coordinator) SelectByIndex(i int) error {
	return c.selectAt(i, c.focusZoom)
}

// ZoomTo is SelectByIndex at the closer search zoom.
func (c *Coordinator) ZoomTo(i int) error {
	return c.selectAt(i, c.searchZoom)
}

func (c *Coordinator) selectAt(i int, zoom float64) error {
	col := c.points()
	n := col.Len()
	if n == 0 {
		return ErrEmpty
	}
	if i < 0 || i >= n {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, i, n)
	}
	c.sel = At(i)
	if pos, ok := geom.Representative(col.At(i).Geometry); ok {
		c.view.FlyTo(pos, zoom)
	}
	if c.view.LayerVisible(string(store.TPS)) {
		c.view.OpenPanel(string(store.TPS), i)
	}
	c.slides.Show(c.sel)
	log.Debug().Int("index", i).Msg("TPS selected")
	return nil
}

// SelectByAttributeMatch selects the first entry whose name or address
// contains query, case-insensitively. On no match the selection is left
// alone and ErrNotFound is returned.
func (c *Coordinator) SelectByAttributeMatch(query string) (int, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return -1, ErrEmptyQuery
	}
	col := c.points()
	for i := 0; i < col.Len(); i++ {
		props := col.At(i).Properties
		for _, key := range []string{"name", "address"} {
			v, ok := geom.RawAttr(props, key)
			if ok && strings.Contains(strings.ToLower(v), q) {
				return i, c.ZoomTo(i)
			}
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrNotFound, query)
}

// Advance moves the selection by dir, wrapping around. It does not move the
// map. From none, +1 lands on the first entry and -1 on the last.
func (c *Coordinator) Advance(dir int) {
	n := c.points().Len()
	if n == 0 {
		return
	}
	var next int
	if i, ok := c.sel.Index(); ok {
		next = ((i+dir)%n + n) % n
	} else if dir < 0 {
		next = n - 1
	}
	c.sel = At(next)
	c.slides.Show(c.sel)
}

// OnCollectionReplaced resets the selection after the TPS collection has
// been swapped: none when empty, the first entry otherwise.
func (c *Coordinator) OnCollectionReplaced() {
	c.view.ClosePanel()
	if c.points().Len() == 0 {
		c.sel = None()
	} else {
		c.sel = At(0)
	}
	c.slides.Show(c.sel)
}
