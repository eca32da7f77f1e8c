package mapview

import (
	"tpsmap/internal/geom"
)

const (
	MinZoom = 1
	MaxZoom = 19
)

// Group is a named, toggle-able set of objects.
type Group struct {
	Name    string
	Visible bool
	Objects []Object
}

// PanelRef points at the object whose panel is open.
type PanelRef struct {
	Layer string
	Index int
}

// Memory is a Map kept entirely in memory. The terminal adapter draws it.
type Memory struct {
	center geom.LatLng
	zoom   float64
	// flights counts animated moves, for adapters that want to ease.
	flights int

	tiles  []TileLayer
	order  []string
	groups map[string]*Group

	panel *PanelRef
}

func NewMemory(center geom.LatLng, zoom float64) *Memory {
	return &Memory{
		center: center,
		zoom:   clampZoom(zoom),
		groups: map[string]*Group{},
	}
}

func clampZoom(z float64) float64 {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}

func (m *Memory) SetView(center geom.LatLng, zoom float64) {
	m.center = center
	m.zoom = clampZoom(zoom)
}

func (m *Memory) FlyTo(center geom.LatLng, zoom float64) {
	m.SetView(center, zoom)
	m.flights++
}

func (m *Memory) ZoomIn()  { m.zoom = clampZoom(m.zoom + 1) }
func (m *Memory) ZoomOut() { m.zoom = clampZoom(m.zoom - 1) }

func (m *Memory) Center() geom.LatLng { return m.center }
func (m *Memory) Zoom() float64       { return m.zoom }
func (m *Memory) Flights() int        { return m.flights }

func (m *Memory) AddTileLayer(t TileLayer) {
	m.tiles = append(m.tiles, t)
}

// Attribution returns the attribution of the top tile layer.
func (m *Memory) Attribution() string {
	if len(m.tiles) == 0 {
		return ""
	}
	return m.tiles[len(m.tiles)-1].Attribution
}

// group returns the named group, creating it hidden if needed.
func (m *Memory) group(name string) *Group {
	g, ok := m.groups[name]
	if !ok {
		g = &Group{Name: name}
		m.groups[name] = g
		m.order = append(m.order, name)
	}
	return g
}

func (m *Memory) SetLayerVisible(layer string, visible bool) {
	m.group(layer).Visible = visible
	if !visible && m.panel != nil && m.panel.Layer == layer {
		m.panel = nil
	}
}

func (m *Memory) LayerVisible(layer string) bool {
	g, ok := m.groups[layer]
	return ok && g.Visible
}

func (m *Memory) ClearLayer(layer string) {
	g := m.group(layer)
	g.Objects = nil
	if m.panel != nil && m.panel.Layer == layer {
		m.panel = nil
	}
}

func (m *Memory) AddObject(layer string, obj Object) {
	g := m.group(layer)
	g.Objects = append(g.Objects, obj)
}

// OpenPanel opens the panel of the object with the given feature index.
// Unknown objects are ignored.
func (m *Memory) OpenPanel(layer string, index int) {
	if _, ok := m.object(layer, index); !ok {
		return
	}
	m.panel = &PanelRef{Layer: layer, Index: index}
}

func (m *Memory) ClosePanel() { m.panel = nil }

// Panel returns the open panel, if any.
func (m *Memory) Panel() (PanelRef, Panel, bool) {
	if m.panel == nil {
		return PanelRef{}, Panel{}, false
	}
	obj, ok := m.object(m.panel.Layer, m.panel.Index)
	if !ok {
		return PanelRef{}, Panel{}, false
	}
	return *m.panel, obj.Panel, true
}

func (m *Memory) object(layer string, index int) (Object, bool) {
	g, ok := m.groups[layer]
	if !ok {
		return Object{}, false
	}
	for _, o := range g.Objects {
		if o.Index == index {
			return o, true
		}
	}
	return Object{}, false
}

// Group returns the named group.
func (m *Memory) Group(name string) (Group, bool) {
	g, ok := m.groups[name]
	if !ok {
		return Group{}, false
	}
	return *g, true
}

// Visible returns the visible groups in the order they were created.
func (m *Memory) Visible() []Group {
	out := make([]Group, 0, len(m.order))
	for _, name := range m.order {
		if g := m.groups[name]; g.Visible {
			out = append(out, *g)
		}
	}
	return out
}

// SetOrder fixes the drawing order; names not listed keep their
// relative order after the listed ones.
func (m *Memory) SetOrder(names ...string) {
	seen := make(map[string]bool, len(names))
	order := make([]string, 0, len(m.order)+len(names))
	for _, n := range names {
		m.group(n)
		if !seen[n] {
			order = append(order, n)
			seen[n] = true
		}
	}
	for _, n := range m.order {
		if !seen[n] {
			order = append(order, n)
			seen[n] = true
		}
	}
	m.order = order
}
