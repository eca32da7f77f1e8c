// Package mapview describes the map surface the viewer draws on.
//
// Core packages only build Objects and call Map; the terminal adapter is the
// only code that turns them into pixels.
package mapview

import "tpsmap/internal/geom"

// Map is the subset of a slippy-map library the viewer relies on.
type Map interface {
	SetView(center geom.LatLng, zoom float64)
	FlyTo(center geom.LatLng, zoom float64)
	ZoomIn()
	ZoomOut()
	AddTileLayer(t TileLayer)

	SetLayerVisible(layer string, visible bool)
	LayerVisible(layer string) bool
	ClearLayer(layer string)
	AddObject(layer string, obj Object)

	OpenPanel(layer string, index int)
	ClosePanel()
}

type ObjectKind int

const (
	Marker ObjectKind = iota
	Polyline
	Polygon
)

func (k ObjectKind) String() string {
	switch k {
	case Marker:
		return "marker"
	case Polyline:
		return "polyline"
	case Polygon:
		return "polygon"
	}
	return "unknown"
}

// Style carries the drawing parameters of an object.
type Style struct {
	Color       string
	Symbol      string
	Weight      float64
	Opacity     float64
	FillOpacity float64
	DashArray   string
}

// Field is one labelled line of a detail panel.
type Field struct {
	Label string
	Value string
}

// Panel is the detail popup bound to an object.
type Panel struct {
	Title  string
	Fields []Field
}

// Object is one rendered feature.
type Object struct {
	Kind ObjectKind
	// Index is the position of the source feature in its collection.
	Index int
	// Position is set for markers.
	Position geom.LatLng
	// Paths holds polyline parts, or polygon rings (outer first).
	Paths [][]geom.LatLng
	Style Style
	Panel Panel
}

type TileLayer struct {
	URL         string
	Attribution string
	MaxZoom     float64
}
