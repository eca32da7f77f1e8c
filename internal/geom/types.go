package geom

import "fmt"

// LatLng is a position in renderer order: latitude first.
// GeoJSON stores [lng, lat]; convert with ToLatLng, never inline.
type LatLng struct {
	Lat float64
	Lng float64
}

func (p LatLng) String() string {
	return fmt.Sprintf("%.5f, %.5f", p.Lat, p.Lng)
}

type BBox struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Extend grows the box to include p. When first is set the box restarts at p.
func (b BBox) Extend(p LatLng, first bool) BBox {
	if first {
		return BBox{MinX: p.Lng, MinY: p.Lat, MaxX: p.Lng, MaxY: p.Lat}
	}
	if p.Lng < b.MinX {
		b.MinX = p.Lng
	}
	if p.Lat < b.MinY {
		b.MinY = p.Lat
	}
	if p.Lng > b.MaxX {
		b.MaxX = p.Lng
	}
	if p.Lat > b.MaxY {
		b.MaxY = p.Lat
	}
	return b
}

// Center returns the middle of the box.
func (b BBox) Center() LatLng {
	return LatLng{Lat: (b.MinY + b.MaxY) / 2, Lng: (b.MinX + b.MaxX) / 2}
}

// Valid reports whether the box spans an area.
func (b BBox) Valid() bool {
	return b.MaxX > b.MinX && b.MaxY > b.MinY
}
