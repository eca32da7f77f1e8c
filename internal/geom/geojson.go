package geom

import (
	"errors"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

var ErrNoGeometry = errors.New("geom: feature has no geometry")

// DecodeGeoJSON parses a GeoJSON FeatureCollection document.
func DecodeGeoJSON(data []byte) (*geojson.FeatureCollection, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}
	for i, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			return nil, fmt.Errorf("decode geojson: feature %d: %w", i, ErrNoGeometry)
		}
		if f.Properties == nil {
			f.Properties = geojson.Properties{}
		}
	}
	return fc, nil
}

// LoadGeoJSON reads and decodes a GeoJSON file.
func LoadGeoJSON(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeGeoJSON(data)
}

// ToLatLng converts a GeoJSON [lng, lat] point to renderer order.
func ToLatLng(p orb.Point) LatLng {
	return LatLng{Lat: p.Lat(), Lng: p.Lon()}
}

// FromLatLng is the inverse of ToLatLng.
func FromLatLng(p LatLng) orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// LineToLatLngs converts every vertex of a line string.
func LineToLatLngs(ls orb.LineString) []LatLng {
	out := make([]LatLng, 0, len(ls))
	for _, p := range ls {
		out = append(out, ToLatLng(p))
	}
	return out
}

// PolygonToLatLngs converts a polygon; the first ring is the outer one.
func PolygonToLatLngs(poly orb.Polygon) [][]LatLng {
	out := make([][]LatLng, 0, len(poly))
	for _, ring := range poly {
		out = append(out, LineToLatLngs(orb.LineString(ring)))
	}
	return out
}

// Lines flattens line geometries into renderer-ordered paths.
func Lines(g orb.Geometry) [][]LatLng {
	switch t := g.(type) {
	case orb.LineString:
		return [][]LatLng{LineToLatLngs(t)}
	case orb.MultiLineString:
		out := make([][]LatLng, 0, len(t))
		for _, ls := range t {
			out = append(out, LineToLatLngs(ls))
		}
		return out
	case orb.Ring:
		return [][]LatLng{LineToLatLngs(orb.LineString(t))}
	}
	return nil
}

// Polygons flattens polygon geometries; each entry holds its rings.
func Polygons(g orb.Geometry) [][][]LatLng {
	switch t := g.(type) {
	case orb.Polygon:
		return [][][]LatLng{PolygonToLatLngs(t)}
	case orb.MultiPolygon:
		out := make([][][]LatLng, 0, len(t))
		for _, poly := range t {
			out = append(out, PolygonToLatLngs(poly))
		}
		return out
	}
	return nil
}

// Representative returns the coordinate a view centres on for g:
// the point itself, or the centre of its bound otherwise.
func Representative(g orb.Geometry) (LatLng, bool) {
	if g == nil {
		return LatLng{}, false
	}
	if p, ok := g.(orb.Point); ok {
		return ToLatLng(p), true
	}
	return ToLatLng(g.Bound().Center()), true
}

// Bounds returns the box around every feature of the given collections.
func Bounds(collections ...*geojson.FeatureCollection) (BBox, bool) {
	var bb BBox
	seen := false
	for _, fc := range collections {
		if fc == nil {
			continue
		}
		for _, f := range fc.Features {
			if f == nil || f.Geometry == nil {
				continue
			}
			b := f.Geometry.Bound()
			bb = bb.Extend(ToLatLng(b.Min), !seen)
			seen = true
			bb = bb.Extend(ToLatLng(b.Max), false)
		}
	}
	return bb, seen
}
