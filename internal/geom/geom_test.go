package geom

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pointsDoc = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"name": "TPS Kopo", "capacity": 450, "contact": ""},
     "geometry": {"type": "Point", "coordinates": [107.5789, -6.9456]}},
    {"type": "Feature", "properties": null,
     "geometry": {"type": "LineString", "coordinates": [[107.62, -6.94], [107.65, -6.95]]}}
  ]
}`

func TestToLatLngSwapsOrder(t *testing.T) {
	p := ToLatLng(orb.Point{107.7123, -6.9678})
	assert.Equal(t, LatLng{Lat: -6.9678, Lng: 107.7123}, p)
	assert.Equal(t, orb.Point{107.7123, -6.9678}, FromLatLng(p))
}

func TestPolygonToLatLngsKeepsRings(t *testing.T) {
	poly := orb.Polygon{
		{{107.59, -6.88}, {107.62, -6.88}, {107.62, -6.91}, {107.59, -6.88}},
		{{107.60, -6.89}, {107.61, -6.89}, {107.60, -6.89}},
	}
	rings := PolygonToLatLngs(poly)
	require.Len(t, rings, 2)
	assert.Equal(t, LatLng{Lat: -6.88, Lng: 107.59}, rings[0][0])
	assert.Len(t, rings[1], 3)
}

func TestRepresentative(t *testing.T) {
	p, ok := Representative(orb.Point{107.5, -6.9})
	require.True(t, ok)
	assert.Equal(t, LatLng{Lat: -6.9, Lng: 107.5}, p)

	c, ok := Representative(orb.LineString{{107.0, -7.0}, {108.0, -6.0}})
	require.True(t, ok)
	assert.InDelta(t, -6.5, c.Lat, 1e-9)
	assert.InDelta(t, 107.5, c.Lng, 1e-9)

	_, ok = Representative(nil)
	assert.False(t, ok)
}

func TestDecodeGeoJSON(t *testing.T) {
	fc, err := DecodeGeoJSON([]byte(pointsDoc))
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)
	assert.NotNil(t, fc.Features[1].Properties)

	_, err = DecodeGeoJSON([]byte(`{"type":`))
	assert.Error(t, err)
}

func TestLoadGeoJSON(t *testing.T) {
	p := filepath.Join(t.TempDir(), "TITIK_TPS.geojson")
	require.NoError(t, os.WriteFile(p, []byte(pointsDoc), 0o644))
	fc, err := LoadGeoJSON(p)
	require.NoError(t, err)
	assert.Len(t, fc.Features, 2)

	_, err = LoadGeoJSON(filepath.Join(t.TempDir(), "missing.geojson"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAttrPlaceholders(t *testing.T) {
	fc, err := DecodeGeoJSON([]byte(pointsDoc))
	require.NoError(t, err)
	props := fc.Features[0].Properties

	assert.Equal(t, "TPS Kopo", Name(props))
	assert.Equal(t, "450", Attr(props, "capacity"))
	assert.Equal(t, Placeholder, Attr(props, "contact"))
	assert.Equal(t, Placeholder, Attr(props, "address"))
	assert.Equal(t, UnknownName, Name(fc.Features[1].Properties))
	assert.Equal(t, Placeholder, Attr(nil, "name"))
}

func TestBounds(t *testing.T) {
	fc, err := DecodeGeoJSON([]byte(pointsDoc))
	require.NoError(t, err)
	bb, ok := Bounds(fc, nil, geojson.NewFeatureCollection())
	require.True(t, ok)
	assert.Equal(t, 107.5789, bb.MinX)
	assert.Equal(t, 107.65, bb.MaxX)
	assert.Equal(t, -6.95, bb.MinY)
	assert.Equal(t, -6.94, bb.MaxY)

	_, ok = Bounds(geojson.NewFeatureCollection())
	assert.False(t, ok)
}

func TestDecodeCSV(t *testing.T) {
	in := "Name,Address,Lat,Lng,Type\n" +
		"TPS Pasteur,Jl. Pasteur No. 10,-6.8900,107.5900,tps3r\n" +
		"broken,row,x,y,z\n"
	fc, err := DecodeCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	f := fc.Features[0]
	assert.Equal(t, orb.Point{107.59, -6.89}, f.Geometry)
	assert.Equal(t, "TPS Pasteur", Name(f.Properties))
	assert.Equal(t, "tps3r", Attr(f.Properties, "type"))
	_, hasLat := f.Properties["lat"]
	assert.False(t, hasLat)

	_, err = DecodeCSV(strings.NewReader("name,address\nA,B\n"))
	assert.Error(t, err)
}
