// Package layer turns feature collections into styled map objects.
package layer

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"

	"tpsmap/internal/geom"
	"tpsmap/internal/mapview"
	"tpsmap/internal/store"
)

// LocationLayer holds the "my location" marker.
const LocationLayer = "location"

var ErrNoObject = errors.New("layer: no such object")

// Selector receives marker clicks on the TPS layer.
type Selector interface {
	SelectByIndex(i int) error
}

// Visibility maps a collection to whether its layer is attached.
type Visibility map[store.Name]bool

// DefaultVisibility shows everything but housing.
func DefaultVisibility() Visibility {
	return Visibility{
		store.TPS:       true,
		store.Roads:     true,
		store.Districts: true,
		store.Housing:   false,
	}
}

type Renderer struct {
	view mapview.Map
	sel  Selector
	vis  Visibility
	// counts of rendered objects per layer, for Click bounds checks.
	counts map[store.Name]int
}

// New attaches one group per collection to view using vis.
func New(view mapview.Map, sel Selector, vis Visibility) *Renderer {
	r := &Renderer{
		view:   view,
		sel:    sel,
		vis:    Visibility{},
		counts: map[store.Name]int{},
	}
	for _, n := range store.Names {
		r.SetVisible(n, vis[n])
	}
	view.SetLayerVisible(LocationLayer, true)
	return r
}

// Render clears the collection's layer and adds one object per feature.
// It returns the number of objects added.
func (r *Renderer) Render(col store.Collection) int {
	name := col.Name()
	r.view.ClearLayer(string(name))
	objs := Objects(col)
	for _, o := range objs {
		r.view.AddObject(string(name), o)
	}
	r.counts[name] = len(objs)
	log.Debug().Str("layer", string(name)).Int("objects", len(objs)).Msg("Layer rendered")
	return len(objs)
}

// RenderAll renders every collection of s.
func (r *Renderer) RenderAll(s *store.Store) {
	for _, n := range store.Names {
		r.Render(s.Get(n))
	}
}

// Click handles a click on a rendered object. TPS markers go through the
// selector so the carousel follows; other objects just open their panel.
func (r *Renderer) Click(name store.Name, index int) error {
	if index < 0 || index >= r.counts[name] {
		return fmt.Errorf("%w: %s #%d", ErrNoObject, name, index)
	}
	if name == store.TPS && r.sel != nil {
		return r.sel.SelectByIndex(index)
	}
	r.view.OpenPanel(string(name), index)
	return nil
}

func (r *Renderer) SetVisible(name store.Name, on bool) {
	r.vis[name] = on
	r.view.SetLayerVisible(string(name), on)
}

// Toggle flips a layer and returns its new state.
func (r *Renderer) Toggle(name store.Name) bool {
	on := !r.vis[name]
	r.SetVisible(name, on)
	return on
}

func (r *Renderer) Visible(name store.Name) bool { return r.vis[name] }

// Visibility returns a copy of the current visibility map.
func (r *Renderer) Visibility() Visibility {
	out := make(Visibility, len(r.vis))
	for k, v := range r.vis {
		out[k] = v
	}
	return out
}

// Objects builds the map objects for a collection, one per feature.
func Objects(col store.Collection) []mapview.Object {
	out := make([]mapview.Object, 0, col.Len())
	for i := 0; i < col.Len(); i++ {
		out = append(out, object(col.Name(), i, col.At(i)))
	}
	return out
}

func object(name store.Name, i int, f *geojson.Feature) mapview.Object {
	props := f.Properties
	category, _ := geom.RawAttr(props, "type")
	switch name {
	case store.TPS:
		pos, _ := geom.Representative(f.Geometry)
		return mapview.Object{
			Kind:     mapview.Marker,
			Index:    i,
			Position: pos,
			Style:    MarkerFor(category),
			Panel:    TPSPanel(props),
		}
	case store.Roads:
		return mapview.Object{
			Kind:  mapview.Polyline,
			Index: i,
			Paths: geom.Lines(f.Geometry),
			Style: RoadFor(category),
			Panel: mapview.Panel{
				Title:  "Road " + geom.Name(props),
				Fields: []mapview.Field{{Label: "Type", Value: geom.Attr(props, "type")}},
			},
		}
	case store.Districts:
		return mapview.Object{
			Kind:  mapview.Polygon,
			Index: i,
			Paths: outerRings(f),
			Style: DistrictStyle,
			Panel: mapview.Panel{Title: "District " + geom.Name(props)},
		}
	default:
		return mapview.Object{
			Kind:  mapview.Polygon,
			Index: i,
			Paths: outerRings(f),
			Style: HousingStyle,
			Panel: mapview.Panel{
				Title:  geom.Name(props),
				Fields: []mapview.Field{{Label: "Description", Value: geom.Attr(props, "description")}},
			},
		}
	}
}

// outerRings keeps the first ring of every polygon; holes are not drawn.
func outerRings(f *geojson.Feature) [][]geom.LatLng {
	var out [][]geom.LatLng
	for _, poly := range geom.Polygons(f.Geometry) {
		if len(poly) > 0 {
			out = append(out, poly[0])
		}
	}
	return out
}

// TPSPanel builds the detail panel of a waste-collection point.
func TPSPanel(props geojson.Properties) mapview.Panel {
	return mapview.Panel{
		Title: geom.Name(props),
		Fields: []mapview.Field{
			{Label: "Address", Value: geom.Attr(props, "address")},
			{Label: "Capacity", Value: geom.Attr(props, "capacity")},
			{Label: "Contact", Value: geom.Attr(props, "contact")},
			{Label: "Description", Value: geom.Attr(props, "description")},
		},
	}
}

// LocationMarker is the marker placed at the user's position.
func LocationMarker(at geom.LatLng) mapview.Object {
	return mapview.Object{
		Kind:     mapview.Marker,
		Position: at,
		Style:    LocationStyle,
		Panel: mapview.Panel{
			Title:  "Your location",
			Fields: []mapview.Field{{Label: "Position", Value: at.String()}},
		},
	}
}
