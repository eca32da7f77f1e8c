// Package store holds the four feature collections shown by the viewer.
package store

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb/geojson"
)

// Name identifies one of the four collections.
type Name string

const (
	TPS       Name = "tps"
	Roads     Name = "roads"
	Districts Name = "districts"
	Housing   Name = "housing"
)

// Names lists the collections in drawing order, bottom first.
var Names = []Name{Housing, Districts, Roads, TPS}

var (
	ErrUnknownCollection = errors.New("store: unknown collection")
	ErrMalformed         = errors.New("store: malformed collection")
)

// Known reports whether n is one of the four collections.
func Known(n Name) bool {
	for _, k := range Names {
		if k == n {
			return true
		}
	}
	return false
}

// Store owns the loaded collections. Collections are replaced wholesale,
// never edited in place.
type Store struct {
	collections map[Name]*geojson.FeatureCollection
}

func NewStore() *Store {
	s := &Store{collections: make(map[Name]*geojson.FeatureCollection, len(Names))}
	for _, n := range Names {
		s.collections[n] = geojson.NewFeatureCollection()
	}
	return s
}

// Load replaces the named collection.
func (s *Store) Load(name Name, fc *geojson.FeatureCollection) error {
	if err := check(name, fc); err != nil {
		return err
	}
	s.collections[name] = fc
	return nil
}

// Replace swaps several collections at once. Nothing is replaced if any
// entry is invalid.
func (s *Store) Replace(set map[Name]*geojson.FeatureCollection) error {
	for name, fc := range set {
		if err := check(name, fc); err != nil {
			return err
		}
	}
	for name, fc := range set {
		s.collections[name] = fc
	}
	return nil
}

// Get returns a read-only view of the named collection. Unknown names
// yield an empty view.
func (s *Store) Get(name Name) Collection {
	return Collection{name: name, fc: s.collections[name]}
}

func check(name Name, fc *geojson.FeatureCollection) error {
	if !Known(name) {
		return fmt.Errorf("%w: %q", ErrUnknownCollection, name)
	}
	if fc == nil {
		return fmt.Errorf("%w: %s is nil", ErrMalformed, name)
	}
	for i, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			return fmt.Errorf("%w: %s feature %d has no geometry", ErrMalformed, name, i)
		}
	}
	return nil
}

// Collection is a read-only view over one feature collection.
type Collection struct {
	name Name
	fc   *geojson.FeatureCollection
}

func (c Collection) Name() Name { return c.name }

func (c Collection) Len() int {
	if c.fc == nil {
		return 0
	}
	return len(c.fc.Features)
}

// At returns the i-th feature. Callers must not modify it.
func (c Collection) At(i int) *geojson.Feature {
	return c.fc.Features[i]
}
