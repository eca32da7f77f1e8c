package layer

import "tpsmap/internal/mapview"

// MarkerStyle is the look of a TPS marker for one category.
type MarkerStyle struct {
	Color  string
	Symbol string
}

// RoadStyle is the look of a road for one class.
type RoadStyle struct {
	Color  string
	Weight float64
}

// TPS categories, keyed by the "type" property.
var MarkerStyles = map[string]MarkerStyle{
	"tps3r":           {Color: "#ff6b6b", Symbol: "🏢"},
	"tps-building":    {Color: "#4ecdc4", Symbol: "🏗️"},
	"tps-no-building": {Color: "#45b7d1", Symbol: "📦"},
}

var DefaultMarker = MarkerStyle{Color: "#95a5a6", Symbol: "📍"}

// Road classes, keyed by the "type" property.
var RoadStyles = map[string]RoadStyle{
	"arterial":  {Color: "#e74c3c", Weight: 5},
	"collector": {Color: "#f39c12", Weight: 3},
	"local":     {Color: "#3498db", Weight: 2},
}

var OtherRoad = RoadStyle{Color: "#95a5a6", Weight: 1.5}

const roadOpacity = 0.8

var (
	DistrictStyle = mapview.Style{Color: "#2ecc71", Weight: 2, Opacity: 0.8, FillOpacity: 0.1, DashArray: "5, 5"}
	HousingStyle  = mapview.Style{Color: "#9b59b6", Weight: 2, Opacity: 0.7, FillOpacity: 0.2}
	LocationStyle = mapview.Style{Color: "#ffa500", Symbol: "◎"}
)

// MarkerFor returns the style for a TPS category, falling back to
// DefaultMarker for unknown or empty categories.
func MarkerFor(category string) mapview.Style {
	ms, ok := MarkerStyles[category]
	if !ok {
		ms = DefaultMarker
	}
	return mapview.Style{Color: ms.Color, Symbol: ms.Symbol, Opacity: 1}
}

// RoadFor returns the style for a road class, falling back to OtherRoad.
func RoadFor(class string) mapview.Style {
	rs, ok := RoadStyles[class]
	if !ok {
		rs = OtherRoad
	}
	return mapview.Style{Color: rs.Color, Weight: rs.Weight, Opacity: roadOpacity}
}
