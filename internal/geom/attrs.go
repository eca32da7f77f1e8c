package geom

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/paulmach/orb/geojson"
)

const (
	// Placeholder stands in for any missing display attribute.
	Placeholder = "N/A"
	// UnknownName is shown when a feature has no name.
	UnknownName = "Unknown"
)

// Attr formats a property for display. Absent, null and blank values
// become Placeholder.
func Attr(props geojson.Properties, key string) string {
	s, ok := RawAttr(props, key)
	if !ok {
		return Placeholder
	}
	return s
}

// Name returns the feature name or UnknownName.
func Name(props geojson.Properties) string {
	s, ok := RawAttr(props, "name")
	if !ok {
		return UnknownName
	}
	return s
}

// RawAttr formats a property and reports whether it held a non-blank value.
func RawAttr(props geojson.Properties, key string) (string, bool) {
	if props == nil {
		return "", false
	}
	v, ok := props[key]
	if !ok || v == nil {
		return "", false
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		s = strconv.FormatBool(t)
	default:
		bs, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		s = string(bs)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}
