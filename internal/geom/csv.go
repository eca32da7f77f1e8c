package geom

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// DecodeCSV reads a table of points with latitude/longitude columns into a
// point FeatureCollection. Column detection: lat|latitude|y and
// lon|lng|long|longitude|x (case-insensitive). Every other column becomes a
// string property keyed by its lowercased header.
func DecodeCSV(r io.Reader) (*geojson.FeatureCollection, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	recs, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, errors.New("empty csv")
	}
	header := make([]string, len(recs[0]))
	idxLat, idxLon := -1, -1
	for i, h := range recs[0] {
		lh := strings.ToLower(strings.TrimSpace(h))
		header[i] = lh
		switch lh {
		case "lat", "latitude", "y":
			if idxLat == -1 {
				idxLat = i
			}
		case "lon", "lng", "long", "longitude", "x":
			if idxLon == -1 {
				idxLon = i
			}
		}
	}
	if idxLat == -1 || idxLon == -1 {
		return nil, errors.New("csv: latitude/longitude columns not found")
	}
	fc := geojson.NewFeatureCollection()
	for _, row := range recs[1:] {
		if idxLon >= len(row) || idxLat >= len(row) {
			continue
		}
		lon, err1 := strconv.ParseFloat(strings.TrimSpace(row[idxLon]), 64)
		lat, err2 := strconv.ParseFloat(strings.TrimSpace(row[idxLat]), 64)
		if err1 != nil || err2 != nil {
			continue
		}
		f := geojson.NewFeature(orb.Point{lon, lat})
		for i, v := range row {
			if i == idxLat || i == idxLon || i >= len(header) || header[i] == "" {
				continue
			}
			f.Properties[header[i]] = strings.TrimSpace(v)
		}
		fc.Append(f)
	}
	if len(fc.Features) == 0 {
		return nil, errors.New("csv: no valid points parsed")
	}
	return fc, nil
}
