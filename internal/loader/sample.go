package loader

import (
	"embed"
	"fmt"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"

	"tpsmap/internal/geom"
	"tpsmap/internal/metrics"
	"tpsmap/internal/store"
)

//go:embed sample/*.geojson
var sampleFS embed.FS

var sampleFiles = map[store.Name]string{
	store.TPS:       "sample/tps.geojson",
	store.Roads:     "sample/roads.geojson",
	store.Districts: "sample/districts.geojson",
	store.Housing:   "sample/housing.geojson",
}

// LoadSample returns the embedded sample as a deliberate, non-fallback load.
func LoadSample() Result {
	start := time.Now()
	sample, err := Sample()
	dur := time.Since(start)
	metrics.LoadDurationMs.Observe(float64(dur.Milliseconds()))
	if err != nil {
		log.Error().Err(err).Msg("Failed to decode sample data")
		return Result{Err: err, Duration: dur}
	}
	metrics.LoadsTotal.WithLabelValues("sample").Inc()
	log.Info().Dur("duration", dur).Msg("Sample data loaded")
	return Result{Collections: sample, Sample: true, Duration: dur}
}

// Sample decodes the embedded Bandung sample dataset. Each call returns
// fresh collections.
func Sample() (map[store.Name]*geojson.FeatureCollection, error) {
	out := make(map[store.Name]*geojson.FeatureCollection, len(sampleFiles))
	for name, file := range sampleFiles {
		data, err := sampleFS.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("sample %s: %w", name, err)
		}
		fc, err := geom.DecodeGeoJSON(data)
		if err != nil {
			return nil, fmt.Errorf("sample %s: %w", name, err)
		}
		out[name] = fc
	}
	return out, nil
}
