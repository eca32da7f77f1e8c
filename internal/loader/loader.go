// Package loader fetches the four source datasets, falling back to the
// embedded sample when any of them cannot be used.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"tpsmap/internal/geom"
	"tpsmap/internal/metrics"
	"tpsmap/internal/store"
)

var (
	ErrMissingSource = errors.New("loader: missing source")
	ErrStatus        = errors.New("loader: unexpected status")
)

// Sources maps every collection to a file path or an http(s) URL.
type Sources map[store.Name]string

// DefaultSources returns the stock file names under dir.
func DefaultSources(dir string) Sources {
	return Sources{
		store.TPS:       filepath.Join(dir, "TITIK_TPS.geojson"),
		store.Roads:     filepath.Join(dir, "JALAN_2.geojson"),
		store.Districts: filepath.Join(dir, "ADMKEC_BANDUNG.geojson"),
		store.Housing:   filepath.Join(dir, "PERMUNGKIMAN.geojson"),
	}
}

// Result is the outcome of one Load.
type Result struct {
	Collections map[store.Name]*geojson.FeatureCollection
	// Sample is set when Collections is the embedded sample.
	Sample bool
	// Fallback is set when the sample replaced sources that failed.
	Fallback bool
	// Err is why the sources were abandoned.
	Err      error
	Duration time.Duration
}

type Loader struct {
	client  *http.Client
	sources Sources
}

func New(client *http.Client, sources Sources) *Loader {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Loader{client: client, sources: sources}
}

func (l *Loader) Sources() Sources { return l.sources }

// Fetch reads all four sources concurrently. A single failure fails the
// whole fetch and the other results are dropped.
func (l *Loader) Fetch(ctx context.Context) (map[store.Name]*geojson.FeatureCollection, error) {
	for _, name := range store.Names {
		if strings.TrimSpace(l.sources[name]) == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingSource, name)
		}
	}
	results := make([]*geojson.FeatureCollection, len(store.Names))
	p := pool.New().WithContext(ctx).WithCancelOnError()
	for i, name := range store.Names {
		i, name := i, name
		src := l.sources[name]
		p.Go(func(ctx context.Context) error {
			fc, err := l.fetchOne(ctx, src)
			if err != nil {
				return fmt.Errorf("%s (%s): %w", name, src, err)
			}
			results[i] = fc
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	out := make(map[store.Name]*geojson.FeatureCollection, len(store.Names))
	for i, name := range store.Names {
		out[name] = results[i]
	}
	return out, nil
}

// Load fetches the sources and falls back to the embedded sample on any
// failure.
func (l *Loader) Load(ctx context.Context) Result {
	start := time.Now()
	fcs, err := l.Fetch(ctx)
	dur := time.Since(start)
	metrics.LoadDurationMs.Observe(float64(dur.Milliseconds()))
	if err == nil {
		metrics.LoadsTotal.WithLabelValues("fetched").Inc()
		log.Info().
			Int("tps", len(fcs[store.TPS].Features)).
			Int("roads", len(fcs[store.Roads].Features)).
			Int("districts", len(fcs[store.Districts].Features)).
			Int("housing", len(fcs[store.Housing].Features)).
			Dur("duration", dur).
			Msg("Data loaded")
		return Result{Collections: fcs, Duration: dur}
	}

	metrics.LoadsTotal.WithLabelValues("fallback").Inc()
	log.Warn().Err(err).Msg("Failed to load data files, using sample data")
	sample, serr := Sample()
	if serr != nil {
		return Result{Fallback: true, Err: errors.Join(err, serr), Duration: dur}
	}
	return Result{Collections: sample, Sample: true, Fallback: true, Err: err, Duration: dur}
}

func (l *Loader) fetchOne(ctx context.Context, src string) (*geojson.FeatureCollection, error) {
	if u, ok := remoteURL(src); ok {
		data, err := l.get(ctx, u)
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(path.Ext(u.Path), ".csv") {
			return geom.DecodeCSV(bytes.NewReader(data))
		}
		return geom.DecodeGeoJSON(data)
	}

	p, _ := LocalPath(src)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(p), ".csv") {
		f, err := os.Open(p)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return geom.DecodeCSV(f)
	}
	return geom.LoadGeoJSON(p)
}

// get downloads a remote source.
func (l *Loader) get(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func remoteURL(src string) (*url.URL, bool) {
	u, err := url.Parse(src)
	if err != nil {
		return nil, false
	}
	if u.Scheme == "http" || u.Scheme == "https" {
		return u, true
	}
	return nil, false
}

// LocalPath returns the file path of a local source; ok is false for URLs.
func LocalPath(src string) (string, bool) {
	if _, remote := remoteURL(src); remote {
		return "", false
	}
	if strings.HasPrefix(src, "file://") {
		return strings.TrimPrefix(src, "file://"), true
	}
	return src, true
}
