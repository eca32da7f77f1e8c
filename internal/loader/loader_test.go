package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tpsmap/internal/geom"
	"tpsmap/internal/store"
)

const onePoint = `{"type":"FeatureCollection","features":[
  {"type":"Feature","properties":{"name":"TPS Cicaheum"},"geometry":{"type":"Point","coordinates":[107.66,-6.90]}}]}`

const oneLine = `{"type":"FeatureCollection","features":[
  {"type":"Feature","properties":{"name":"Jl. Asia Afrika","type":"arterial"},"geometry":{"type":"LineString","coordinates":[[107.60,-6.92],[107.61,-6.92]]}}]}`

const onePolygon = `{"type":"FeatureCollection","features":[
  {"type":"Feature","properties":{"name":"Sumur Bandung"},"geometry":{"type":"Polygon","coordinates":[[[107.60,-6.91],[107.62,-6.91],[107.62,-6.93],[107.60,-6.91]]]}}]}`

func serve(t *testing.T, docs map[string]string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		doc, ok := docs[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		_, _ = w.Write([]byte(doc))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func remoteSources(base string) Sources {
	return Sources{
		store.TPS:       base + "/tps.geojson",
		store.Roads:     base + "/roads.geojson",
		store.Districts: base + "/districts.geojson",
		store.Housing:   base + "/housing.geojson",
	}
}

func allDocs() map[string]string {
	return map[string]string{
		"/tps.geojson":       onePoint,
		"/roads.geojson":     oneLine,
		"/districts.geojson": onePolygon,
		"/housing.geojson":   onePolygon,
	}
}

func TestFetchAllRemote(t *testing.T) {
	var hits int32
	srv := serve(t, allDocs(), &hits)
	l := New(srv.Client(), remoteSources(srv.URL))

	res := l.Load(context.Background())
	require.NoError(t, res.Err)
	assert.False(t, res.Fallback)
	assert.EqualValues(t, 4, atomic.LoadInt32(&hits))
	require.Len(t, res.Collections, 4)
	assert.Equal(t, "TPS Cicaheum", geom.Name(res.Collections[store.TPS].Features[0].Properties))
}

func TestPartialFailureFallsBackToSample(t *testing.T) {
	docs := allDocs()
	delete(docs, "/housing.geojson")
	srv := serve(t, docs, nil)
	l := New(srv.Client(), remoteSources(srv.URL))

	_, err := l.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStatus))

	res := l.Load(context.Background())
	assert.True(t, res.Fallback)
	require.Error(t, res.Err)
	assertSample(t, res)
}

func TestAllFailuresFallBackToSample(t *testing.T) {
	dir := t.TempDir()
	l := New(nil, DefaultSources(dir))
	res := l.Load(context.Background())
	assert.True(t, res.Fallback)
	assert.True(t, errors.Is(res.Err, os.ErrNotExist))
	assertSample(t, res)
}

func TestParseErrorFallsBack(t *testing.T) {
	docs := allDocs()
	docs["/roads.geojson"] = `{"type": "FeatureCollection", "features": [`
	srv := serve(t, docs, nil)
	res := New(srv.Client(), remoteSources(srv.URL)).Load(context.Background())
	assert.True(t, res.Fallback)
	assertSample(t, res)
}

func TestMissingSource(t *testing.T) {
	srcs := remoteSources("http://127.0.0.1:1")
	delete(srcs, store.Districts)
	_, err := New(nil, srcs).Fetch(context.Background())
	assert.True(t, errors.Is(err, ErrMissingSource))
}

func TestLocalFilesAndCSV(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		return p
	}
	srcs := Sources{
		store.TPS:       write("tps.csv", "name,address,lat,lng,type\nTPS Sadang Serang,Jl. Sadang Serang,-6.8950,107.6300,tps3r\n"),
		store.Roads:     "file://" + write("roads.geojson", oneLine),
		store.Districts: write("districts.geojson", onePolygon),
		store.Housing:   write("housing.geojson", onePolygon),
	}
	res := New(nil, srcs).Load(context.Background())
	require.NoError(t, res.Err)
	require.False(t, res.Fallback)
	tps := res.Collections[store.TPS]
	require.Len(t, tps.Features, 1)
	assert.Equal(t, "Jl. Sadang Serang", geom.Attr(tps.Features[0].Properties, "address"))
}

func TestCancelledContextFails(t *testing.T) {
	srv := serve(t, allDocs(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(srv.Client(), remoteSources(srv.URL)).Fetch(ctx)
	assert.Error(t, err)
}

func assertSample(t *testing.T, res Result) {
	t.Helper()
	sample, err := Sample()
	require.NoError(t, err)
	assert.True(t, res.Sample)
	require.Len(t, res.Collections, len(sample))
	for name, fc := range sample {
		got := res.Collections[name]
		require.NotNil(t, got, name)
		require.Len(t, got.Features, len(fc.Features), name)
		for i := range fc.Features {
			assert.Equal(t, geom.Name(fc.Features[i].Properties), geom.Name(got.Features[i].Properties))
		}
	}
}

func TestLoadSampleIsNotFallback(t *testing.T) {
	res := LoadSample()
	require.NoError(t, res.Err)
	assert.False(t, res.Fallback)
	assertSample(t, res)
}

func TestSampleDataset(t *testing.T) {
	sample, err := Sample()
	require.NoError(t, err)
	for _, n := range store.Names {
		require.Len(t, sample[n].Features, 4, n)
	}
	assert.Equal(t, "TPS Gedebage", geom.Name(sample[store.TPS].Features[0].Properties))
	assert.Equal(t, "tps-building", geom.Attr(sample[store.TPS].Features[1].Properties, "type"))

	s := store.NewStore()
	require.NoError(t, s.Replace(sample))
	assert.Equal(t, 4, s.Get(store.Housing).Len())
}

func TestLocalPath(t *testing.T) {
	p, ok := LocalPath("data/TITIK_TPS.geojson")
	assert.True(t, ok)
	assert.Equal(t, "data/TITIK_TPS.geojson", p)

	p, ok = LocalPath("file:///srv/data/JALAN_2.geojson")
	assert.True(t, ok)
	assert.Equal(t, "/srv/data/JALAN_2.geojson", p)

	_, ok = LocalPath("https://example.org/tps.geojson")
	assert.False(t, ok)
}

func TestWatcherRelevance(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "TITIK_TPS.geojson")
	w := &Watcher{files: map[string]bool{target: true}}

	assert.True(t, w.relevant(fsnotify.Event{Name: target, Op: fsnotify.Write}))
	assert.True(t, w.relevant(fsnotify.Event{Name: target, Op: fsnotify.Create}))
	assert.False(t, w.relevant(fsnotify.Event{Name: target, Op: fsnotify.Chmod}))
	assert.False(t, w.relevant(fsnotify.Event{Name: filepath.Join(dir, "notes.txt"), Op: fsnotify.Write}))
}

func TestNewWatcherNeedsLocalSources(t *testing.T) {
	_, err := NewWatcher(remoteSources("https://example.org"))
	assert.True(t, errors.Is(err, ErrNothingToWatch))
}
