// Package config handles the YAML configuration file and its defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"tpsmap/internal/geom"
	"tpsmap/internal/layer"
	"tpsmap/internal/locate"
	"tpsmap/internal/mapview"
	"tpsmap/internal/store"
)

var ErrInvalid = errors.New("config: invalid")

// Config represents the root configuration file structure.
type Config struct {
	// Data maps a collection name (tps, roads, districts, housing) to a
	// file path or URL. Relative paths are resolved against DataDir.
	Data         map[string]string `yaml:"data,omitempty"`
	DataDir      string            `yaml:"data_dir,omitempty"`
	FetchTimeout time.Duration     `yaml:"fetch_timeout,omitempty"`

	Home      View    `yaml:"home"`
	FocusZoom float64 `yaml:"focus_zoom,omitempty"`
	// SearchZoom is used for search hits and the zoom-to-point key.
	SearchZoom float64       `yaml:"search_zoom,omitempty"`
	Interval   time.Duration `yaml:"carousel_interval,omitempty"`

	Tiles  Tiles           `yaml:"tiles"`
	Locate Locate          `yaml:"locate"`
	Layers map[string]bool `yaml:"layers,omitempty"`
}

type View struct {
	Lat  float64 `yaml:"lat"`
	Lng  float64 `yaml:"lng"`
	Zoom float64 `yaml:"zoom"`
}

type Tiles struct {
	URL         string  `yaml:"url"`
	Attribution string  `yaml:"attribution"`
	MaxZoom     float64 `yaml:"max_zoom,omitempty"`
}

// Locate selects the geolocation source: "ip", "static" or "none".
type Locate struct {
	Mode     string        `yaml:"mode"`
	Endpoint string        `yaml:"endpoint,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
	Lat      float64       `yaml:"lat,omitempty"`
	Lng      float64       `yaml:"lng,omitempty"`
}

// Default returns the Bandung viewer settings.
func Default() *Config {
	return &Config{
		Data: map[string]string{
			string(store.TPS):       "TITIK_TPS.geojson",
			string(store.Roads):     "JALAN_2.geojson",
			string(store.Districts): "ADMKEC_BANDUNG.geojson",
			string(store.Housing):   "PERMUNGKIMAN.geojson",
		},
		DataDir:      "data",
		FetchTimeout: 15 * time.Second,
		Home:         View{Lat: -6.9175, Lng: 107.6191, Zoom: 12},
		FocusZoom:    15,
		SearchZoom:   16,
		Interval:     5 * time.Second,
		Tiles: Tiles{
			URL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
			Attribution: "© OpenStreetMap contributors",
			MaxZoom:     19,
		},
		Locate: Locate{
			Mode:     "ip",
			Endpoint: locate.DefaultEndpoint,
			Timeout:  10 * time.Second,
		},
		Layers: map[string]bool{
			string(store.TPS):       true,
			string(store.Roads):     true,
			string(store.Districts): true,
			string(store.Housing):   false,
		},
	}
}

// Load reads the YAML file at path over the defaults. A missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	for name := range c.Data {
		if !store.Known(store.Name(name)) {
			return fmt.Errorf("%w: unknown data collection %q", ErrInvalid, name)
		}
	}
	for name := range c.Layers {
		if !store.Known(store.Name(name)) {
			return fmt.Errorf("%w: unknown layer %q", ErrInvalid, name)
		}
	}
	if c.Home.Zoom < mapview.MinZoom || c.Home.Zoom > mapview.MaxZoom {
		return fmt.Errorf("%w: home zoom %v out of range", ErrInvalid, c.Home.Zoom)
	}
	if c.FocusZoom < mapview.MinZoom || c.FocusZoom > mapview.MaxZoom {
		return fmt.Errorf("%w: focus zoom %v out of range", ErrInvalid, c.FocusZoom)
	}
	if c.SearchZoom < mapview.MinZoom || c.SearchZoom > mapview.MaxZoom {
		return fmt.Errorf("%w: search zoom %v out of range", ErrInvalid, c.SearchZoom)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("%w: carousel interval must be positive", ErrInvalid)
	}
	switch c.Locate.Mode {
	case "ip", "static", "none", "":
	default:
		return fmt.Errorf("%w: locate mode %q", ErrInvalid, c.Locate.Mode)
	}
	return nil
}

// Sources resolves the data entries against DataDir. URLs and absolute paths
// are kept as they are.
func (c *Config) Sources() map[store.Name]string {
	out := make(map[store.Name]string, len(c.Data))
	for name, src := range c.Data {
		if p, ok := localRelative(src); ok && c.DataDir != "" {
			src = filepath.Join(c.DataDir, p)
		}
		out[store.Name(name)] = src
	}
	return out
}

func localRelative(src string) (string, bool) {
	if src == "" || filepath.IsAbs(src) {
		return "", false
	}
	for _, prefix := range []string{"http://", "https://", "file://"} {
		if strings.HasPrefix(src, prefix) {
			return "", false
		}
	}
	return src, true
}

func (c *Config) HomeView() (geom.LatLng, float64) {
	return geom.LatLng{Lat: c.Home.Lat, Lng: c.Home.Lng}, c.Home.Zoom
}

func (c *Config) Visibility() layer.Visibility {
	vis := layer.DefaultVisibility()
	for name, on := range c.Layers {
		vis[store.Name(name)] = on
	}
	return vis
}

func (c *Config) TileLayer() mapview.TileLayer {
	return mapview.TileLayer{URL: c.Tiles.URL, Attribution: c.Tiles.Attribution, MaxZoom: c.Tiles.MaxZoom}
}

func (c *Config) Locator() locate.Locator {
	switch c.Locate.Mode {
	case "static":
		return locate.Static{Position: geom.LatLng{Lat: c.Locate.Lat, Lng: c.Locate.Lng}}
	case "none":
		return locate.Unsupported{}
	default:
		return locate.IPLocator{Endpoint: c.Locate.Endpoint, Timeout: c.Locate.Timeout}
	}
}
