package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"tpsmap/internal/config"
	"tpsmap/internal/loader"
	"tpsmap/internal/logger"
	"tpsmap/internal/metrics"
	"tpsmap/internal/tui"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile  string `short:"c" long:"config"       env:"CONFIG_FILE"  description:"Path to configuration file"           default:"tpsmap.yaml"`
	Watch       bool   `short:"w" long:"watch"        env:"WATCH"        description:"Reload when local data files change"`
	MetricsAddr string `short:"m" long:"metrics-addr" env:"METRICS_ADDR" description:"Expose Prometheus metrics on this address"`
	Sample      bool   `short:"s" long:"sample"                          description:"Skip the data files and show the bundled sample"`
}

func main() {
	_ = godotenv.Load(".env")

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "tpsmap: %v\n", err)
		os.Exit(1)
	}
}

// run owns every resource so deferred cleanup happens before main exits.
func run(opts Options) error {
	// The terminal belongs to the UI, so logs go to a file.
	if err := opts.Logger.Setup(); err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer opts.Logger.Close()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Error().Err(err).Str("path", opts.ConfigFile).Msg("Failed to load configuration")
		return fmt.Errorf("failed to load configuration %s: %w", opts.ConfigFile, err)
	}

	if srv := metrics.Serve(opts.MetricsAddr); srv != nil {
		defer srv.Close()
	}

	home, homeZoom := cfg.HomeView()
	tuiOpts := tui.Options{
		Locator:       cfg.Locator(),
		Home:          home,
		HomeZoom:      homeZoom,
		FocusZoom:     cfg.FocusZoom,
		SearchZoom:    cfg.SearchZoom,
		Interval:      cfg.Interval,
		FetchTimeout:  cfg.FetchTimeout,
		LocateTimeout: cfg.Locate.Timeout,
		Visibility:    cfg.Visibility(),
		Tiles:         cfg.TileLayer(),
	}

	if !opts.Sample {
		sources := loader.Sources(cfg.Sources())
		tuiOpts.Loader = loader.New(&http.Client{Timeout: cfg.FetchTimeout}, sources)

		if opts.Watch {
			w, err := loader.NewWatcher(sources)
			switch {
			case errors.Is(err, loader.ErrNothingToWatch):
				log.Warn().Msg("Watch requested but every source is remote")
			case err != nil:
				log.Warn().Err(err).Msg("File watcher disabled")
			default:
				defer w.Close()
				tuiOpts.Watcher = w
			}
		}
	}

	log.Info().
		Str("config", opts.ConfigFile).
		Bool("sample", opts.Sample).
		Bool("watch", tuiOpts.Watcher != nil).
		Msg("Starting viewer")

	p := tea.NewProgram(tui.New(tuiOpts), tea.WithAltScreen(), tea.WithMouseAllMotion())
	if _, err := p.Run(); err != nil {
		log.Error().Err(err).Msg("Viewer exited with error")
		return fmt.Errorf("viewer: %w", err)
	}
	return nil
}
