package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	LoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tpsmap_loads_total",
		Help: "Data load attempts by outcome (fetched, fallback, sample)",
	}, []string{"outcome"})
	LoadDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tpsmap_load_duration_ms",
		Help:    "Duration of a data load attempt in milliseconds",
		Buckets: []float64{5, 10, 50, 100, 250, 500, 1000, 5000, 15000},
	})
	SelectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tpsmap_selections_total",
		Help: "TPS selections by source (marker, search, slide, list, auto)",
	}, []string{"source"})
	SearchMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tpsmap_search_misses_total",
		Help: "Searches that matched no TPS",
	})
	LocateFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tpsmap_locate_failures_total",
		Help: "Geolocation failures by category",
	}, []string{"reason"})
)

func init() {
	prometheus.MustRegister(LoadsTotal)
	prometheus.MustRegister(LoadDurationMs)
	prometheus.MustRegister(SelectionsTotal)
	prometheus.MustRegister(SearchMissesTotal)
	prometheus.MustRegister(LocateFailuresTotal)
}

// Serve exposes /metrics on addr in the background. An empty addr disables it.
func Serve(addr string) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		log.Info().Str("addr", addr).Msg("Metrics listener started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("Metrics listener failed")
		}
	}()
	return srv
}
