// Package locate resolves the user's position for the "my location" action.
package locate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"tpsmap/internal/geom"
	"tpsmap/internal/metrics"
)

var (
	ErrPermissionDenied    = errors.New("locate: permission denied")
	ErrPositionUnavailable = errors.New("locate: position unavailable")
	ErrTimeout             = errors.New("locate: timed out")
	ErrUnsupported         = errors.New("locate: geolocation unsupported")
)

const DefaultEndpoint = "http://ip-api.com/json/?fields=status,message,lat,lon"

type Locator interface {
	Locate(ctx context.Context) (geom.LatLng, error)
}

// Message returns the notice shown to the user for a failed Locate.
func Message(err error) string {
	const base = "Could not get your location."
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupported):
		return "Geolocation is not supported here."
	case errors.Is(err, ErrPermissionDenied):
		return base + " Location access was denied."
	case errors.Is(err, ErrPositionUnavailable):
		return base + " Location information is unavailable."
	case errors.Is(err, ErrTimeout):
		return base + " The request timed out."
	default:
		return base
	}
}

// Reason is the metrics label for err.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrUnsupported):
		return "unsupported"
	case errors.Is(err, ErrPermissionDenied):
		return "denied"
	case errors.Is(err, ErrPositionUnavailable):
		return "unavailable"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		return "other"
	}
}

// IPLocator asks an ip-api compatible service where the caller's address is.
type IPLocator struct {
	Endpoint string
	Client   *http.Client
	Timeout  time.Duration
}

type ipResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func (l IPLocator) Locate(ctx context.Context) (geom.LatLng, error) {
	pos, err := l.locate(ctx)
	if err != nil {
		metrics.LocateFailuresTotal.WithLabelValues(Reason(err)).Inc()
		log.Warn().Err(err).Msg("Geolocation failed")
		return geom.LatLng{}, err
	}
	log.Debug().Stringer("position", pos).Msg("Geolocation resolved")
	return pos, nil
}

func (l IPLocator) locate(ctx context.Context) (geom.LatLng, error) {
	endpoint := l.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	client := l.Client
	if client == nil {
		client = &http.Client{}
	}
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return geom.LatLng{}, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return geom.LatLng{}, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return geom.LatLng{}, fmt.Errorf("%w: %v", ErrPositionUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return geom.LatLng{}, fmt.Errorf("%w: %s", ErrPermissionDenied, resp.Status)
	case resp.StatusCode != http.StatusOK:
		return geom.LatLng{}, fmt.Errorf("%w: %s", ErrPositionUnavailable, resp.Status)
	}

	var r ipResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		if isTimeout(ctx, err) {
			return geom.LatLng{}, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return geom.LatLng{}, fmt.Errorf("%w: %v", ErrPositionUnavailable, err)
	}
	if r.Status != "success" {
		return geom.LatLng{}, fmt.Errorf("%w: %s", ErrPositionUnavailable, r.Message)
	}
	return geom.LatLng{Lat: r.Lat, Lng: r.Lon}, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// Static always reports the same position.
type Static struct {
	Position geom.LatLng
}

func (s Static) Locate(ctx context.Context) (geom.LatLng, error) {
	if err := ctx.Err(); err != nil {
		return geom.LatLng{}, fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return s.Position, nil
}

// Unsupported is used when no geolocation source is configured.
type Unsupported struct{}

func (Unsupported) Locate(context.Context) (geom.LatLng, error) {
	metrics.LocateFailuresTotal.WithLabelValues("unsupported").Inc()
	return geom.LatLng{}, ErrUnsupported
}
