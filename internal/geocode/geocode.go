// Package geocode resolves a clicked coordinate to a place name for
// prefilling the city field. It never fails: an unknown place is "".
package geocode

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
)

// ErrNoResult is returned by a Resolver that reached the service but got no
// usable address back.
var ErrNoResult = errors.New("no geocoding result")

// Address is the subset of a reverse-geocoding result the place policy reads.
type Address struct {
	Locality    string
	SubLocality string
	County      string
	State       string
	Formatted   string
}

// Resolver is one reverse-geocoding backend.
type Resolver interface {
	Lookup(ctx context.Context, lat, lng float64) (Address, error)
}

type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) string
}

type Observer interface {
	ObserveGeocode(backend, result string)
}

// SelectPlace picks the most specific useful name: locality, then
// sub-locality, county, state, then the first segment of the formatted
// address.
func SelectPlace(a Address) string {
	for _, v := range []string{a.Locality, a.SubLocality, a.County, a.State} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	first, _, _ := strings.Cut(a.Formatted, ",")
	return strings.TrimSpace(first)
}

// Adapter turns a Resolver into a best-effort Geocoder.
type Adapter struct {
	name     string
	resolver Resolver
	obs      Observer
	logger   *slog.Logger
}

func New(name string, r Resolver, obs Observer, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{name: name, resolver: r, obs: obs, logger: logger}
}

func (a *Adapter) ReverseGeocode(ctx context.Context, lat, lng float64) string {
	if !validCoord(lat, lng) {
		a.observe("invalid")
		return ""
	}

	addr, err := a.resolver.Lookup(ctx, lat, lng)
	switch {
	case errors.Is(err, ErrNoResult):
		a.observe("empty")
		return ""
	case err != nil:
		a.logger.Warn("reverse geocode failed", "backend", a.name, "lat", lat, "lng", lng, "error", err)
		a.observe("error")
		return ""
	}

	place := SelectPlace(addr)
	if place == "" {
		a.observe("empty")
		return ""
	}
	a.observe("ok")
	return place
}

func (a *Adapter) observe(result string) {
	if a.obs != nil {
		a.obs.ObserveGeocode(a.name, result)
	}
}

func validCoord(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
