// Package nominatim reverse-geocodes through an OpenStreetMap Nominatim
// server.
package nominatim

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/vbonduro/clawmap/internal/geocode"
)

const DefaultURL = "https://nominatim.openstreetmap.org"

// The public server allows one request per second per application.
const defaultInterval = time.Second

type response struct {
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
	Error       string            `json:"error"`
}

type Resolver struct {
	http    *resty.Client
	limiter *rate.Limiter
}

// New returns a resolver for baseURL identifying itself as userAgent, as the
// usage policy requires.
func New(baseURL, userAgent string) *Resolver {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	hc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(10*time.Second).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")
	return &Resolver{
		http:    hc,
		limiter: rate.NewLimiter(rate.Every(defaultInterval), 1),
	}
}

// WithLimit replaces the request rate limit.
func (r *Resolver) WithLimit(l *rate.Limiter) *Resolver {
	r.limiter = l
	return r
}

func (r *Resolver) Lookup(ctx context.Context, lat, lng float64) (geocode.Address, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return geocode.Address{}, fmt.Errorf("rate limited: %w", err)
	}

	var body response
	resp, err := r.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"lat":            strconv.FormatFloat(lat, 'f', -1, 64),
			"lon":            strconv.FormatFloat(lng, 'f', -1, 64),
			"format":         "json",
			"zoom":           "10",
			"addressdetails": "1",
		}).
		SetResult(&body).
		Get("/reverse")
	if err != nil {
		return geocode.Address{}, fmt.Errorf("failed to call nominatim: %w", err)
	}
	if resp.IsError() {
		return geocode.Address{}, fmt.Errorf("nominatim returned status %d", resp.StatusCode())
	}
	if body.Error != "" || (len(body.Address) == 0 && body.DisplayName == "") {
		return geocode.Address{}, geocode.ErrNoResult
	}

	return geocode.Address{
		Locality:    first(body.Address, "city", "town", "village", "municipality"),
		SubLocality: first(body.Address, "suburb", "city_district", "borough", "neighbourhood"),
		County:      first(body.Address, "county"),
		State:       first(body.Address, "state", "region"),
		Formatted:   body.DisplayName,
	}, nil
}

func first(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := m[k]; v != "" {
			return v
		}
	}
	return ""
}
