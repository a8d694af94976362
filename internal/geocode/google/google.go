// Package google reverse-geocodes through the Google Geocoding API.
package google

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/vbonduro/clawmap/internal/geocode"
)

const DefaultURL = "https://maps.googleapis.com/maps/api/geocode/json"

type component struct {
	LongName string   `json:"long_name"`
	Types    []string `json:"types"`
}

type result struct {
	FormattedAddress  string      `json:"formatted_address"`
	AddressComponents []component `json:"address_components"`
}

type response struct {
	Status       string   `json:"status"`
	ErrorMessage string   `json:"error_message"`
	Results      []result `json:"results"`
}

type Resolver struct {
	url    string
	apiKey string
	http   *resty.Client
}

func New(url, apiKey string) *Resolver {
	if url == "" {
		url = DefaultURL
	}
	return &Resolver{
		url:    url,
		apiKey: apiKey,
		http:   resty.New().SetTimeout(10 * time.Second),
	}
}

func (r *Resolver) Lookup(ctx context.Context, lat, lng float64) (geocode.Address, error) {
	var body response
	resp, err := r.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"latlng": fmt.Sprintf("%f,%f", lat, lng),
			"key":    r.apiKey,
		}).
		SetResult(&body).
		Get(r.url)
	if err != nil {
		return geocode.Address{}, fmt.Errorf("failed to call geocoding api: %w", err)
	}
	if resp.IsError() {
		return geocode.Address{}, fmt.Errorf("geocoding api returned status %d", resp.StatusCode())
	}

	switch body.Status {
	case "OK":
	case "ZERO_RESULTS":
		return geocode.Address{}, geocode.ErrNoResult
	default:
		return geocode.Address{}, fmt.Errorf("geocoding api status %s: %s", body.Status, body.ErrorMessage)
	}
	if len(body.Results) == 0 {
		return geocode.Address{}, geocode.ErrNoResult
	}

	return geocode.Address{
		Locality:    find(body.Results, "locality", "postal_town"),
		SubLocality: find(body.Results, "sublocality", "sublocality_level_1"),
		County:      find(body.Results, "administrative_area_level_2"),
		State:       find(body.Results, "administrative_area_level_1"),
		Formatted:   body.Results[0].FormattedAddress,
	}, nil
}

// find returns the first component of any result tagged with one of types,
// checking results in order since the first is the most specific.
func find(results []result, types ...string) string {
	for _, res := range results {
		for _, c := range res.AddressComponents {
			for _, t := range types {
				if slices.Contains(c.Types, t) && strings.TrimSpace(c.LongName) != "" {
					return c.LongName
				}
			}
		}
	}
	return ""
}
