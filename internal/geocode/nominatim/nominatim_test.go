package nominatim

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/vbonduro/clawmap/internal/geocode"
)

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "clawmap-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func unlimited(r *Resolver) *Resolver {
	return r.WithLimit(rate.NewLimiter(rate.Inf, 1))
}

func TestLookup_City(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{
		"display_name": "Alfama, Lisbon, Portugal",
		"address": {"suburb": "Alfama", "city": "Lisbon", "county": "Lisboa", "state": "Lisbon District"}
	}`)
	r := unlimited(New(srv.URL, "clawmap-test"))

	addr, err := r.Lookup(context.Background(), 38.71, -9.13)
	require.NoError(t, err)
	assert.Equal(t, "Lisbon", addr.Locality)
	assert.Equal(t, "Alfama", addr.SubLocality)
	assert.Equal(t, "Lisbon", geocode.SelectPlace(addr))
}

func TestLookup_VillageFallsIntoLocality(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"display_name":"Hamlet, Shire","address":{"village":"Hobbiton","state":"Shire"}}`)
	r := unlimited(New(srv.URL, "clawmap-test"))

	addr, err := r.Lookup(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "Hobbiton", geocode.SelectPlace(addr))
}

func TestLookup_OceanUsesDisplayName(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"display_name":"North Atlantic Ocean, Earth","address":{}}`)
	r := unlimited(New(srv.URL, "clawmap-test"))

	addr, err := r.Lookup(context.Background(), 30, -40)
	require.NoError(t, err)
	assert.Equal(t, "North Atlantic Ocean", geocode.SelectPlace(addr))
}

func TestLookup_NoResult(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"error":"Unable to geocode"}`)
	r := unlimited(New(srv.URL, "clawmap-test"))

	_, err := r.Lookup(context.Background(), 0, 0)
	assert.ErrorIs(t, err, geocode.ErrNoResult)
}

func TestLookup_Status(t *testing.T) {
	srv := newServer(t, http.StatusTooManyRequests, `{}`)
	r := unlimited(New(srv.URL, "clawmap-test"))

	_, err := r.Lookup(context.Background(), 0, 0)
	assert.Error(t, err)

	g := geocode.New("nominatim", r, nil, nil)
	assert.Equal(t, "", g.ReverseGeocode(context.Background(), 0, 0))
}

func TestLookup_RateLimitedByContext(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"address":{"city":"A"}}`)
	r := New(srv.URL, "clawmap-test").WithLimit(rate.NewLimiter(rate.Every(time.Hour), 1))

	_, err := r.Lookup(context.Background(), 0, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = r.Lookup(ctx, 0, 0)
	assert.Error(t, err)
}

func TestLookup_NetworkError(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{}`)
	srv.Close()
	r := unlimited(New(srv.URL, "clawmap-test"))

	_, err := r.Lookup(context.Background(), 0, 0)
	assert.Error(t, err)
}
