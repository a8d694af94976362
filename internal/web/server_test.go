package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vbonduro/clawmap/internal/domain"
	"github.com/vbonduro/clawmap/internal/identity"
	"github.com/vbonduro/clawmap/internal/service"
	"github.com/vbonduro/clawmap/internal/store"
)

func TestWriteError(t *testing.T) {
	s := &Server{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"validation", fmt.Errorf("wrapped: %w", &domain.ValidationError{Field: "name", Message: "name is required"}), http.StatusBadRequest, "name: name is required"},
		{"unauthenticated", service.ErrUnauthenticated, http.StatusUnauthorized, "sign in required"},
		{"credentials", identity.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
		{"transition", identity.ErrInvalidTransition, http.StatusConflict, "invalid identity transition"},
		{"store", store.Fail("list", store.TableSpots, errors.New("connection refused")), http.StatusBadGateway, "connection refused"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "failed to do thing"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), "do thing", tc.err)
			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.body)
		})
	}
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, bearerToken(r))

	r.AddCookie(&http.Cookie{Name: sessionCookie, Value: "from-cookie"})
	assert.Equal(t, "from-cookie", bearerToken(r))

	r.Header.Set("Authorization", "Bearer from-header")
	assert.Equal(t, "from-header", bearerToken(r))
}

func TestFilterParam(t *testing.T) {
	assert.Equal(t, "all", filterParam(httptest.NewRequest(http.MethodGet, "/map", nil)))
	assert.Equal(t, "meetup", filterParam(httptest.NewRequest(http.MethodGet, "/map?filter=+meetup+", nil)))
}

func TestIsHTMX(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    bool
	}{
		{name: "plain", want: false},
		{name: "htmx", headers: map[string]string{"HX-Request": "true"}, want: true},
		{name: "boosted", headers: map[string]string{"HX-Request": "true", "HX-Boosted": "true"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/calendar", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, isHTMX(r))
		})
	}
}

func TestTriggerCarriesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	trigger(rec, "filter-changed", map[string]any{"filter": "meetup", "count": 3})
	assert.JSONEq(t, `{"filter-changed":{"filter":"meetup","count":3}}`, rec.Header().Get("HX-Trigger"))
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	s := &Server{logger: slog.New(slog.NewTextHandler(io.Discard, nil)), mux: http.NewServeMux()}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
