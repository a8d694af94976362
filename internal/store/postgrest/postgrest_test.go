package postgrest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/clawmap/internal/domain"
	"github.com/vbonduro/clawmap/internal/store"
)

type captured struct {
	method string
	path   string
	query  map[string][]string
	header http.Header
	body   map[string]any
}

func newTestServer(t *testing.T, status int, response string) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.query = r.URL.Query()
		got.header = r.Header.Clone()
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			_ = json.Unmarshal(data, &got.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestList(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, `[
		{"id":"2","name":"Meetup","category":"meetup","lat":10,"lng":20,"event_date":"2024-03-01","created_by":"u","created_at":"2024-02-01T10:00:00+00:00"}
	]`)
	c := New(srv.URL+"/", "anon-key")

	rows, err := c.List(context.Background(), store.TableSpots, store.Query{
		Filters: []store.Filter{store.Eq("category", "meetup")},
		Order:   &store.Order{Column: "event_date"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, http.MethodGet, got.method)
	assert.Equal(t, "/rest/v1/spots", got.path)
	assert.Equal(t, []string{"*"}, got.query["select"])
	assert.Equal(t, []string{"eq.meetup"}, got.query["category"])
	assert.Equal(t, []string{"event_date.asc.nullslast"}, got.query["order"])
	assert.Equal(t, "anon-key", got.header.Get("apikey"))
	assert.Equal(t, "Bearer anon-key", got.header.Get("Authorization"))

	spots, err := store.Decode[domain.Spot](rows)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", spots[0].EventDate)
	assert.Equal(t, 10.0, spots[0].Lat)
}

func TestList_DescendingNullsFirst(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, `[]`)
	c := New(srv.URL, "anon-key")

	rows, err := c.List(context.Background(), store.TableCreations, store.Query{
		Order: &store.Order{Column: "created_at", Descending: true, NullsFirst: true},
	})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, []string{"created_at.desc.nullsfirst"}, got.query["order"])
}

func TestList_ForwardsAccessToken(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, `[]`)
	c := New(srv.URL, "anon-key")

	ctx := store.WithAccessToken(context.Background(), "session-jwt")
	_, err := c.List(ctx, store.TableHelpSkills, store.Query{})
	require.NoError(t, err)
	assert.Equal(t, "Bearer session-jwt", got.header.Get("Authorization"))
	assert.Equal(t, "anon-key", got.header.Get("apikey"))
}

func TestList_ErrorMessage(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusBadRequest, `{"code":"42703","message":"column spots.nope does not exist"}`)
	c := New(srv.URL, "anon-key")

	_, err := c.List(context.Background(), store.TableSpots, store.Query{})
	require.Error(t, err)

	var serr *store.Error
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, serr.Message, "column spots.nope does not exist")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "42703", apiErr.Code)
}

func TestList_NetworkError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `[]`)
	srv.Close()
	c := New(srv.URL, "anon-key")

	_, err := c.List(context.Background(), store.TableSpots, store.Query{})
	var serr *store.Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "list", serr.Op)
}

func TestCreate(t *testing.T) {
	srv, got := newTestServer(t, http.StatusCreated, `[{"id":"abc","title":"Claw bot","created_by":"u1","created_at":"2024-02-01T10:00:00+00:00"}]`)
	c := New(srv.URL, "anon-key")

	row, err := c.Create(context.Background(), store.TableCreations, store.Row{"title": "Claw bot", "link": nil, "created_by": "u1"})
	require.NoError(t, err)
	assert.Equal(t, "abc", row["id"])

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/rest/v1/creations", got.path)
	assert.Equal(t, "return=representation", got.header.Get("Prefer"))
	assert.Equal(t, "Claw bot", got.body["title"])
	assert.Contains(t, got.body, "link")
	assert.Nil(t, got.body["link"])
}

func TestCreate_EmptyRepresentation(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusCreated, `[]`)
	c := New(srv.URL, "anon-key")

	_, err := c.Create(context.Background(), store.TableCreations, store.Row{"title": "x", "created_by": "u1"})
	assert.Error(t, err)
}

func TestUpdate_OwnerGuard(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, `[]`)
	c := New(srv.URL, "anon-key")

	n, err := c.Update(context.Background(), store.TableSpots, "s1", store.Row{"name": "new"}, "intruder")
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.Equal(t, http.MethodPatch, got.method)
	assert.Equal(t, []string{"eq.s1"}, got.query["id"])
	assert.Equal(t, []string{"eq.intruder"}, got.query["created_by"])
	assert.Equal(t, "new", got.body["name"])
}

func TestUpdate_NoOwnerSkipsCall(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, `[]`)
	c := New(srv.URL, "anon-key")

	n, err := c.Update(context.Background(), store.TableSpots, "s1", store.Row{"name": "new"}, "")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, got.method)
}

func TestDelete(t *testing.T) {
	srv, got := newTestServer(t, http.StatusOK, `[{"id":"s1"}]`)
	c := New(srv.URL, "anon-key")

	n, err := c.Delete(context.Background(), store.TableHelpSkills, "s1", "owner")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, http.MethodDelete, got.method)
	assert.Equal(t, "/rest/v1/help_skills", got.path)
	assert.Equal(t, "return=representation", got.header.Get("Prefer"))
}

func TestDelete_Forbidden(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusForbidden, `{"message":"permission denied for table help_skills"}`)
	c := New(srv.URL, "anon-key")

	_, err := c.Delete(context.Background(), store.TableHelpSkills, "s1", "owner")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}
