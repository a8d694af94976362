package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckQuery(t *testing.T) {
	assert.NoError(t, CheckQuery(TableSpots, Query{
		Filters: []Filter{Eq("category", "meetup")},
		Order:   &Order{Column: "event_date"},
	}))
	assert.Error(t, CheckQuery("users", Query{}))
	assert.Error(t, CheckQuery(TableSpots, Query{Filters: []Filter{Eq("1=1; --", 1)}}))
	assert.Error(t, CheckQuery(TableCreations, Query{Order: &Order{Column: "event_date"}}))
}

func TestCheckFields(t *testing.T) {
	assert.NoError(t, CheckFields(TableHelpSkills, Row{"title": "x", "type": "help"}, false))
	assert.Error(t, CheckFields(TableHelpSkills, Row{"title": "x", "created_by": "u1"}, false))
	assert.NoError(t, CheckFields(TableHelpSkills, Row{"title": "x", "created_by": "u1"}, true))
	assert.Error(t, CheckFields(TableHelpSkills, Row{"id": "x"}, true))
	assert.Error(t, CheckFields(TableHelpSkills, Row{}, true))
}

func TestTableColumns(t *testing.T) {
	cols := TableCreations.Columns()
	assert.Equal(t, "id", cols[0])
	assert.Equal(t, "created_at", cols[len(cols)-1])
	assert.Contains(t, cols, "link")

	w := TableCreations.Writable()
	w[0] = "mutated"
	assert.Equal(t, "title", TableCreations.Writable()[0])
}

type item struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Lat       float64   `json:"lat"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

func TestDecode(t *testing.T) {
	rows := []Row{
		{"id": "a", "name": "first", "lat": 10.5, "note": nil, "created_at": "2024-03-01T10:00:00.000000Z"},
		{"id": "b", "name": "second", "lat": int64(20), "created_at": "2024-03-02T10:00:00+00:00"},
	}
	items, err := Decode[item](rows)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID)
	assert.Empty(t, items[0].Note)
	assert.Equal(t, 20.0, items[1].Lat)
	assert.Equal(t, 2, items[1].CreatedAt.Day())

	_, err = DecodeOne[item](Row{"lat": "north"})
	assert.Error(t, err)
}

func TestError(t *testing.T) {
	cause := errors.New("connection refused")
	err := Fail("list", TableSpots, cause)
	assert.Equal(t, "list spots: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)

	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "connection refused", serr.Message)
}

func TestAccessToken(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, AccessToken(ctx))
	assert.Equal(t, "tok", AccessToken(WithAccessToken(ctx, "tok")))
}

type countingObserver struct {
	calls []string
}

func (c *countingObserver) ObserveStore(table, op, result string, _ time.Duration) {
	c.calls = append(c.calls, table+"/"+op+"/"+result)
}

type failingClient struct{}

func (failingClient) List(context.Context, Table, Query) ([]Row, error) {
	return nil, errors.New("down")
}
func (failingClient) Create(context.Context, Table, Row) (Row, error) { return Row{"id": "1"}, nil }
func (failingClient) Update(context.Context, Table, string, Row, string) (int, error) {
	return 0, nil
}
func (failingClient) Delete(context.Context, Table, string, string) (int, error) { return 1, nil }

func TestInstrument(t *testing.T) {
	obs := &countingObserver{}
	c := Instrument(failingClient{}, obs)
	ctx := context.Background()

	_, err := c.List(ctx, TableSpots, Query{})
	assert.Error(t, err)
	_, _ = c.Create(ctx, TableSpots, Row{"name": "x"})
	_, _ = c.Update(ctx, TableSpots, "1", Row{"name": "y"}, "u")
	_, _ = c.Delete(ctx, TableSpots, "1", "u")

	assert.Equal(t, []string{
		"spots/list/error",
		"spots/create/ok",
		"spots/update/ok",
		"spots/delete/ok",
	}, obs.calls)

	assert.Equal(t, failingClient{}, Instrument(failingClient{}, nil))
}
