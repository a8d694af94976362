// Package postgrest implements store.Client against a Supabase/PostgREST
// endpoint.
package postgrest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/vbonduro/clawmap/internal/store"
)

const userAgent = "clawmap/1.0"

// APIError is a non-2xx PostgREST response.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details"`
	Hint       string `json:"hint"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("[%d] %s: %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("[%d] %s", e.StatusCode, msg)
}

type Client struct {
	http    *resty.Client
	anonKey string
}

// New returns a client for the project at baseURL (e.g.
// https://xyz.supabase.co). Requests carry no timeout; callers bound them with
// their context.
func New(baseURL, anonKey string) *Client {
	hc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")+"/rest/v1").
		SetHeader("apikey", anonKey).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent)
	return &Client{http: hc, anonKey: anonKey}
}

// request starts a request authorized as the caller when ctx carries a
// session token, otherwise as the anonymous role.
func (c *Client) request(ctx context.Context) *resty.Request {
	token := store.AccessToken(ctx)
	if token == "" {
		token = c.anonKey
	}
	return c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetError(&APIError{})
}

func (c *Client) List(ctx context.Context, table store.Table, q store.Query) ([]store.Row, error) {
	if err := store.CheckQuery(table, q); err != nil {
		return nil, store.Fail("list", table, err)
	}

	params := url.Values{}
	params.Set("select", "*")
	for _, f := range q.Filters {
		params.Add(f.Column, filterValue(f.Value))
	}
	if q.Order != nil {
		params.Set("order", orderValue(q.Order))
	}

	var rows []store.Row
	resp, err := c.request(ctx).
		SetQueryParamsFromValues(params).
		SetResult(&rows).
		Get("/" + string(table))
	if err := check(resp, err); err != nil {
		return nil, store.Fail("list", table, err)
	}
	if rows == nil {
		rows = []store.Row{}
	}
	return rows, nil
}

func (c *Client) Create(ctx context.Context, table store.Table, fields store.Row) (store.Row, error) {
	if err := store.CheckFields(table, fields, true); err != nil {
		return nil, store.Fail("create", table, err)
	}

	var rows []store.Row
	resp, err := c.request(ctx).
		SetHeader("Prefer", "return=representation").
		SetBody(map[string]any(fields)).
		SetResult(&rows).
		Post("/" + string(table))
	if err := check(resp, err); err != nil {
		return nil, store.Fail("create", table, err)
	}
	if len(rows) == 0 {
		return nil, store.Fail("create", table, errors.New("store returned no row"))
	}
	return rows[0], nil
}

func (c *Client) Update(ctx context.Context, table store.Table, id string, fields store.Row, owner string) (int, error) {
	if err := store.CheckFields(table, fields, false); err != nil {
		return 0, store.Fail("update", table, err)
	}
	if owner == "" {
		return 0, nil
	}

	var rows []store.Row
	resp, err := c.request(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParamsFromValues(guard(id, owner)).
		SetBody(map[string]any(fields)).
		SetResult(&rows).
		Patch("/" + string(table))
	if err := check(resp, err); err != nil {
		return 0, store.Fail("update", table, err)
	}
	return len(rows), nil
}

func (c *Client) Delete(ctx context.Context, table store.Table, id string, owner string) (int, error) {
	if !table.Valid() {
		return 0, store.Fail("delete", table, fmt.Errorf("unknown table %q", table))
	}
	if owner == "" {
		return 0, nil
	}

	var rows []store.Row
	resp, err := c.request(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParamsFromValues(guard(id, owner)).
		SetResult(&rows).
		Delete("/" + string(table))
	if err := check(resp, err); err != nil {
		return 0, store.Fail("delete", table, err)
	}
	return len(rows), nil
}

func guard(id, owner string) url.Values {
	return url.Values{
		"id":         {"eq." + id},
		"created_by": {"eq." + owner},
	}
}

func filterValue(v any) string {
	if v == nil {
		return "is.null"
	}
	return fmt.Sprintf("eq.%v", v)
}

func orderValue(o *store.Order) string {
	dir, nulls := "asc", "nullslast"
	if o.Descending {
		dir = "desc"
	}
	if o.NullsFirst {
		nulls = "nullsfirst"
	}
	return o.Column + "." + dir + "." + nulls
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("failed to reach store: %w", err)
	}
	if !resp.IsError() {
		return nil
	}
	apiErr, ok := resp.Error().(*APIError)
	if !ok || apiErr == nil {
		apiErr = &APIError{}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(resp.Body()))
	}
	apiErr.StatusCode = resp.StatusCode()
	return apiErr
}
