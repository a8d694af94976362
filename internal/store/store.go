package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
)

// Table names a backing table.
type Table string

const (
	TableSpots      Table = "spots"
	TableHelpSkills Table = "help_skills"
	TableCreations  Table = "creations"
)

// writable lists the columns a caller may set on create and update.
var writable = map[Table][]string{
	TableSpots:      {"name", "description", "city", "category", "lat", "lng", "image_url", "event_date", "x_profile"},
	TableHelpSkills: {"type", "title", "description", "skills", "contact"},
	TableCreations:  {"title", "description", "image_url", "link"},
}

// Tables returns every known table.
func Tables() []Table {
	return []Table{TableSpots, TableHelpSkills, TableCreations}
}

func (t Table) Valid() bool {
	_, ok := writable[t]
	return ok
}

// Writable returns the columns callers may update.
func (t Table) Writable() []string {
	return slices.Clone(writable[t])
}

// Columns returns every column of t in select order.
func (t Table) Columns() []string {
	cols := append([]string{"id"}, writable[t]...)
	return append(cols, "created_by", "created_at")
}

func (t Table) hasColumn(col string) bool {
	return slices.Contains(t.Columns(), col)
}

// Row is one record as column -> value. Absent values are nil.
type Row map[string]any

// Filter is an equality predicate.
type Filter struct {
	Column string
	Value  any
}

func Eq(column string, value any) Filter {
	return Filter{Column: column, Value: value}
}

// Order sorts by one column. Nulls sort last unless NullsFirst is set.
type Order struct {
	Column     string
	Descending bool
	NullsFirst bool
}

type Query struct {
	Filters []Filter
	Order   *Order
}

// Client is the remote store contract. Update and Delete carry an owner
// guard: when owner does not match created_by the call affects zero rows and
// returns (0, nil).
type Client interface {
	List(ctx context.Context, table Table, q Query) ([]Row, error)
	Create(ctx context.Context, table Table, fields Row) (Row, error)
	Update(ctx context.Context, table Table, id string, fields Row, owner string) (int, error)
	Delete(ctx context.Context, table Table, id string, owner string) (int, error)
}

// Error carries a human-readable message for any store or network failure.
type Error struct {
	Op      string
	Table   Table
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Table, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Fail wraps err as a *Error for op on table.
func Fail(op string, table Table, err error) error {
	return &Error{Op: op, Table: table, Message: err.Error(), Err: err}
}

// CheckQuery rejects unknown tables and columns before they reach a backend.
func CheckQuery(table Table, q Query) error {
	if !table.Valid() {
		return fmt.Errorf("unknown table %q", table)
	}
	for _, f := range q.Filters {
		if !table.hasColumn(f.Column) {
			return fmt.Errorf("unknown column %q on %s", f.Column, table)
		}
	}
	if q.Order != nil && !table.hasColumn(q.Order.Column) {
		return fmt.Errorf("unknown order column %q on %s", q.Order.Column, table)
	}
	return nil
}

// CheckFields rejects columns that are not writable. created_by is accepted
// only when allowOwner is set (inserts).
func CheckFields(table Table, fields Row, allowOwner bool) error {
	if !table.Valid() {
		return fmt.Errorf("unknown table %q", table)
	}
	if len(fields) == 0 {
		return fmt.Errorf("no fields given for %s", table)
	}
	for col := range fields {
		if col == "created_by" && allowOwner {
			continue
		}
		if !slices.Contains(writable[table], col) {
			return fmt.Errorf("column %q is not writable on %s", col, table)
		}
	}
	return nil
}

// Decode converts rows into T through their JSON tags.
func Decode[T any](rows []Row) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		v, err := DecodeOne[T](row)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func DecodeOne[T any](row Row) (T, error) {
	var v T
	data, err := json.Marshal(row)
	if err != nil {
		return v, fmt.Errorf("failed to encode row: %w", err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("failed to decode row: %w", err)
	}
	return v, nil
}

// List runs c.List and decodes the result.
func List[T any](ctx context.Context, c Client, table Table, q Query) ([]T, error) {
	rows, err := c.List(ctx, table, q)
	if err != nil {
		return nil, err
	}
	return Decode[T](rows)
}

// Create runs c.Create and decodes the stored row.
func Create[T any](ctx context.Context, c Client, table Table, fields Row) (T, error) {
	row, err := c.Create(ctx, table, fields)
	if err != nil {
		var zero T
		return zero, err
	}
	return DecodeOne[T](row)
}

type accessTokenKey struct{}

// WithAccessToken attaches the caller's session token for backends that
// forward it to the remote store.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey{}, token)
}

func AccessToken(ctx context.Context) string {
	token, _ := ctx.Value(accessTokenKey{}).(string)
	return token
}
