// Package sqlite implements store.Client on a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vbonduro/clawmap/internal/store"
)

// TimeLayout is the fixed-width UTC form of created_at, so text order equals
// time order.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) List(ctx context.Context, table store.Table, q store.Query) ([]store.Row, error) {
	if err := store.CheckQuery(table, q); err != nil {
		return nil, store.Fail("list", table, err)
	}

	cols := table.Columns()
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", strings.Join(cols, ", "), table)

	args := make([]any, 0, len(q.Filters))
	for i, f := range q.Filters {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		if f.Value == nil {
			fmt.Fprintf(&sb, "%s IS NULL", f.Column)
			continue
		}
		fmt.Fprintf(&sb, "%s = ?", f.Column)
		args = append(args, f.Value)
	}
	sb.WriteString(orderBy(q.Order))

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, store.Fail("list", table, fmt.Errorf("failed to list %s: %w", table, err))
	}
	defer rows.Close()

	out := []store.Row{}
	for rows.Next() {
		row, err := scanRow(rows, cols)
		if err != nil {
			return nil, store.Fail("list", table, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Fail("list", table, fmt.Errorf("error iterating %s: %w", table, err))
	}
	return out, nil
}

// orderBy renders an ORDER BY clause. rowid breaks ties so rows inserted in the
// same microsecond keep insertion order.
func orderBy(o *store.Order) string {
	if o == nil {
		return " ORDER BY rowid ASC"
	}
	dir, nulls := "ASC", "NULLS LAST"
	if o.Descending {
		dir = "DESC"
	}
	if o.NullsFirst {
		nulls = "NULLS FIRST"
	}
	return fmt.Sprintf(" ORDER BY %s %s %s, rowid %s", o.Column, dir, nulls, dir)
}

func (s *Store) Create(ctx context.Context, table store.Table, fields store.Row) (store.Row, error) {
	if err := store.CheckFields(table, fields, true); err != nil {
		return nil, store.Fail("create", table, err)
	}
	owner, _ := fields["created_by"].(string)
	if owner == "" {
		return nil, store.Fail("create", table, errors.New("created_by is required"))
	}

	id := uuid.NewString()
	cols := []string{"id", "created_at"}
	args := []any{id, s.now().UTC().Format(TimeLayout)}
	for _, col := range slices.Sorted(maps.Keys(fields)) {
		cols = append(cols, col)
		args = append(args, fields[col])
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), placeholders(len(cols)))
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, store.Fail("create", table, fmt.Errorf("failed to create %s row: %w", table, err))
	}

	row, err := s.get(ctx, table, id)
	if err != nil {
		return nil, store.Fail("create", table, err)
	}
	return row, nil
}

func (s *Store) get(ctx context.Context, table store.Table, id string) (store.Row, error) {
	cols := table.Columns()
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", strings.Join(cols, ", "), table)
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s row: %w", table, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to get %s row: %w", table, err)
		}
		return nil, fmt.Errorf("%s row %s not found", table, id)
	}
	return scanRow(rows, cols)
}

func (s *Store) Update(ctx context.Context, table store.Table, id string, fields store.Row, owner string) (int, error) {
	if err := store.CheckFields(table, fields, false); err != nil {
		return 0, store.Fail("update", table, err)
	}
	if owner == "" {
		return 0, nil
	}

	keys := slices.Sorted(maps.Keys(fields))
	sets := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)+2)
	for _, col := range keys {
		sets = append(sets, col+" = ?")
		args = append(args, fields[col])
	}
	args = append(args, id, owner)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ? AND created_by = ?", table, strings.Join(sets, ", "))
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, store.Fail("update", table, fmt.Errorf("failed to update %s row: %w", table, err))
	}
	return affected("update", table, result)
}

func (s *Store) Delete(ctx context.Context, table store.Table, id string, owner string) (int, error) {
	if !table.Valid() {
		return 0, store.Fail("delete", table, fmt.Errorf("unknown table %q", table))
	}
	if owner == "" {
		return 0, nil
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id = ? AND created_by = ?", table)
	result, err := s.db.ExecContext(ctx, query, id, owner)
	if err != nil {
		return 0, store.Fail("delete", table, fmt.Errorf("failed to delete %s row: %w", table, err))
	}
	return affected("delete", table, result)
}

func affected(op string, table store.Table, result sql.Result) (int, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, store.Fail(op, table, fmt.Errorf("failed to get rows affected: %w", err))
	}
	return int(n), nil
}

func scanRow(rows *sql.Rows, cols []string) (store.Row, error) {
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	row := make(store.Row, len(cols))
	for i, col := range cols {
		if b, ok := vals[i].([]byte); ok {
			vals[i] = string(b)
		}
		row[col] = vals[i]
	}
	return row, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
