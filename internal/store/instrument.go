package store

import (
	"context"
	"time"
)

// Observer receives one call per store operation.
type Observer interface {
	ObserveStore(table, op, result string, elapsed time.Duration)
}

type instrumented struct {
	next Client
	obs  Observer
}

// Instrument reports every call on c to obs. A nil obs returns c unchanged.
func Instrument(c Client, obs Observer) Client {
	if obs == nil {
		return c
	}
	return &instrumented{next: c, obs: obs}
}

func (i *instrumented) observe(table Table, op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	i.obs.ObserveStore(string(table), op, result, time.Since(start))
}

func (i *instrumented) List(ctx context.Context, table Table, q Query) ([]Row, error) {
	start := time.Now()
	rows, err := i.next.List(ctx, table, q)
	i.observe(table, "list", start, err)
	return rows, err
}

func (i *instrumented) Create(ctx context.Context, table Table, fields Row) (Row, error) {
	start := time.Now()
	row, err := i.next.Create(ctx, table, fields)
	i.observe(table, "create", start, err)
	return row, err
}

func (i *instrumented) Update(ctx context.Context, table Table, id string, fields Row, owner string) (int, error) {
	start := time.Now()
	n, err := i.next.Update(ctx, table, id, fields, owner)
	i.observe(table, "update", start, err)
	return n, err
}

func (i *instrumented) Delete(ctx context.Context, table Table, id string, owner string) (int, error) {
	start := time.Now()
	n, err := i.next.Delete(ctx, table, id, owner)
	i.observe(table, "delete", start, err)
	return n, err
}
