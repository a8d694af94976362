package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vbonduro/clawmap/internal/cache"
	"github.com/vbonduro/clawmap/internal/domain"
	"github.com/vbonduro/clawmap/internal/identity"
	"github.com/vbonduro/clawmap/internal/store"
)

// ErrUnauthenticated is returned for mutations without a signed-in viewer.
var ErrUnauthenticated = errors.New("sign in required")

// repository is the subset of store.Client the collections require.
type repository interface {
	List(ctx context.Context, table store.Table, q store.Query) ([]store.Row, error)
	Create(ctx context.Context, table store.Table, fields store.Row) (store.Row, error)
	Update(ctx context.Context, table store.Table, id string, fields store.Row, owner string) (int, error)
	Delete(ctx context.Context, table store.Table, id string, owner string) (int, error)
}

// Record is an entity the collections can validate and write.
type Record[T any] interface {
	domain.Entity
	Normalized() T
	Validate() error
	Fields() map[string]any
}

type loader interface {
	Load(ctx context.Context) error
}

// Collection keeps one cached view of a table in sync with the store. Every
// mutation is followed by a full reload; nothing is patched locally.
type Collection[T Record[T]] struct {
	name       string
	repo       repository
	table      store.Table
	query      store.Query
	cache      *cache.Cache[T]
	dependents []loader
	logger     *slog.Logger
}

func NewCollection[T Record[T]](name string, repo repository, table store.Table, q store.Query, obs cache.Observer, logger *slog.Logger) *Collection[T] {
	return &Collection[T]{
		name:   name,
		repo:   repo,
		table:  table,
		query:  q,
		cache:  cache.New[T](name, obs),
		logger: logger.With("collection", name),
	}
}

// Also reloads d after every mutation of c.
func (c *Collection[T]) Also(d loader) {
	c.dependents = append(c.dependents, d)
}

// Load replaces the snapshot with the current store contents. On error the
// previous snapshot is kept. A load overtaken by a later one is discarded.
func (c *Collection[T]) Load(ctx context.Context) error {
	gen := c.cache.Begin()
	items, err := store.List[T](ctx, c.repo, c.table, c.query)
	if err != nil {
		c.logger.Error("failed to load", "error", err)
		return err
	}
	if !c.cache.Commit(gen, items) {
		c.logger.Debug("discarded stale load", "generation", gen)
		return nil
	}
	c.logger.Debug("loaded", "count", len(items), "generation", gen)
	return nil
}

// Ensure loads once if nothing has been loaded yet.
func (c *Collection[T]) Ensure(ctx context.Context) error {
	if c.cache.Loaded() {
		return nil
	}
	return c.Load(ctx)
}

func (c *Collection[T]) Snapshot() []T {
	return c.cache.Snapshot()
}

func (c *Collection[T]) Lookup(id string) (T, bool) {
	return c.cache.Lookup(id)
}

func (c *Collection[T]) Loaded() bool {
	return c.cache.Loaded()
}

func (c *Collection[T]) Create(ctx context.Context, viewer identity.Identity, item T) (T, error) {
	var zero T
	if !viewer.SignedIn() {
		return zero, ErrUnauthenticated
	}
	item = item.Normalized()
	if err := item.Validate(); err != nil {
		return zero, err
	}

	fields := store.Row(item.Fields())
	fields["created_by"] = viewer.ID
	created, err := store.Create[T](ctx, c.repo, c.table, fields)
	if err != nil {
		return zero, err
	}
	c.logger.Info("created", "id", created.EntityID(), "by", viewer.ID)

	c.reload(ctx)
	return created, nil
}

// Update writes item over id. It reports false when nothing matched, which
// includes the viewer not owning the row.
func (c *Collection[T]) Update(ctx context.Context, viewer identity.Identity, id string, item T) (bool, error) {
	if !viewer.SignedIn() {
		return false, ErrUnauthenticated
	}
	item = item.Normalized()
	if err := item.Validate(); err != nil {
		return false, err
	}

	n, err := c.repo.Update(ctx, c.table, id, store.Row(item.Fields()), viewer.ID)
	if err != nil {
		return false, err
	}
	if n == 0 {
		c.logger.Info("update matched nothing", "id", id, "by", viewer.ID)
	}

	c.reload(ctx)
	return n > 0, nil
}

func (c *Collection[T]) Delete(ctx context.Context, viewer identity.Identity, id string) (bool, error) {
	if !viewer.SignedIn() {
		return false, ErrUnauthenticated
	}

	n, err := c.repo.Delete(ctx, c.table, id, viewer.ID)
	if err != nil {
		return false, err
	}
	if n == 0 {
		c.logger.Info("delete matched nothing", "id", id, "by", viewer.ID)
	}

	c.reload(ctx)
	return n > 0, nil
}

// reload refreshes c and its dependents. Failures are logged by Load and
// leave the previous snapshots in place.
func (c *Collection[T]) reload(ctx context.Context) {
	_ = c.Load(ctx)
	for _, d := range c.dependents {
		_ = d.Load(ctx)
	}
}
