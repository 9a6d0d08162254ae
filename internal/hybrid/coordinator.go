package hybrid

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/studioreel/internal/store"
)

// localIDBase keeps cache-assigned ids out of the remote serial keyspace
// until a manual reconciliation run.
const localIDBase = 1_000_000_000

// recordPtr constrains P to *T implementing store.Record.
type recordPtr[T any] interface {
	*T
	store.Record
}

// Origin identifies which backend served an operation.
type Origin int

const (
	// OriginRemote means the primary remote store handled the operation.
	OriginRemote Origin = iota
	// OriginCache means the operation degraded to the local snapshot cache.
	OriginCache
)

// ListOptions narrows and orders a List call. Where/Args filter the remote
// query; Match is the equivalent predicate applied to cache snapshots. Both
// must express the same condition so the result shape does not depend on
// which backend answered.
type ListOptions[T any] struct {
	Where string
	Args  []any
	Match func(T) bool
	Less  func(a, b T) bool
}

// Collection coordinates dual-write/dual-read persistence for one entity
// type: writes go to the remote store first and are mirrored into the
// snapshot cache; reads prefer the remote store and degrade to the cache.
// The remote store is authoritative whenever reachable.
type Collection[T any, P recordPtr[T]] struct {
	name      string
	remote    *store.Remote
	files     *store.FileStore
	log       zerolog.Logger
	reorderMu sync.Mutex
	now       func() time.Time
}

// NewCollection binds a coordinator to a table/snapshot name. remote may be
// nil, in which case every operation runs cache-only.
func NewCollection[T any, P recordPtr[T]](name string, remote *store.Remote, files *store.FileStore) *Collection[T, P] {
	return &Collection[T, P]{
		name:   name,
		remote: remote,
		files:  files,
		log:    log.With().Str("collection", name).Logger(),
		now:    time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (c *Collection[T, P]) WithClock(now func() time.Time) *Collection[T, P] {
	if now != nil {
		c.now = now
	}
	return c
}

// Name returns the collection's table/snapshot name.
func (c *Collection[T, P]) Name() string { return c.name }

func (c *Collection[T, P]) warn(op string, err error) {
	c.log.Warn().Str("op", op).Err(err).Msg("remote store degraded to cache, sync pending")
}

// Create writes the record remote-first. On remote failure the record is
// written to the cache with a locally assigned id and returned anyway; the
// caller is never blocked by remote unavailability.
func (c *Collection[T, P]) Create(ctx context.Context, rec T) (T, error) {
	p := P(&rec)
	p.Touch(c.now())

	if c.remote != nil {
		db, cancel := c.remote.Session(ctx)
		err := db.Create(&rec).Error
		cancel()
		if err == nil {
			p.MarkCacheOrigin(false)
			c.mirror("create", rec)
			return rec, nil
		}
		c.warn("create", err)
	}

	p.MarkCacheOrigin(true)
	if err := store.Mutate(c.files, c.name, func(items []T) ([]T, error) {
		if p.GetID() == 0 {
			p.SetID(c.nextLocalID(items))
		}
		return upsert[T, P](items, rec), nil
	}); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return rec, nil
}

// Get reads remote-first and falls through to the cache both on remote
// failure and on a remote miss (the record may be cache-origin).
func (c *Collection[T, P]) Get(ctx context.Context, id uint) (T, error) {
	var zero T

	if c.remote != nil {
		db, cancel := c.remote.Session(ctx)
		var rec T
		err := db.First(&rec, id).Error
		cancel()
		if err == nil {
			return rec, nil
		}
		if classifyRemote(err) == ErrRemoteUnavailable {
			c.warn("get", err)
		}
	}

	items, err := store.Load[T](c.files, c.name)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	for i := range items {
		if P(&items[i]).GetID() == id {
			return items[i], nil
		}
	}
	return zero, ErrNotFound
}

// List reads remote-first. A successful remote read is merged with any
// cache-origin records still waiting for reconciliation, so a record created
// during an outage keeps appearing exactly once after the remote recovers.
func (c *Collection[T, P]) List(ctx context.Context, opts ListOptions[T]) ([]T, error) {
	items, _, err := c.ListFrom(ctx, opts)
	return items, err
}

// ListFrom is List plus the backend that actually served the read, for
// callers that must pin follow-up writes to the same backend.
func (c *Collection[T, P]) ListFrom(ctx context.Context, opts ListOptions[T]) ([]T, Origin, error) {
	if c.remote != nil {
		db, cancel := c.remote.Session(ctx)
		var items []T
		q := db.Model(new(T))
		if opts.Where != "" {
			q = q.Where(opts.Where, opts.Args...)
		}
		err := q.Find(&items).Error
		cancel()
		if err == nil {
			items = c.appendPendingCacheOrigin(items, opts.Match)
			sortItems[T, P](items, opts.Less)
			return items, OriginRemote, nil
		}
		c.warn("list", err)
	}

	all, err := store.Load[T](c.files, c.name)
	if err != nil {
		return nil, OriginCache, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	items := all[:0:0]
	for i := range all {
		if opts.Match == nil || opts.Match(all[i]) {
			items = append(items, all[i])
		}
	}
	sortItems[T, P](items, opts.Less)
	return items, OriginCache, nil
}

// Update loads, mutates and saves the full record so callers always get a
// consistent field shape back regardless of which backend absorbed the write.
func (c *Collection[T, P]) Update(ctx context.Context, id uint, mutate func(rec *T)) (T, error) {
	var zero T

	if c.remote != nil {
		db, cancel := c.remote.Session(ctx)
		var rec T
		err := db.First(&rec, id).Error
		if err == nil {
			mutate(&rec)
			p := P(&rec)
			p.Touch(c.now())
			p.MarkCacheOrigin(false)
			err = db.Save(&rec).Error
			cancel()
			if err == nil {
				c.mirror("update", rec)
				return rec, nil
			}
			c.warn("update", err)
			p.MarkCacheOrigin(true)
			if cerr := c.cacheUpsert(rec); cerr != nil {
				return zero, fmt.Errorf("%w: %v", ErrUnavailable, cerr)
			}
			return rec, nil
		}
		cancel()
		if classifyRemote(err) == ErrRemoteUnavailable {
			c.warn("update", err)
		}
	}

	var out T
	found := false
	err := store.Mutate(c.files, c.name, func(items []T) ([]T, error) {
		for i := range items {
			p := P(&items[i])
			if p.GetID() == id {
				mutate(&items[i])
				p.Touch(c.now())
				p.MarkCacheOrigin(true)
				out = items[i]
				found = true
				break
			}
		}
		return items, nil
	})
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !found {
		return zero, ErrNotFound
	}
	return out, nil
}

// CleanupFunc is a best-effort side effect run after a successful delete,
// typically media blob removal. Failures are logged and swallowed.
type CleanupFunc func(ctx context.Context) error

// Delete removes the record from both backends and then runs the cleanups.
// Remote failure degrades to a cache-only delete. An id that neither backend
// holds returns ErrNotFound.
func (c *Collection[T, P]) Delete(ctx context.Context, id uint, cleanups ...CleanupFunc) error {
	remoteOK := false
	matched := false
	if c.remote != nil {
		db, cancel := c.remote.Session(ctx)
		res := db.Delete(new(T), id)
		cancel()
		if res.Error == nil {
			remoteOK = true
			matched = res.RowsAffected > 0
		} else {
			c.warn("delete", res.Error)
		}
	}

	err := store.Mutate(c.files, c.name, func(items []T) ([]T, error) {
		next := items[:0]
		for i := range items {
			if P(&items[i]).GetID() == id {
				matched = true
				continue
			}
			next = append(next, items[i])
		}
		return next, nil
	})
	if err != nil && !remoteOK {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !matched {
		return ErrNotFound
	}

	for _, fn := range cleanups {
		if fn == nil {
			continue
		}
		if cerr := fn(ctx); cerr != nil {
			c.log.Warn().Str("op", "delete").Err(cerr).Msg("best-effort media cleanup failed")
		}
	}
	return nil
}

// Reorder moves the record to newIndex. If another sibling already holds that
// index the two swap, and both rows are persisted on a single backend so no
// two siblings ever share an index after the call. Reorders on a collection
// are serialized.
func (c *Collection[T, P]) Reorder(ctx context.Context, id uint, newIndex int) (T, error) {
	c.reorderMu.Lock()
	defer c.reorderMu.Unlock()

	var zero T
	items, origin, err := c.ListFrom(ctx, ListOptions[T]{})
	if err != nil {
		return zero, err
	}

	var target *T
	for i := range items {
		if P(&items[i]).GetID() == id {
			target = &items[i]
			break
		}
	}
	if target == nil {
		return zero, ErrNotFound
	}
	ord, ok := any(P(target)).(store.Ordered)
	if !ok {
		return zero, fmt.Errorf("%w: collection %s has no order index", ErrValidation, c.name)
	}

	oldIndex := ord.GetOrderIndex()
	if oldIndex == newIndex {
		return *target, nil
	}

	var holder *T
	for i := range items {
		p := P(&items[i])
		if p.GetID() == id {
			continue
		}
		if h, ok := any(p).(store.Ordered); ok && h.GetOrderIndex() == newIndex {
			holder = &items[i]
			break
		}
	}

	now := c.now()
	ord.SetOrderIndex(newIndex)
	P(target).Touch(now)
	changed := []T{*target}
	if holder != nil {
		any(P(holder)).(store.Ordered).SetOrderIndex(oldIndex)
		P(holder).Touch(now)
		changed = append(changed, *holder)
	}

	if err := c.SaveBatch(ctx, origin, changed); err != nil {
		return zero, err
	}
	return changed[0], nil
}

// SaveBatch persists a set of records on one backend as a single logical
// operation: all rows on the remote store (then mirrored), or all rows on the
// cache if the remote path is down.
func (c *Collection[T, P]) SaveBatch(ctx context.Context, origin Origin, items []T) error {
	if len(items) == 0 {
		return nil
	}

	if origin == OriginRemote && c.remote != nil {
		db, cancel := c.remote.Session(ctx)
		err := db.Transaction(func(tx *gorm.DB) error {
			for i := range items {
				if err := tx.Save(&items[i]).Error; err != nil {
					return err
				}
			}
			return nil
		})
		cancel()
		if err == nil {
			for i := range items {
				P(&items[i]).MarkCacheOrigin(false)
				c.mirror("save-batch", items[i])
			}
			return nil
		}
		c.warn("save-batch", err)
	}

	for i := range items {
		P(&items[i]).MarkCacheOrigin(true)
	}
	if err := store.Mutate(c.files, c.name, func(existing []T) ([]T, error) {
		for i := range items {
			existing = upsert[T, P](existing, items[i])
		}
		return existing, nil
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// mirror copies an authoritative remote record into the snapshot cache. A
// mirror failure only degrades the cold-start copy, so it is logged and
// swallowed.
func (c *Collection[T, P]) mirror(op string, rec T) {
	if err := c.cacheUpsert(rec); err != nil {
		c.log.Warn().Str("op", op).Err(err).Msg("cache mirror failed")
	}
}

func (c *Collection[T, P]) cacheUpsert(rec T) error {
	return store.Mutate(c.files, c.name, func(items []T) ([]T, error) {
		return upsert[T, P](items, rec), nil
	})
}

// appendPendingCacheOrigin adds cache-origin records that the remote store
// does not know about yet to a remote list result.
func (c *Collection[T, P]) appendPendingCacheOrigin(items []T, match func(T) bool) []T {
	cached, err := store.Load[T](c.files, c.name)
	if err != nil {
		return items
	}

	seen := make(map[uint]struct{}, len(items))
	for i := range items {
		seen[P(&items[i]).GetID()] = struct{}{}
	}
	for i := range cached {
		p := P(&cached[i])
		if !p.IsCacheOrigin() {
			continue
		}
		if _, dup := seen[p.GetID()]; dup {
			continue
		}
		if match != nil && !match(cached[i]) {
			continue
		}
		items = append(items, cached[i])
	}
	return items
}

func (c *Collection[T, P]) nextLocalID(items []T) uint {
	id := uint(localIDBase) + uint(c.now().UnixNano()%localIDBase)
	for {
		taken := false
		for i := range items {
			if P(&items[i]).GetID() == id {
				taken = true
				break
			}
		}
		if !taken {
			return id
		}
		id++
	}
}

func upsert[T any, P recordPtr[T]](items []T, rec T) []T {
	id := P(&rec).GetID()
	for i := range items {
		if P(&items[i]).GetID() == id {
			items[i] = rec
			return items
		}
	}
	return append(items, rec)
}

func sortItems[T any, P recordPtr[T]](items []T, less func(a, b T) bool) {
	if less != nil {
		sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
		return
	}
	sort.SliceStable(items, func(i, j int) bool { return P(&items[i]).GetID() < P(&items[j]).GetID() })
}
