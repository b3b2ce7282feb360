package bookings

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/camkit/hallbook/pkg/logger"
)

// Cache owns the in-memory booking mapping for exactly one owner at a
// time, kept in lockstep with a durable Store. Every mutation is
// flushed through the store before the mutating call returns; a failed
// flush surfaces as an error while the in-memory mutation is retained,
// so the caller can retry the save without losing the change.
type Cache struct {
	mu    sync.RWMutex
	store Store
	log   *slog.Logger

	owner string
	items map[string]Booking
}

// Option is a functional option for configuring the Cache.
type Option func(*Cache)

// WithLogger sets the logger used for cache lifecycle events.
func WithLogger(log *slog.Logger) Option {
	return func(c *Cache) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a booking cache backed by the given store. The cache is
// unscoped until Load binds it to an owner.
func New(store Store, opts ...Option) *Cache {
	c := &Cache{
		store: store,
		log:   logger.NewDiscard(),
		items: make(map[string]Booking),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load scopes the cache to owner and populates it from the durable
// store. A missing durable record is first-time use, not an error. A
// record that cannot be decoded returns ErrCorruptStore and leaves the
// cache unscoped; use LoadOrEmpty to opt into an empty fallback.
func (c *Cache) Load(ctx context.Context, owner string) error {
	if owner == "" {
		return ErrInvalidOwner
	}

	records, err := c.store.Load(ctx, owner)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.owner = owner
	c.items = records
	c.log.DebugContext(ctx, "booking cache loaded", "owner", owner, "bookings", len(records))
	return nil
}

// LoadOrEmpty is Load, except a corrupt durable record is logged and
// replaced with an empty mapping instead of failing. The corrupt file
// is overwritten on the next mutation.
func (c *Cache) LoadOrEmpty(ctx context.Context, owner string) error {
	err := c.Load(ctx, owner)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrCorruptStore) {
		return err
	}

	c.log.WarnContext(ctx, "discarding corrupt booking record", "owner", owner, "error", err)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.owner = owner
	c.items = make(map[string]Booking)
	return nil
}

// Owner returns the identifier the cache is currently scoped to, empty
// when unscoped.
func (c *Cache) Owner() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.owner
}

// Reset discards the in-memory mapping and owner scope. The durable
// record is untouched. Idempotent.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.owner = ""
	c.items = make(map[string]Booking)
}

// Add inserts or overwrites the booking at the slot's canonical key and
// persists the mapping. The nonstandard flag is derived from the
// standard dining schedule for the given meal.
func (c *Cache) Add(ctx context.Context, slot time.Time, meal Meal, details Details) (Booking, error) {
	if !meal.Valid() {
		return Booking{}, ErrUnknownMeal
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.owner == "" {
		return Booking{}, ErrNotLoaded
	}

	b := Booking{
		Slot:         slot.UTC(),
		Meal:         meal,
		Nonstandard:  !IsStandardSlot(slot, meal),
		Occasion:     details.Occasion,
		Vegetarian:   details.Vegetarian,
		Requirements: details.Requirements,
	}
	c.items[b.Key()] = b

	if err := c.flush(ctx); err != nil {
		return b, err
	}
	c.log.InfoContext(ctx, "booking added", "owner", c.owner, "slot", b.Key(), "meal", meal, "nonstandard", b.Nonstandard)
	return b, nil
}

// Cancel removes the booking at the slot's canonical key, persisting
// the change. Returns false, without error, when no booking exists at
// that slot; the mapping is left untouched in that case.
func (c *Cache) Cancel(ctx context.Context, slot time.Time) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.owner == "" {
		return false, ErrNotLoaded
	}

	key := SlotKey(slot)
	if _, ok := c.items[key]; !ok {
		return false, nil
	}
	delete(c.items, key)

	if err := c.flush(ctx); err != nil {
		return true, err
	}
	c.log.InfoContext(ctx, "booking cancelled", "owner", c.owner, "slot", key)
	return true, nil
}

// Get returns the booking at the slot's canonical key, if any.
func (c *Cache) Get(slot time.Time) (Booking, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.items[SlotKey(slot)]
	return b, ok
}

// All returns the cached bookings ordered by slot time.
func (c *Cache) All() []Booking {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := slices.Collect(maps.Values(c.items))
	slices.SortFunc(out, func(a, b Booking) int {
		return a.Slot.Compare(b.Slot)
	})
	return out
}

// Len returns the number of cached bookings.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// flush persists the full mapping. Callers hold the write lock. On
// failure the in-memory mapping is left as mutated.
func (c *Cache) flush(ctx context.Context) error {
	if err := c.store.Save(ctx, c.owner, c.items); err != nil {
		c.log.ErrorContext(ctx, "booking save failed", "owner", c.owner, "error", err)
		if errors.Is(err, ErrSaveFailed) {
			return err
		}
		return errors.Join(ErrSaveFailed, err)
	}
	return nil
}
