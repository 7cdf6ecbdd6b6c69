package family

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Store persists the whole family collection as a single blob. There are no
// partial updates: every write replaces the collection.
type Store interface {
	LoadAll(ctx context.Context) ([]Family, error)
	SaveAll(ctx context.Context, families []Family) error
}

// Mutation receives the current collection and returns the collection to
// write back. Returning changed=false skips the write.
type Mutation func(families []Family) (updated []Family, changed bool, err error)

// AtomicStore is implemented by backends that can hold the blob locked (or
// watched) across a read-modify-write, so that writers in other processes do
// not clobber each other.
type AtomicStore interface {
	Store
	Update(ctx context.Context, mutate Mutation) error
}

// Records serializes read-modify-write cycles against a Store within the
// process and exposes the collection keyed by family id.
type Records struct {
	mu      sync.Mutex
	store   Store
	metrics Metrics
}

func NewRecords(store Store, metrics Metrics) *Records {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Records{store: store, metrics: metrics}
}

func (r *Records) List(ctx context.Context) ([]Family, error) {
	families, err := r.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load families: %w", err)
	}
	return families, nil
}

func (r *Records) Get(ctx context.Context, id string) (*Family, error) {
	families, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range families {
		if families[i].ID == id {
			result := families[i].Clone()
			return &result, nil
		}
	}
	return nil, ErrFamilyNotFound
}

// Update runs fn against the full collection and writes it back when fn
// changed anything. An error from fn aborts without writing.
func (r *Records) Update(ctx context.Context, fn func(*Collection) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// changed reflects the last attempt; atomic stores may retry.
	var changed bool
	mutate := func(families []Family) ([]Family, bool, error) {
		changed = false
		collection := &Collection{families: families}
		if err := fn(collection); err != nil {
			return nil, false, err
		}
		changed = collection.changed
		return collection.families, changed, nil
	}

	start := time.Now()
	if atomic, ok := r.store.(AtomicStore); ok {
		if err := atomic.Update(ctx, mutate); err != nil {
			return err
		}
		if changed {
			r.metrics.ObserveStoreWrite(start)
		}
		return nil
	}

	families, err := r.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load families: %w", err)
	}
	updated, _, err := mutate(families)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if err := r.store.SaveAll(ctx, updated); err != nil {
		return fmt.Errorf("save families: %w", err)
	}
	r.metrics.ObserveStoreWrite(start)
	return nil
}

// Collection is the in-memory view handed to Records.Update callbacks.
type Collection struct {
	families []Family
	changed  bool
}

func (c *Collection) All() []Family {
	return c.families
}

// Find returns a copy of the family; write it back with Put.
func (c *Collection) Find(id string) (Family, bool) {
	for i := range c.families {
		if c.families[i].ID == id {
			return c.families[i].Clone(), true
		}
	}
	return Family{}, false
}

// Put replaces the family with the same id, or appends it.
func (c *Collection) Put(f Family) {
	c.changed = true
	for i := range c.families {
		if c.families[i].ID == f.ID {
			c.families[i] = f
			return
		}
	}
	c.families = append(c.families, f)
}

func (c *Collection) Delete(id string) bool {
	for i := range c.families {
		if c.families[i].ID == id {
			c.families = append(c.families[:i], c.families[i+1:]...)
			c.changed = true
			return true
		}
	}
	return false
}
