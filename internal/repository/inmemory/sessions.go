package inmemory

import (
	"sync"
	"time"

	familydomain "cras-cadastro/internal/domain/family"
)

type InMemorySessionCache struct {
	mu    sync.RWMutex
	items map[string]sessionItem
	now   func() time.Time
}

type sessionItem struct {
	value     *familydomain.Session
	expiresAt time.Time
}

func NewInMemorySessionCache() *InMemorySessionCache {
	return &InMemorySessionCache{
		items: make(map[string]sessionItem),
		now:   time.Now,
	}
}

func (c *InMemorySessionCache) Get(id string) (*familydomain.Session, bool) {
	now := c.now()

	c.mu.RLock()
	item, ok := c.items[id]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !item.expiresAt.After(now) {
		c.mu.Lock()
		item, ok = c.items[id]
		if ok && !item.expiresAt.After(now) {
			delete(c.items, id)
		}
		c.mu.Unlock()
		return nil, false
	}

	return item.value, true
}

func (c *InMemorySessionCache) Set(id string, session *familydomain.Session, ttl time.Duration) {
	if session == nil || ttl <= 0 {
		c.Delete(id)
		return
	}

	c.mu.Lock()
	c.items[id] = sessionItem{
		value:     session,
		expiresAt: c.now().Add(ttl),
	}
	c.mu.Unlock()
}

func (c *InMemorySessionCache) Delete(id string) {
	c.mu.Lock()
	delete(c.items, id)
	c.mu.Unlock()
}

func (c *InMemorySessionCache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]sessionItem)
	c.mu.Unlock()
}

// Sweep drops expired sessions and reports how many were removed.
func (c *InMemorySessionCache) Sweep() int {
	now := c.now()
	removed := 0

	c.mu.Lock()
	for id, item := range c.items {
		if !item.expiresAt.After(now) {
			delete(c.items, id)
			removed++
		}
	}
	c.mu.Unlock()
	return removed
}
