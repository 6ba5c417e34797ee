package cache

import (
	"sync"

	"github.com/tmoosting/tactical-tangle/pkg/core"
)

// RosterCache holds the character roster in load order for id lookups.
type RosterCache struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]core.Character
}

// NewRosterCache creates a RosterCache holding chars. Duplicate ids keep the first entry.
func NewRosterCache(chars []core.Character) *RosterCache {
	c := &RosterCache{byID: make(map[string]core.Character)}
	c.Load(chars)
	return c
}

// Load replaces the roster.
func (c *RosterCache) Load(chars []core.Character) {
	order := make([]string, 0, len(chars))
	byID := make(map[string]core.Character, len(chars))
	for _, ch := range chars {
		if ch.ID == "" {
			continue
		}
		if _, dup := byID[ch.ID]; dup {
			continue
		}
		byID[ch.ID] = ch
		order = append(order, ch.ID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = order
	c.byID = byID
}

// Get retrieves a character by id
func (c *RosterCache) Get(id string) (core.Character, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ch, ok := c.byID[id]
	return ch, ok
}

// All returns every character in load order.
func (c *RosterCache) All() []core.Character {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]core.Character, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

func (c *RosterCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}
