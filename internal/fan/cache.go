package fan

import (
	"sync"
	"time"
)

// cache remembers the last known speed level with a freshness window.
// Exactly one entry per client, overwritten whole on every successful
// read or write confirmation. The active flag is always derived from
// the level, never stored, so the two cannot diverge.
type cache struct {
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time

	level      int
	capturedAt time.Time
	present    bool
}

func newCache(ttl time.Duration, now func() time.Time) *cache {
	return &cache{ttl: ttl, now: now}
}

// write unconditionally overwrites the entry and resets its capture
// time.
func (c *cache) write(level int) {
	c.mu.Lock()
	c.level = level
	c.capturedAt = c.now()
	c.present = true
	c.mu.Unlock()
}

// read returns the entry only while it is fresh. Stale entries are not
// deleted, only ignored here.
func (c *cache) read() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.present || c.now().Sub(c.capturedAt) >= c.ttl {
		return 0, false
	}
	return c.level, true
}

// readStale returns the entry regardless of freshness. Used only as a
// last resort after a live query has already failed.
func (c *cache) readStale() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.present {
		return 0, false
	}
	return c.level, true
}
