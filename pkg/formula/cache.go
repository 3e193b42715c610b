package formula

import (
	"sync"
	"time"
)

// Version identifies one stored formula row: (target, start, end).
type Version struct {
	TargetMeterID uint
	Start         int64
	End           int64 // 0 for open ended
}

func NewVersion(target uint, start time.Time, end *time.Time) Version {
	v := Version{TargetMeterID: target, Start: start.UnixNano()}
	if end != nil {
		v.End = end.UnixNano()
	}
	return v
}

type cacheEntry struct {
	source string
	expr   *Expression
}

// Cache keeps parsed expressions per formula version so a run parses each
// row once rather than once per timestamp. Safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[Version]cacheEntry
}

func NewCache() *Cache {
	return &Cache{entries: map[Version]cacheEntry{}}
}

// Get returns the parsed expression for version, parsing src on a miss or
// when the stored source text changed.
func (c *Cache) Get(version Version, src string) (*Expression, error) {
	c.mu.RLock()
	entry, ok := c.entries[version]
	c.mu.RUnlock()
	if ok && entry.source == src {
		return entry.expr, nil
	}

	expr, err := Parse(src)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[version] = cacheEntry{source: src, expr: expr}
	c.mu.Unlock()
	return expr, nil
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
