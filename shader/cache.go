package shader

import (
	"fmt"
	"sync"
)

// Cache holds linked programs by name.
//
// A Cache is safe for concurrent use. Renderers sharing a Cache link each
// named program once.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	vertex   string
	fragment string
	program  *Program
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*cacheEntry)}
}

// Program returns the program registered under name, linking it from the
// given sources on first use.
//
// If name is already registered with different sources the call fails with
// ErrNameCollision. Link failures are not cached.
func (c *Cache) Program(name, vertexSrc, fragmentSrc string) (*Program, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[name]; ok {
		if e.vertex != vertexSrc || e.fragment != fragmentSrc {
			return nil, fmt.Errorf("%w: %q", ErrNameCollision, name)
		}
		return e.program, nil
	}

	p, err := Link(name, vertexSrc, fragmentSrc)
	if err != nil {
		return nil, err
	}
	c.entries[name] = &cacheEntry{vertex: vertexSrc, fragment: fragmentSrc, program: p}
	return p, nil
}

// Lookup returns a previously linked program.
func (c *Cache) Lookup(name string) (*Program, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[name]
	if !ok {
		return nil, false
	}
	return e.program, true
}

// Len reports the number of cached programs.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
