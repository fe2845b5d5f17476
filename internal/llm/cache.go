package llm

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// saveEvery controls how often Put flushes the cache to disk.
const saveEvery = 10

// Cache stores raw LLM responses keyed by content checksum, persisted as a
// single JSON file. Loading is best-effort: a missing or corrupt file
// yields an empty cache.
type Cache struct {
	mu      sync.Mutex
	path    string
	entries map[string]string
	unsaved int
}

// OpenCache loads the cache file at path, or starts empty.
func OpenCache(path string) *Cache {
	c := &Cache{path: path, entries: make(map[string]string)}
	data, err := os.ReadFile(path)
	if err != nil {
		return c
	}
	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return c
	}
	c.entries = entries
	return c
}

// Get returns the cached response for key.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

// Put records a response and flushes to disk every saveEvery new entries.
func (c *Cache) Put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	c.unsaved++
	if c.unsaved >= saveEvery {
		_ = c.save()
	}
}

// Len returns the number of cached responses.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Save writes the cache file.
func (c *Cache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save()
}

func (c *Cache) save() error {
	data, err := json.Marshal(c.entries)
	if err != nil {
		return fmt.Errorf("llm: marshal cache: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("llm: write cache: %w", err)
	}
	c.unsaved = 0
	return nil
}
