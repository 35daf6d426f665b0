// Package cache holds the last-fetched batch records between the list
// step and a later selection. Entries live for the whole process;
// nothing is evicted, and a restart empties the cache. Unbounded growth
// is an accepted operational trade-off for this workload.
package cache

import (
	"sync"

	"github.com/CHITIJRAJPUTX/Sdv-Unacademy-admin-bot/internal/catalog"
)

type BatchCache struct {
	mu      sync.RWMutex
	batches map[string]catalog.Batch
}

func NewBatchCache() *BatchCache {
	return &BatchCache{
		batches: make(map[string]catalog.Batch),
	}
}

// Put stores a batch keyed by uid. Re-observing a uid overwrites the
// previous record wholesale; last seen wins.
func (c *BatchCache) Put(b catalog.Batch) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches[b.UID] = b
}

func (c *BatchCache) Get(uid string) (catalog.Batch, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.batches[uid]
	return b, ok
}

func (c *BatchCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.batches)
}
