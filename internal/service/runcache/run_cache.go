// Package runcache holds lookups memoized for the lifetime of one wallet run.
package runcache

import (
	"sync"

	"WalletPnL/internal/domain/models"
)

type metaKey struct {
	chain models.Chain
	id    string
}

// RunCache is created per wallet run and dropped with it. It is safe for the
// concurrent metadata batches of a single run.
type RunCache struct {
	mu       sync.RWMutex
	metadata map[metaKey]models.TokenMetadata
	prices   map[models.Chain]models.PriceSeries
}

func New() *RunCache {
	return &RunCache{
		metadata: make(map[metaKey]models.TokenMetadata),
		prices:   make(map[models.Chain]models.PriceSeries),
	}
}

func (c *RunCache) Metadata(chain models.Chain, id string) (models.TokenMetadata, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.metadata[metaKey{chain, id}]
	return m, ok
}

// PutMetadata stores results, placeholders included, so repeats never hit the network.
func (c *RunCache) PutMetadata(chain models.Chain, id string, m models.TokenMetadata) {
	c.mu.Lock()
	c.metadata[metaKey{chain, id}] = m
	c.mu.Unlock()
}

// Missing returns the ids not yet cached, deduplicated and in input order.
func (c *RunCache) Missing(chain models.Chain, ids []string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := c.metadata[metaKey{chain, id}]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func (c *RunCache) PriceSeries(chain models.Chain) (models.PriceSeries, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.prices[chain]
	return s, ok
}

func (c *RunCache) PutPriceSeries(chain models.Chain, s models.PriceSeries) {
	c.mu.Lock()
	c.prices[chain] = s
	c.mu.Unlock()
}
