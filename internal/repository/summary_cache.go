package repository

import (
	"context"
	"time"

	"WalletPnL/internal/domain/models"
	drepo "WalletPnL/internal/domain/repository"
	"WalletPnL/pkg/cache"
)

// SummaryCache stores summaries under summary:<chain>:<wallet>. Misses surface
// as cache.ErrCacheMiss.
type SummaryCache struct {
	svc cache.Service
	ttl time.Duration
}

func NewSummaryCache(svc cache.Service, ttl time.Duration) *SummaryCache {
	return &SummaryCache{svc: svc, ttl: ttl}
}

func summaryKey(chain, wallet string) string {
	return cache.Key("summary", chain, wallet)
}

func (c *SummaryCache) Get(ctx context.Context, chain, wallet string) (*models.PnLSummary, error) {
	var s models.PnLSummary
	if err := c.svc.Get(ctx, summaryKey(chain, wallet), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *SummaryCache) Set(ctx context.Context, s *models.PnLSummary) error {
	return c.svc.Set(ctx, summaryKey(s.Chain, s.Wallet), s, c.ttl)
}

var _ drepo.SummaryCache = (*SummaryCache)(nil)
