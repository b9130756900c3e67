package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"WalletPnL/internal/domain/models"
	drepo "WalletPnL/internal/domain/repository"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// pageProvider serves scripted pages keyed by cursor.
type pageProvider struct {
	name       string
	configured bool
	chains     []models.Chain
	maxPages   int

	mu     sync.Mutex
	pages  map[string]models.ActivityPage
	errs   map[string][]error
	failOn map[models.Chain]error
	calls  []string
}

func newPageProvider(name string, chains ...models.Chain) *pageProvider {
	return &pageProvider{
		name:       name,
		configured: true,
		chains:     chains,
		pages:      make(map[string]models.ActivityPage),
		errs:       make(map[string][]error),
		failOn:     make(map[models.Chain]error),
	}
}

func (p *pageProvider) Name() string     { return p.name }
func (p *pageProvider) Configured() bool { return p.configured }
func (p *pageProvider) Paging() drepo.PagingPolicy {
	return drepo.PagingPolicy{MaxPages: p.maxPages}
}

func (p *pageProvider) Supports(chain models.Chain) bool {
	for _, c := range p.chains {
		if c == chain {
			return true
		}
	}
	return false
}

func (p *pageProvider) FetchPage(_ context.Context, _ string, chain models.Chain, cursor string) (models.ActivityPage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, cursor)
	if err := p.failOn[chain]; err != nil {
		return models.ActivityPage{}, err
	}
	if queued := p.errs[cursor]; len(queued) > 0 {
		p.errs[cursor] = queued[1:]
		return models.ActivityPage{}, queued[0]
	}
	page, ok := p.pages[cursor]
	if !ok {
		return models.ActivityPage{}, nil
	}
	return page, nil
}

func (p *pageProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func transfer(wallet string, chain models.Chain, tx string, ts time.Time, native float64, deltas ...models.TokenDelta) models.NormalizedTransfer {
	return models.NormalizedTransfer{
		WalletAddress:       wallet,
		Chain:               chain,
		TxID:                tx,
		Source:              "TEST",
		Timestamp:           ts,
		NativeAmountSigned:  native,
		TokenBalanceChanges: deltas,
	}
}

func delta(id string, amount float64) models.TokenDelta {
	return models.TokenDelta{TokenID: id, AmountSigned: amount}
}

// flatPrices answers every window with a constant price.
type flatPrices struct {
	price float64
	err   error
	calls int
	mu    sync.Mutex
}

func (f *flatPrices) Name() string { return "flat" }

func (f *flatPrices) History(_ context.Context, _ models.Chain, from, to time.Time) ([]models.PricePoint, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return []models.PricePoint{{Timestamp: from, PriceUSD: f.price}, {Timestamp: to, PriceUSD: f.price}}, nil
}

// mapStrategy resolves ids from a fixed table and records every requested id.
type mapStrategy struct {
	name   string
	chains []models.Chain
	table  map[string]models.TokenMetadata
	err    error

	mu        sync.Mutex
	requested []string
}

func (s *mapStrategy) Name() string  { return s.name }
func (s *mapStrategy) MaxBatch() int { return 50 }

func (s *mapStrategy) Supports(chain models.Chain) bool {
	for _, c := range s.chains {
		if c == chain {
			return true
		}
	}
	return false
}

func (s *mapStrategy) TryResolve(_ context.Context, _ models.Chain, ids []string) (map[string]models.TokenMetadata, error) {
	s.mu.Lock()
	s.requested = append(s.requested, ids...)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string]models.TokenMetadata)
	for _, id := range ids {
		if m, ok := s.table[id]; ok {
			out[id] = m
		}
	}
	return out, nil
}

func noSleep(context.Context, time.Duration) error { return nil }

func rateLimitedErr() error {
	return fmt.Errorf("helius page: %w", models.ErrRateLimited)
}
