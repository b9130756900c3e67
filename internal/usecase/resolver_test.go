package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"WalletPnL/internal/domain/models"
	drepo "WalletPnL/internal/domain/repository"
	"WalletPnL/internal/service/runcache"
)

func TestPriceResolverMemoizesPerRun(t *testing.T) {
	src := &flatPrices{price: 120}
	r := NewPriceResolver(src, nil)
	rc := runcache.New()

	for i := 0; i < 2; i++ {
		s, w := r.Build(context.Background(), rc, models.ChainSolana, t0, t0.Add(time.Hour))
		if w != nil {
			t.Fatalf("unexpected warning %+v", w)
		}
		if got := s.PriceAt(t0); got != 120 {
			t.Fatalf("expected 120, got %v", got)
		}
	}
	if src.calls != 1 {
		t.Fatalf("expected one source call per run, got %d", src.calls)
	}

	if _, w := r.Build(context.Background(), runcache.New(), models.ChainSolana, t0, t0); w != nil {
		t.Fatalf("unexpected warning on fresh run")
	}
	if src.calls != 2 {
		t.Fatalf("a new run must not reuse another run's series")
	}
}

func TestPriceResolverFallback(t *testing.T) {
	cases := []struct {
		name   string
		source drepo.PriceHistorySource
		chain  models.Chain
		want   float64
	}{
		{name: "source error", source: &flatPrices{err: errors.New("429")}, chain: models.ChainSolana, want: 150},
		{name: "no source", source: nil, chain: models.ChainEthereum, want: 3000},
		{name: "bnb", source: &flatPrices{err: errors.New("down")}, chain: models.ChainBSC, want: 600},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, w := NewPriceResolver(tc.source, nil).Build(context.Background(), runcache.New(), tc.chain, t0, t0)
			if w == nil || w.Kind != models.WarningPriceFallback {
				t.Fatalf("expected price fallback warning, got %+v", w)
			}
			if got := s.PriceAt(t0); got != tc.want {
				t.Fatalf("expected fallback %v, got %v", tc.want, got)
			}
		})
	}
}

func TestMetadataResolverStrategyOrder(t *testing.T) {
	first := &mapStrategy{
		name:   "das",
		chains: []models.Chain{models.ChainSolana},
		table:  map[string]models.TokenMetadata{"mintA": {Symbol: "AAA", ImageURL: "https://img/a.png"}},
	}
	second := &mapStrategy{
		name:   "jupiter",
		chains: []models.Chain{models.ChainSolana},
		table:  map[string]models.TokenMetadata{"mintA": {Symbol: "WRONG"}, "mintB": {Symbol: "BBB"}},
	}
	evmOnly := &mapStrategy{name: "evm", chains: []models.Chain{models.ChainEthereum}}

	r := NewMetadataResolver([]drepo.MetadataStrategy{first, evmOnly, second}, nil, nil)
	rc := runcache.New()
	hints := map[string]models.TokenMetadata{"mintC": {Symbol: "CCC", ImageURL: "https://img/c.png"}}
	ids := []string{"mintA", "mintB", "mintC", "mintDDDDDDDD", "mintA"}

	got := r.ResolveBatch(context.Background(), rc, models.ChainSolana, ids, hints)

	if got["mintA"].Symbol != "AAA" || got["mintA"].Source != "das" {
		t.Fatalf("first strategy must win, got %+v", got["mintA"])
	}
	if got["mintB"].Symbol != "BBB" {
		t.Fatalf("expected fallthrough to second strategy, got %+v", got["mintB"])
	}
	if got["mintC"].Symbol != "CCC" || got["mintC"].Source != models.MetadataSourceHint {
		t.Fatalf("expected provider hint, got %+v", got["mintC"])
	}
	if got["mintDDDDDDDD"].Symbol != "mintDDDD..." || got["mintDDDDDDDD"].ImageURL != "" {
		t.Fatalf("expected placeholder, got %+v", got["mintDDDDDDDD"])
	}
	if len(evmOnly.requested) != 0 {
		t.Fatalf("unsupported strategy must be skipped")
	}
	if len(first.requested) != 4 {
		t.Fatalf("duplicate ids must be requested once, got %v", first.requested)
	}

	// A second lookup in the same run is answered from the run cache,
	// placeholders included.
	r.ResolveBatch(context.Background(), rc, models.ChainSolana, ids, hints)
	if len(first.requested) != 4 || len(second.requested) != 3 {
		t.Fatalf("repeat lookup hit the network: %v / %v", first.requested, second.requested)
	}
}

func TestMetadataResolverFailingStrategyFallsThrough(t *testing.T) {
	broken := &mapStrategy{name: "das", chains: []models.Chain{models.ChainSolana}, err: errors.New("rpc down")}
	backup := &mapStrategy{
		name:   "dexscreener",
		chains: []models.Chain{models.ChainSolana},
		table:  map[string]models.TokenMetadata{"mintA": {Symbol: "AAA"}},
	}

	got := NewMetadataResolver([]drepo.MetadataStrategy{broken, backup}, nil, nil).
		ResolveBatch(context.Background(), runcache.New(), models.ChainSolana, []string{"mintA"}, nil)
	if got["mintA"].Symbol != "AAA" {
		t.Fatalf("expected backup to resolve, got %+v", got["mintA"])
	}
}

func TestMetadataResolverBatches(t *testing.T) {
	s := &mapStrategy{name: "das", chains: []models.Chain{models.ChainSolana}, table: map[string]models.TokenMetadata{}}
	ids := make([]string, 0, 120)
	for i := 0; i < 120; i++ {
		ids = append(ids, fmt.Sprintf("mint%03d", i))
	}

	got := NewMetadataResolver([]drepo.MetadataStrategy{s}, nil, nil, WithMetadataBatch(50, 2)).
		ResolveBatch(context.Background(), runcache.New(), models.ChainSolana, ids, nil)
	if len(got) != 120 {
		t.Fatalf("every id must get metadata, got %d", len(got))
	}
	if len(s.requested) != 120 {
		t.Fatalf("expected each id requested once, got %d", len(s.requested))
	}
}
