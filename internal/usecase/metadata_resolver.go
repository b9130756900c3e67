package usecase

import (
	"context"

	"golang.org/x/sync/errgroup"

	"WalletPnL/internal/domain/models"
	drepo "WalletPnL/internal/domain/repository"
	"WalletPnL/internal/service/runcache"
	applogger "WalletPnL/pkg/logger"
	"WalletPnL/pkg/metrics"
)

const (
	defaultMetadataBatch       = 50
	defaultMetadataConcurrency = 4
)

type MetadataOption func(*MetadataResolver)

// MetadataResolver runs the ordered strategy chain over batches of token ids.
// Lookups never fail a run; unresolved ids degrade to hints or placeholders.
type MetadataResolver struct {
	strategies  []drepo.MetadataStrategy
	batchSize   int
	concurrency int
	metrics     drepo.Metrics
	logger      *applogger.Logger
}

func NewMetadataResolver(strategies []drepo.MetadataStrategy, m drepo.Metrics, lgr *applogger.Logger, opts ...MetadataOption) *MetadataResolver {
	r := &MetadataResolver{
		strategies:  strategies,
		batchSize:   defaultMetadataBatch,
		concurrency: defaultMetadataConcurrency,
		metrics:     m,
		logger:      lgr,
	}
	if r.metrics == nil {
		r.metrics = metrics.Nop{}
	}
	if r.logger == nil {
		r.logger = applogger.Nop()
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func WithMetadataBatch(size, concurrency int) MetadataOption {
	return func(r *MetadataResolver) {
		if size > 0 {
			r.batchSize = size
		}
		if concurrency > 0 {
			r.concurrency = concurrency
		}
	}
}

// ResolveBatch returns metadata for every id. hints carries provider-supplied
// symbols and logos used before falling back to a placeholder.
func (r *MetadataResolver) ResolveBatch(ctx context.Context, rc *runcache.RunCache, chain models.Chain, ids []string, hints map[string]models.TokenMetadata) map[string]models.TokenMetadata {
	missing := rc.Missing(chain, ids)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for start := 0; start < len(missing); start += r.batchSize {
		batch := missing[start:min(start+r.batchSize, len(missing))]
		g.Go(func() error {
			r.resolveBatch(gctx, rc, chain, batch, hints)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]models.TokenMetadata, len(ids))
	for _, id := range ids {
		if m, ok := rc.Metadata(chain, id); ok {
			out[id] = m
		}
	}
	return out
}

func (r *MetadataResolver) resolveBatch(ctx context.Context, rc *runcache.RunCache, chain models.Chain, batch []string, hints map[string]models.TokenMetadata) {
	remaining := append([]string(nil), batch...)

	for _, s := range r.strategies {
		if len(remaining) == 0 || ctx.Err() != nil {
			break
		}
		if !s.Supports(chain) {
			continue
		}
		step := s.MaxBatch()
		if step <= 0 {
			step = len(remaining)
		}

		var unresolved []string
		for start := 0; start < len(remaining); start += step {
			chunk := remaining[start:min(start+step, len(remaining))]
			found, err := s.TryResolve(ctx, chain, chunk)
			if err != nil {
				r.metrics.MetadataLookup(s.Name(), "error", len(chunk))
				r.logger.Debug("metadata strategy failed",
					applogger.String("strategy", s.Name()),
					applogger.String("chain", string(chain)),
					applogger.Int("ids", len(chunk)),
					applogger.Error(err),
				)
				unresolved = append(unresolved, chunk...)
				continue
			}
			r.metrics.MetadataLookup(s.Name(), "ok", len(chunk))
			for _, id := range chunk {
				m, ok := found[id]
				if !ok || m.Symbol == "" {
					unresolved = append(unresolved, id)
					continue
				}
				if m.ImageURL == "" {
					m.ImageURL = hints[id].ImageURL
				}
				if m.Source == "" {
					m.Source = s.Name()
				}
				rc.PutMetadata(chain, id, m)
			}
		}
		remaining = unresolved
	}

	for _, id := range remaining {
		if h, ok := hints[id]; ok && h.Symbol != "" {
			rc.PutMetadata(chain, id, models.TokenMetadata{Symbol: h.Symbol, ImageURL: h.ImageURL, Source: models.MetadataSourceHint})
			continue
		}
		rc.PutMetadata(chain, id, models.TokenMetadata{Symbol: models.PlaceholderSymbol(id), Source: models.MetadataSourcePlaceholder})
	}
}
