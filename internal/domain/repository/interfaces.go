package repository

import (
	"context"
	"time"

	"WalletPnL/internal/domain/models"
)

// HTTPGetter is the only network capability the adapters depend on.
// Credentials travel in headers or the URL the adapter builds.
type HTTPGetter interface {
	GetJSON(ctx context.Context, url string, headers map[string]string, dest interface{}) error
}

// JSONPoster covers JSON-RPC style lookups (Helius DAS).
type JSONPoster interface {
	PostJSON(ctx context.Context, url string, headers map[string]string, body, dest interface{}) error
}

// PagingPolicy bounds one provider's pagination.
type PagingPolicy struct {
	MaxPages  int
	PageDelay time.Duration
}

// ActivityProvider fetches one page of wallet activity and decodes it.
// An empty cursor requests the first page.
type ActivityProvider interface {
	Name() string
	// Configured reports whether the provider has the credential it needs.
	Configured() bool
	Supports(chain models.Chain) bool
	Paging() PagingPolicy
	FetchPage(ctx context.Context, wallet string, chain models.Chain, cursor string) (models.ActivityPage, error)
}

// PriceHistorySource returns native/USD points between from and to.
type PriceHistorySource interface {
	Name() string
	History(ctx context.Context, chain models.Chain, from, to time.Time) ([]models.PricePoint, error)
}

// MetadataStrategy resolves a batch of token ids. Ids it cannot resolve are
// simply absent from the result; an error means the whole batch failed.
type MetadataStrategy interface {
	Name() string
	Supports(chain models.Chain) bool
	MaxBatch() int
	TryResolve(ctx context.Context, chain models.Chain, ids []string) (map[string]models.TokenMetadata, error)
}

// RateLimiter paces outbound calls per key with a token bucket.
type RateLimiter interface {
	Allow(key string, capacity int, refillPerSec float64) bool
	Wait(ctx context.Context, key string, capacity int, refillPerSec float64) error
}

// SummaryCache stores finished summaries per (chain selector, wallet).
type SummaryCache interface {
	Get(ctx context.Context, chain, wallet string) (*models.PnLSummary, error)
	Set(ctx context.Context, summary *models.PnLSummary) error
}

// JobStore persists async job state.
type JobStore interface {
	Save(ctx context.Context, job *models.Job) error
	Get(ctx context.Context, id string) (*models.Job, error)
}

// JobQueue hands a job id to the background workers.
type JobQueue interface {
	EnqueueAnalysis(ctx context.Context, job *models.Job) error
}

// JobQueueStats reports the background queue backlog.
type JobQueueStats interface {
	Depth(ctx context.Context) (pending, retry, dead int64, err error)
}

// SummaryPublisher streams finished summaries (kafka).
type SummaryPublisher interface {
	PublishSummary(ctx context.Context, result *models.AnalysisResult) error
	Close() error
}

// SummaryStorage archives summaries and their trades (clickhouse).
type SummaryStorage interface {
	Init(ctx context.Context) error
	StoreResult(ctx context.Context, result *models.AnalysisResult) error
	Health(ctx context.Context) error
	Close() error
}

// SummaryHistory lists archived runs, newest first.
type SummaryHistory interface {
	History(ctx context.Context, wallet, chain string, limit int) ([]models.SummaryRecord, error)
}

// SummarySink is where every finished run is handed off after the response is built.
type SummarySink interface {
	Submit(result *models.AnalysisResult) bool
}

// Metrics records pipeline observations.
type Metrics interface {
	ProviderPage(provider string, chain models.Chain, outcome string, seconds float64)
	ProviderOutcome(provider string, chain models.Chain, outcome string)
	MetadataLookup(strategy, outcome string, ids int)
	PriceLookup(source, outcome string)
	TradesClassified(chain models.Chain, kind string, n int)
	RunCompleted(chain string, outcome string, seconds float64)
	SinkDelivery(backend, outcome string)
}
