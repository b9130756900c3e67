package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"WalletPnL/internal/domain/models"
	drepo "WalletPnL/internal/domain/repository"
	"WalletPnL/internal/service/ratelimit"
	applogger "WalletPnL/pkg/logger"
	"WalletPnL/pkg/metrics"
)

const defaultRetryDelay = 2 * time.Second

// FetchResult is the activity of one wallet on one chain from a single provider.
type FetchResult struct {
	Provider   string
	Transfers  []models.NormalizedTransfer
	Warnings   []models.Warning
	NoActivity bool
}

type FetcherOption func(*ActivityFetcher)

// ActivityFetcher owns the paging loop shared by every provider and the
// fallback chain across providers.
type ActivityFetcher struct {
	providers  []drepo.ActivityProvider
	limiter    drepo.RateLimiter
	metrics    drepo.Metrics
	logger     *applogger.Logger
	retryDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewActivityFetcher takes providers in priority order.
func NewActivityFetcher(providers []drepo.ActivityProvider, limiter drepo.RateLimiter, m drepo.Metrics, lgr *applogger.Logger, opts ...FetcherOption) *ActivityFetcher {
	f := &ActivityFetcher{
		providers:  providers,
		limiter:    limiter,
		metrics:    m,
		logger:     lgr,
		retryDelay: defaultRetryDelay,
		sleep:      sleepCtx,
	}
	if f.limiter == nil {
		f.limiter = ratelimit.New()
	}
	if f.metrics == nil {
		f.metrics = metrics.Nop{}
	}
	if f.logger == nil {
		f.logger = applogger.Nop()
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// WithRetryDelay sets the wait before retrying a rate-limited page.
func WithRetryDelay(d time.Duration) FetcherOption {
	return func(f *ActivityFetcher) {
		if d >= 0 {
			f.retryDelay = d
		}
	}
}

func withSleep(fn func(context.Context, time.Duration) error) FetcherOption {
	return func(f *ActivityFetcher) {
		f.sleep = fn
	}
}

// Candidates returns the configured providers for chain in priority order.
func (f *ActivityFetcher) Candidates(chain models.Chain) []drepo.ActivityProvider {
	var out []drepo.ActivityProvider
	for _, p := range f.providers {
		if p.Supports(chain) && p.Configured() {
			out = append(out, p)
		}
	}
	return out
}

// CheckConfigured fails with a ConfigurationError when chain has no usable provider.
func (f *ActivityFetcher) CheckConfigured(chain models.Chain) error {
	if len(f.Candidates(chain)) > 0 {
		return nil
	}
	var keys []string
	for _, p := range f.providers {
		if p.Supports(chain) {
			keys = append(keys, strings.ToUpper(p.Name())+"_API_KEY")
		}
	}
	field := "provider api key"
	if len(keys) > 0 {
		field = strings.Join(keys, " or ")
	}
	return &models.ConfigurationError{Field: field, Chain: chain}
}

// Fetch walks the providers until one returns at least one record. Results are
// never merged across providers.
func (f *ActivityFetcher) Fetch(ctx context.Context, wallet string, chain models.Chain, progress models.ProgressFunc) (*FetchResult, error) {
	if err := f.CheckConfigured(chain); err != nil {
		return nil, err
	}

	var (
		errs      []error
		warnings  []models.Warning
		firstOK   string
		succeeded bool
	)
	for i, p := range f.Candidates(chain) {
		if i > 0 {
			progress.Emit(models.ProgressEvent{Stage: models.StageFallback, Chain: chain, Provider: p.Name()})
		}

		transfers, partial, err := f.fetchAll(ctx, p, wallet, chain, progress)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			f.metrics.ProviderOutcome(p.Name(), chain, "unavailable")
			f.logger.Warn("provider unavailable, falling back",
				applogger.String("provider", p.Name()),
				applogger.String("chain", string(chain)),
				applogger.Error(err),
			)
			errs = append(errs, err)
			warnings = append(warnings, models.Warning{
				Kind:     models.WarningProviderError,
				Chain:    chain,
				Provider: p.Name(),
				Message:  err.Error(),
			})
			continue
		}

		if partial != nil {
			warnings = append(warnings, partial.AsWarning())
		}
		if len(transfers) > 0 {
			outcome := "ok"
			if partial != nil {
				outcome = "partial"
			}
			f.metrics.ProviderOutcome(p.Name(), chain, outcome)
			return &FetchResult{Provider: p.Name(), Transfers: transfers, Warnings: warnings}, nil
		}

		f.metrics.ProviderOutcome(p.Name(), chain, "empty")
		if !succeeded {
			succeeded, firstOK = true, p.Name()
		}
	}

	if !succeeded {
		return nil, errors.Join(append([]error{models.ErrNoData}, errs...)...)
	}
	return &FetchResult{Provider: firstOK, Warnings: warnings, NoActivity: true}, nil
}

// fetchAll pages through one provider. A first-page failure is fatal for the
// provider; later failures keep what was collected and report why it stopped.
func (f *ActivityFetcher) fetchAll(ctx context.Context, p drepo.ActivityProvider, wallet string, chain models.Chain, progress models.ProgressFunc) ([]models.NormalizedTransfer, *models.PartialDataWarning, error) {
	policy := p.Paging()
	var (
		out    []models.NormalizedTransfer
		cursor string
		pages  int
		seen   = make(map[string]bool)
	)
	partial := func(reason models.PartialReason, err error) *models.PartialDataWarning {
		w := &models.PartialDataWarning{Provider: p.Name(), Chain: chain, Reason: reason, Pages: pages, Records: len(out), Err: err}
		f.logger.Warn("pagination stopped early",
			applogger.String("provider", p.Name()),
			applogger.String("chain", string(chain)),
			applogger.String("reason", string(reason)),
			applogger.Int("pages", pages),
			applogger.Int("records", len(out)),
		)
		return w
	}

	for {
		if policy.MaxPages > 0 && pages >= policy.MaxPages {
			return out, partial(models.PartialPageLimit, nil), nil
		}
		if policy.PageDelay > 0 {
			capacity, refill := ratelimit.PacedEvery(policy.PageDelay)
			if err := f.limiter.Wait(ctx, p.Name(), capacity, refill); err != nil {
				return nil, nil, err
			}
		}

		page, err := f.fetchPage(ctx, p, wallet, chain, cursor)
		if err != nil {
			if pages == 0 {
				return nil, nil, &models.ProviderUnavailableError{Provider: p.Name(), Chain: chain, Err: err}
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, nil, ctxErr
			}
			reason := models.PartialPageError
			if errors.Is(err, models.ErrRateLimited) {
				reason = models.PartialRateLimited
			}
			return out, partial(reason, err), nil
		}

		pages++
		out = append(out, page.Transfers...)
		progress.Emit(models.ProgressEvent{
			Stage:    models.StageFetching,
			Chain:    chain,
			Provider: p.Name(),
			Page:     pages,
			Records:  len(out),
		})
		f.logger.Debug("fetched page",
			applogger.String("provider", p.Name()),
			applogger.Int("page", pages),
			applogger.Int("raw", page.RawCount),
			applogger.Int("decoded", len(page.Transfers)),
		)

		next := page.NextCursor
		if next == "" {
			return out, nil, nil
		}
		if next == cursor || seen[next] {
			return out, partial(models.PartialCursorRepeat, nil), nil
		}
		seen[next] = true
		cursor = next
	}
}

// fetchPage retries a rate-limited page once after the retry delay.
func (f *ActivityFetcher) fetchPage(ctx context.Context, p drepo.ActivityProvider, wallet string, chain models.Chain, cursor string) (models.ActivityPage, error) {
	start := time.Now()
	page, err := p.FetchPage(ctx, wallet, chain, cursor)
	if errors.Is(err, models.ErrRateLimited) {
		f.metrics.ProviderPage(p.Name(), chain, "rate_limited", time.Since(start).Seconds())
		f.logger.Warn("provider rate limited, retrying",
			applogger.String("provider", p.Name()),
			applogger.Duration("delay", f.retryDelay),
		)
		if serr := f.sleep(ctx, f.retryDelay); serr != nil {
			return models.ActivityPage{}, serr
		}
		start = time.Now()
		page, err = p.FetchPage(ctx, wallet, chain, cursor)
	}

	outcome := "ok"
	switch {
	case errors.Is(err, models.ErrRateLimited):
		outcome = "rate_limited"
	case err != nil:
		outcome = "error"
	}
	f.metrics.ProviderPage(p.Name(), chain, outcome, time.Since(start).Seconds())
	return page, err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
