package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"WalletPnL/internal/domain/models"
	drepo "WalletPnL/internal/domain/repository"
	"WalletPnL/internal/service/runcache"
	"WalletPnL/pkg/address"
	applogger "WalletPnL/pkg/logger"
	"WalletPnL/pkg/metrics"
)

// Analyzer runs one wallet end to end. Every call builds its own run cache,
// ledgers and stats; nothing mutable outlives the call.
type Analyzer struct {
	fetcher    *ActivityFetcher
	prices     *PriceResolver
	metadata   *MetadataResolver
	classifier *Classifier
	metrics    drepo.Metrics
	logger     *applogger.Logger
	now        func() time.Time
}

func NewAnalyzer(
	fetcher *ActivityFetcher,
	prices *PriceResolver,
	metadata *MetadataResolver,
	classifier *Classifier,
	m drepo.Metrics,
	lgr *applogger.Logger,
) *Analyzer {
	if m == nil {
		m = metrics.Nop{}
	}
	if lgr == nil {
		lgr = applogger.Nop()
	}
	return &Analyzer{
		fetcher:    fetcher,
		prices:     prices,
		metadata:   metadata,
		classifier: classifier,
		metrics:    m,
		logger:     lgr,
		now:        time.Now,
	}
}

// chainRun is the outcome of one chain within a run.
type chainRun struct {
	chain    models.Chain
	provider string
	ledger   *Ledger
	trades   []models.ClassifiedTrade
	warnings []models.Warning
	empty    bool
}

// Analyze validates the request, checks credentials before any network call,
// and runs each selected chain independently.
func (a *Analyzer) Analyze(ctx context.Context, req models.AnalyzeRequest, progress models.ProgressFunc) (*models.AnalysisResult, error) {
	start := a.now()

	chains, err := models.ExpandSelector(req.Chain)
	if err != nil {
		return nil, &models.InvalidInputError{Field: "chain", Err: err}
	}
	wallet, err := address.Normalize(string(chains[0].Family()), req.Wallet)
	if err != nil {
		return nil, &models.InvalidInputError{Field: "wallet", Err: err}
	}
	for _, c := range chains {
		if err := a.fetcher.CheckConfigured(c); err != nil {
			return nil, err
		}
	}

	selector := models.CanonicalSelector(req.Chain)
	progress.Emit(models.ProgressEvent{Stage: models.StageStarted, Message: wallet})

	runs, err := a.runChains(ctx, wallet, chains, progress)
	if err != nil {
		a.metrics.RunCompleted(selector, "error", time.Since(start).Seconds())
		progress.Emit(models.ProgressEvent{Stage: models.StageFailed, Message: err.Error()})
		return nil, err
	}

	result := a.summarize(wallet, selector, runs)
	result.RequestID = req.RequestID
	a.metrics.RunCompleted(selector, "ok", time.Since(start).Seconds())
	a.logger.Info("wallet analyzed",
		applogger.String("wallet", wallet),
		applogger.String("chain", selector),
		applogger.String("provider", result.Summary.Provider),
		applogger.Int("trades", result.Summary.TotalTrades),
		applogger.Float64("pnl_usd", result.Summary.TotalPnLUSD),
		applogger.Duration("elapsed", time.Since(start)),
	)
	progress.Emit(models.ProgressEvent{Stage: models.StageDone, Summary: result.Summary})
	return result, nil
}

// runChains fans out over chains. With several chains a failed one becomes a
// warning; the run fails only when every chain failed.
func (a *Analyzer) runChains(ctx context.Context, wallet string, chains []models.Chain, progress models.ProgressFunc) ([]*chainRun, error) {
	if len(chains) == 1 {
		run, err := a.runChain(ctx, wallet, chains[0], progress)
		if err != nil {
			return nil, err
		}
		return []*chainRun{run}, nil
	}

	var (
		mu   sync.Mutex
		runs = make([]*chainRun, len(chains))
		errs = make([]error, len(chains))
	)
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range chains {
		g.Go(func() error {
			// Progress callbacks may come from several chains at once.
			safe := func(ev models.ProgressEvent) {
				mu.Lock()
				defer mu.Unlock()
				progress.Emit(ev)
			}
			run, err := a.runChain(gctx, wallet, c, safe)
			runs[i], errs[i] = run, err
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var ok []*chainRun
	var failed []models.Warning
	for i, run := range runs {
		if errs[i] != nil {
			a.logger.Warn("chain failed",
				applogger.String("chain", string(chains[i])),
				applogger.Error(errs[i]),
			)
			failed = append(failed, models.Warning{
				Kind:    models.WarningChainFailed,
				Chain:   chains[i],
				Message: errs[i].Error(),
			})
			continue
		}
		ok = append(ok, run)
	}
	if len(ok) == 0 {
		return nil, errors.Join(errs...)
	}
	ok[0].warnings = append(ok[0].warnings, failed...)
	return ok, nil
}

func (a *Analyzer) runChain(ctx context.Context, wallet string, chain models.Chain, progress models.ProgressFunc) (*chainRun, error) {
	rc := runcache.New()
	run := &chainRun{chain: chain, ledger: NewLedger(chain)}

	progress.Emit(models.ProgressEvent{Stage: models.StageFetching, Chain: chain})
	fetched, err := a.fetcher.Fetch(ctx, wallet, chain, progress)
	if err != nil {
		return nil, fmt.Errorf("fetch activity on %s: %w", chain, err)
	}
	run.provider = fetched.Provider
	run.warnings = append(run.warnings, fetched.Warnings...)
	if fetched.NoActivity || len(fetched.Transfers) == 0 {
		run.empty = true
		return run, nil
	}

	transfers := append([]models.NormalizedTransfer(nil), fetched.Transfers...)
	sort.SliceStable(transfers, func(i, j int) bool { return transfers[i].Timestamp.Before(transfers[j].Timestamp) })

	progress.Emit(models.ProgressEvent{Stage: models.StagePricing, Chain: chain, Records: len(transfers)})
	series, warn := a.prices.Build(ctx, rc, chain, transfers[0].Timestamp, transfers[len(transfers)-1].Timestamp)
	if warn != nil {
		run.warnings = append(run.warnings, *warn)
	}

	ids, hints := tradedTokens(chain, transfers)
	progress.Emit(models.ProgressEvent{Stage: models.StageMetadata, Chain: chain, Records: len(ids)})
	meta := a.metadata.ResolveBatch(ctx, rc, chain, ids, hints)

	drops := make(map[DropReason]int)
	for _, nt := range transfers {
		trades, reason := a.classifier.Classify(nt, series, meta)
		if len(trades) == 0 {
			drops[reason]++
			continue
		}
		for _, t := range trades {
			run.ledger.Apply(t)
		}
		run.trades = append(run.trades, trades...)
	}
	run.ledger.Annotate(meta)

	buys := 0
	for _, t := range run.trades {
		if t.Direction == models.DirectionBuy {
			buys++
		}
	}
	a.metrics.TradesClassified(chain, string(models.DirectionBuy), buys)
	a.metrics.TradesClassified(chain, string(models.DirectionSell), len(run.trades)-buys)
	for reason, n := range drops {
		a.metrics.TradesClassified(chain, "dropped_"+string(reason), n)
	}
	a.logger.Debug("transfers classified",
		applogger.String("chain", string(chain)),
		applogger.Int("transfers", len(transfers)),
		applogger.Int("trades", len(run.trades)),
		applogger.Any("dropped", drops),
	)
	progress.Emit(models.ProgressEvent{Stage: models.StageClassified, Chain: chain, Records: len(run.trades)})
	return run, nil
}

// tradedTokens lists the ids needing metadata with any provider hints.
func tradedTokens(chain models.Chain, transfers []models.NormalizedTransfer) ([]string, map[string]models.TokenMetadata) {
	cfg, _ := models.ConfigFor(chain)
	var ids []string
	hints := make(map[string]models.TokenMetadata)
	for _, nt := range transfers {
		for _, d := range nt.TokenBalanceChanges {
			if d.AmountSigned == 0 || cfg.IsWrappedNative(d.TokenID) || cfg.IsStable(d.TokenID, d.SymbolHint) {
				continue
			}
			h, seen := hints[d.TokenID]
			if !seen {
				ids = append(ids, d.TokenID)
			}
			if h.Symbol == "" {
				h.Symbol = d.SymbolHint
			}
			if h.ImageURL == "" {
				h.ImageURL = d.ImageHint
			}
			hints[d.TokenID] = h
		}
	}
	return ids, hints
}

func (a *Analyzer) summarize(wallet, selector string, runs []*chainRun) *models.AnalysisResult {
	ledgers := make([]*Ledger, 0, len(runs))
	var (
		trades    []models.ClassifiedTrade
		warnings  []models.Warning
		providers []string
		empty     = true
	)
	for _, r := range runs {
		ledgers = append(ledgers, r.ledger)
		trades = append(trades, r.trades...)
		warnings = append(warnings, r.warnings...)
		if r.provider != "" && !slices.Contains(providers, r.provider) {
			providers = append(providers, r.provider)
		}
		empty = empty && r.empty
	}

	s := Aggregate(ledgers...)
	s.Wallet = wallet
	s.Chain = selector
	s.Warnings = warnings
	s.NoActivity = empty
	s.GeneratedAt = a.now().UTC()
	s.Provider = strings.Join(providers, ",")

	if len(runs) == 1 {
		cfg, _ := models.ConfigFor(runs[0].chain)
		s.Currency = cfg.NativeSymbol
	} else {
		// Native volumes of different chains do not add up.
		s.Currency = "USD"
		s.TotalVolumeNative = 0
	}
	return &models.AnalysisResult{Summary: s, Trades: trades}
}

