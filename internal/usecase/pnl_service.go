package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"WalletPnL/internal/domain/models"
	drepo "WalletPnL/internal/domain/repository"
	dservice "WalletPnL/internal/domain/service"
	"WalletPnL/pkg/address"
	"WalletPnL/pkg/cache"
	applogger "WalletPnL/pkg/logger"
)

// PnLService serves summaries cache-aside and hands every fresh run to the sink.
// Cache and sink are optional.
type PnLService struct {
	analyzer   dservice.WalletAnalyzer
	cache      drepo.SummaryCache
	sink       drepo.SummarySink
	logger     *applogger.Logger
	runTimeout time.Duration
}

type PnLServiceOption func(*PnLService)

// WithRunTimeout bounds a single analysis.
func WithRunTimeout(d time.Duration) PnLServiceOption {
	return func(s *PnLService) {
		if d > 0 {
			s.runTimeout = d
		}
	}
}

func NewPnLService(
	analyzer dservice.WalletAnalyzer,
	summaries drepo.SummaryCache,
	sink drepo.SummarySink,
	lgr *applogger.Logger,
	opts ...PnLServiceOption,
) *PnLService {
	if lgr == nil {
		lgr = applogger.Nop()
	}
	s := &PnLService{
		analyzer:   analyzer,
		cache:      summaries,
		sink:       sink,
		logger:     lgr,
		runTimeout: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Outcome is a served analysis; Cached results carry no trades.
type Outcome struct {
	Result *models.AnalysisResult
	Cached bool
}

// Analyze returns the cached summary for (selector, wallet) when present.
// Refresh or withTrades forces a run, since only summaries are cached.
func (s *PnLService) Analyze(ctx context.Context, req models.AnalyzeRequest, withTrades bool, progress models.ProgressFunc) (*Outcome, error) {
	selector, wallet, err := canonicalRequest(req)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && !req.Refresh && !withTrades {
		summary, err := s.cache.Get(ctx, selector, wallet)
		switch {
		case err == nil && summary != nil:
			progress.Emit(models.ProgressEvent{Stage: models.StageDone, Summary: summary})
			return &Outcome{Result: &models.AnalysisResult{RequestID: req.RequestID, Summary: summary}, Cached: true}, nil
		case err != nil && !errors.Is(err, cache.ErrCacheMiss):
			s.logger.Warn("summary cache read failed",
				applogger.String("wallet", wallet),
				applogger.String("chain", selector),
				applogger.Error(err),
			)
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	req.Wallet, req.Chain = wallet, selector
	result, err := s.analyzer.Analyze(runCtx, req, progress)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, result.Summary); err != nil {
			s.logger.Warn("summary cache write failed",
				applogger.String("wallet", wallet),
				applogger.Error(err),
			)
		}
	}
	s.Submit(result)

	if !withTrades {
		result = &models.AnalysisResult{RequestID: result.RequestID, Summary: result.Summary}
	}
	return &Outcome{Result: result}, nil
}

// Submit hands a result to the sink without blocking.
func (s *PnLService) Submit(result *models.AnalysisResult) {
	if s.sink == nil || result == nil {
		return
	}
	if !s.sink.Submit(result) {
		s.logger.Warn("summary sink rejected result",
			applogger.String("wallet", result.Summary.Wallet),
		)
	}
}

// canonicalRequest validates the selector and wallet and returns their cache-key forms.
func canonicalRequest(req models.AnalyzeRequest) (string, string, error) {
	chains, err := models.ExpandSelector(req.Chain)
	if err != nil {
		return "", "", &models.InvalidInputError{Field: "chain", Err: err}
	}
	wallet, err := address.Normalize(string(chains[0].Family()), req.Wallet)
	if err != nil {
		return "", "", &models.InvalidInputError{Field: "wallet", Err: fmt.Errorf("normalize %q: %w", req.Wallet, err)}
	}
	return models.CanonicalSelector(req.Chain), wallet, nil
}

// CanonicalWallet normalizes wallet for the chain family the selector implies.
func CanonicalWallet(wallet, selector string) (string, error) {
	_, w, err := canonicalRequest(models.AnalyzeRequest{Wallet: wallet, Chain: selector})
	return w, err
}
