package usecase

import (
	"context"
	"fmt"
	"time"

	"WalletPnL/internal/domain/models"
	drepo "WalletPnL/internal/domain/repository"
	"WalletPnL/internal/service/runcache"
	applogger "WalletPnL/pkg/logger"
)

// PriceResolver builds the native/USD series a run prices its trades with.
type PriceResolver struct {
	source drepo.PriceHistorySource
	logger *applogger.Logger
}

func NewPriceResolver(source drepo.PriceHistorySource, lgr *applogger.Logger) *PriceResolver {
	if lgr == nil {
		lgr = applogger.Nop()
	}
	return &PriceResolver{source: source, logger: lgr}
}

// Build returns an ascending series covering [minTs, maxTs], memoized per run.
// An empty or failed lookup yields the chain's fallback price and a warning.
func (r *PriceResolver) Build(ctx context.Context, rc *runcache.RunCache, chain models.Chain, minTs, maxTs time.Time) (models.PriceSeries, *models.Warning) {
	cfg, _ := models.ConfigFor(chain)
	if s, ok := rc.PriceSeries(chain); ok {
		return s, nil
	}

	series := models.PriceSeries{Fallback: cfg.FallbackPriceUSD}
	var reason error
	if r.source == nil {
		reason = fmt.Errorf("no price source configured")
	} else {
		pts, err := r.source.History(ctx, chain, minTs, maxTs)
		switch {
		case err != nil:
			reason = err
		case len(pts) == 0:
			reason = fmt.Errorf("%s returned no prices", r.source.Name())
		default:
			series.Points = pts
		}
	}
	rc.PutPriceSeries(chain, series)

	if reason == nil {
		return series, nil
	}
	r.logger.Warn("using fallback native price",
		applogger.String("chain", string(chain)),
		applogger.Float64("price_usd", cfg.FallbackPriceUSD),
		applogger.Error(reason),
	)
	return series, &models.Warning{
		Kind:    models.WarningPriceFallback,
		Chain:   chain,
		Message: fmt.Sprintf("price history unavailable, using %s=%.2f USD: %v", cfg.NativeSymbol, cfg.FallbackPriceUSD, reason),
	}
}
