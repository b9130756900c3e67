package api

import (
	"github.com/labstack/echo/v4"

	"WalletPnL/internal/domain/models"
	drepo "WalletPnL/internal/domain/repository"
	"WalletPnL/internal/service/metrics"
	"WalletPnL/internal/usecase"
	xhttp "WalletPnL/pkg/http"
	xlogger "WalletPnL/pkg/logger"
)

// LimitConfig is the per-client token bucket for analysis endpoints.
type LimitConfig struct {
	Capacity     int
	RefillPerSec float64
}

// PnLEchoHandler serves synchronous analyses and archived run history.
type PnLEchoHandler struct {
	logger  *xlogger.Logger
	service *usecase.PnLService
	history drepo.SummaryHistory
	limiter drepo.RateLimiter
	limit   LimitConfig
}

// NewPnLEchoHandler builds the handler; history may be nil when no archive is configured.
func NewPnLEchoHandler(
	logger *xlogger.Logger,
	service *usecase.PnLService,
	history drepo.SummaryHistory,
	limiter drepo.RateLimiter,
	limit LimitConfig,
) *PnLEchoHandler {
	metrics.Register()
	return &PnLEchoHandler{logger: logger, service: service, history: history, limiter: limiter, limit: limit}
}

func (h *PnLEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.GET("/pnl/:wallet", h.Summary, RateLimit(h.limiter, "pnl", h.limit.Capacity, h.limit.RefillPerSec))
	g.GET("/pnl/:wallet/history", h.History)
}

// Summary runs (or serves from cache) one wallet analysis.
func (h *PnLEchoHandler) Summary(c echo.Context) error {
	req := &models.PnLRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	out, err := h.service.Analyze(c.Request().Context(), req.ToAnalyze(), req.Trades, nil)
	if err != nil {
		appErr := toAppError(err)
		metrics.APIErrors.WithLabelValues("pnl", appErr.Code).Inc()
		h.logger.Warn("pnl analysis failed",
			xlogger.String("wallet", req.Wallet),
			xlogger.String("chain", req.Chain),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, appErr)
	}

	switch {
	case out.Cached:
		metrics.SummaryCacheLookups.WithLabelValues("hit").Inc()
	case req.Refresh || req.Trades:
		metrics.SummaryCacheLookups.WithLabelValues("bypass").Inc()
	default:
		metrics.SummaryCacheLookups.WithLabelValues("miss").Inc()
	}
	if out.Cached {
		c.Response().Header().Set("X-Cache", "HIT")
	} else {
		c.Response().Header().Set("X-Cache", "MISS")
	}

	if req.Trades {
		return xhttp.SuccessResponse(c, out.Result)
	}
	return xhttp.SuccessResponse(c, out.Result.Summary)
}

// History lists archived summaries, newest first.
func (h *PnLEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.history == nil {
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("clickhouse", "summary archive is not enabled"))
	}

	wallet, err := usecase.CanonicalWallet(req.Wallet, req.Chain)
	if err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	records, err := h.history.History(c.Request().Context(), wallet, models.CanonicalSelector(req.Chain), req.Limit)
	if err != nil {
		h.logger.Error("summary history query failed", xlogger.String("wallet", wallet), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("history unavailable").WithError(err))
	}
	if records == nil {
		records = []models.SummaryRecord{}
	}
	return xhttp.SuccessResponse(c, records)
}
