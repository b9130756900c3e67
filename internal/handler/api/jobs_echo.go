package api

import (
	"errors"

	"github.com/labstack/echo/v4"

	"WalletPnL/internal/domain/models"
	drepo "WalletPnL/internal/domain/repository"
	"WalletPnL/internal/service/metrics"
	"WalletPnL/internal/usecase"
	xhttp "WalletPnL/pkg/http"
	xlogger "WalletPnL/pkg/logger"
)

type JobsEchoHandler struct {
	logger  *xlogger.Logger
	jobs    *usecase.JobService
	stats   drepo.JobQueueStats
	limiter drepo.RateLimiter
	limit   LimitConfig
}

// NewJobsEchoHandler serves the async job API. stats is nil when jobs run in-process.
func NewJobsEchoHandler(logger *xlogger.Logger, jobs *usecase.JobService, stats drepo.JobQueueStats, limiter drepo.RateLimiter, limit LimitConfig) *JobsEchoHandler {
	metrics.Register()
	return &JobsEchoHandler{logger: logger, jobs: jobs, stats: stats, limiter: limiter, limit: limit}
}

func (h *JobsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1/jobs")
	g.POST("", h.Submit, RateLimit(h.limiter, "jobs", h.limit.Capacity, h.limit.RefillPerSec))
	g.GET("/queue", h.Queue)
	g.GET("/:id", h.Status)
}

// Submit accepts a wallet for background analysis and returns its job id.
func (h *JobsEchoHandler) Submit(c echo.Context) error {
	req := &models.SubmitJobRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	job, err := h.jobs.Submit(c.Request().Context(), req.Wallet, req.Chain)
	if err != nil {
		appErr := toAppError(err)
		metrics.APIErrors.WithLabelValues("jobs", appErr.Code).Inc()
		h.logger.Error("job submit failed", xlogger.String("wallet", req.Wallet), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appErr)
	}
	metrics.JobsSubmitted.Inc()

	return xhttp.AcceptedResponse(c, map[string]interface{}{
		"job_id": job.ID,
		"status": job.Status,
	})
}

func (h *JobsEchoHandler) Status(c echo.Context) error {
	req := &models.JobStatusRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	job, err := h.jobs.Get(c.Request().Context(), req.ID)
	if errors.Is(err, models.ErrJobNotFound) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("job %s not found or expired", req.ID))
	}
	if err != nil {
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, job)
}

// Queue reports the redis backlog and refreshes the depth gauge.
func (h *JobsEchoHandler) Queue(c echo.Context) error {
	if h.stats == nil {
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("queue", "job queue is disabled; jobs run in-process"))
	}
	pending, retry, dead, err := h.stats.Depth(c.Request().Context())
	if err != nil {
		h.logger.Error("queue depth failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("queue depth unavailable").WithError(err))
	}
	metrics.JobQueueDepth.WithLabelValues("pending").Set(float64(pending))
	metrics.JobQueueDepth.WithLabelValues("retry").Set(float64(retry))
	metrics.JobQueueDepth.WithLabelValues("dead").Set(float64(dead))

	return xhttp.SuccessResponse(c, map[string]int64{
		"pending": pending,
		"retry":   retry,
		"dead":    dead,
	})
}
