package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"WalletPnL/internal/domain/models"
	drepo "WalletPnL/internal/domain/repository"
	"WalletPnL/internal/service/metrics"
	xhttp "WalletPnL/pkg/http"
)

// toAppError maps the domain error taxonomy onto the HTTP envelope.
func toAppError(err error) *xhttp.AppError {
	var (
		invalid *models.InvalidInputError
		cfgErr  *models.ConfigurationError
	)
	switch {
	case errors.As(err, &invalid):
		return xhttp.BadRequestError(invalid.Field, invalid.Error()).WithError(err)
	case errors.As(err, &cfgErr):
		return xhttp.ServiceUnavailableError(cfgErr.Field, cfgErr.Error()).
			WithParam("chain", string(cfgErr.Chain)).
			WithError(err)
	case errors.Is(err, models.ErrJobNotFound):
		return xhttp.NotFoundError("job not found")
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.NewAppError("ERR_TIMEOUT", "", "analysis timed out", http.StatusGatewayTimeout).WithError(err)
	case errors.Is(err, models.ErrNoData):
		return xhttp.BadGatewayError("no data provider returned activity for this wallet").WithError(err)
	default:
		return xhttp.InternalError("analysis failed").WithError(err)
	}
}

// RateLimit rejects a client (by real IP) once its token bucket for endpoint is empty.
func RateLimit(limiter drepo.RateLimiter, endpoint string, capacity int, refillPerSec float64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if limiter != nil && !limiter.Allow(c.RealIP()+":"+endpoint, capacity, refillPerSec) {
				metrics.RateLimited.WithLabelValues(endpoint).Inc()
				return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many analysis requests, slow down"))
			}
			return next(c)
		}
	}
}
