package api

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"WalletPnL/internal/domain/models"
	"WalletPnL/internal/service/metrics"
	"WalletPnL/internal/usecase"
	xhttp "WalletPnL/pkg/http"
	xlogger "WalletPnL/pkg/logger"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
	wsEventBuf   = 64
)

// ProgressWSHandler streams the progress of one analysis over a websocket,
// ending with a done event carrying the summary or a failed event.
type ProgressWSHandler struct {
	logger   *xlogger.Logger
	service  *usecase.PnLService
	upgrader websocket.Upgrader
}

func NewProgressWSHandler(logger *xlogger.Logger, service *usecase.PnLService) *ProgressWSHandler {
	metrics.Register()
	return &ProgressWSHandler{
		logger:  logger,
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *ProgressWSHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/pnl/:wallet", h.Stream)
}

func (h *ProgressWSHandler) Stream(c echo.Context) error {
	req := &models.StreamRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	metrics.StreamConnections.Inc()
	defer metrics.StreamConnections.Dec()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The client only ever sends control frames; a read error means it left.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	events := make(chan models.ProgressEvent, wsEventBuf)
	go func() {
		defer close(events)
		var terminal atomic.Bool
		progress := func(ev models.ProgressEvent) {
			if ev.Stage == models.StageDone || ev.Stage == models.StageFailed {
				terminal.Store(true)
			}
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		}
		_, err := h.service.Analyze(ctx, models.AnalyzeRequest{Wallet: req.Wallet, Chain: req.Chain}, false, progress)
		if err != nil && !terminal.Load() {
			progress(models.ProgressEvent{Stage: models.StageFailed, Message: toAppError(err).Message})
		}
		if err != nil {
			h.logger.Warn("streamed analysis failed", xlogger.String("wallet", req.Wallet), xlogger.Error(err))
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "analysis finished"))
				return nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				cancel()
				for range events {
				}
				return nil
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				cancel()
				for range events {
				}
				return nil
			}
		}
	}
}
