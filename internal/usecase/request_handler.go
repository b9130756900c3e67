package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"WalletPnL/internal/domain/models"
	applogger "WalletPnL/pkg/logger"
	pkgkafka "WalletPnL/pkg/kafka"
)

// analysisRequest is the wire schema of the requests topic.
type analysisRequest struct {
	Wallet    string `json:"wallet"`
	Chain     string `json:"chain"`
	RequestID string `json:"request_id"`
	Refresh   bool   `json:"refresh"`
}

// KafkaRequestHandler runs analyses requested over Kafka. Results reach the
// summaries topic through the sink, cached ones included.
type KafkaRequestHandler struct {
	topic   string
	service *PnLService
	logger  *applogger.Logger
}

func NewKafkaRequestHandler(topic string, service *PnLService, lgr *applogger.Logger) *KafkaRequestHandler {
	if lgr == nil {
		lgr = applogger.Nop()
	}
	return &KafkaRequestHandler{topic: topic, service: service, logger: lgr}
}

func (h *KafkaRequestHandler) Topic() string { return h.topic }

// Handle returns nil for requests that can never succeed so the consumer does
// not retry them; transient failures are returned for retry and DLQ.
func (h *KafkaRequestHandler) Handle(ctx context.Context, b []byte) error {
	var m analysisRequest
	if err := json.Unmarshal(b, &m); err != nil {
		h.logger.Warn("malformed analysis request", applogger.Error(err))
		return nil
	}
	if m.RequestID == "" {
		m.RequestID = pkgkafka.RequestIDFrom(ctx)
	}
	if m.RequestID == "" {
		m.RequestID = uuid.NewString()
	}

	out, err := h.service.Analyze(ctx, models.AnalyzeRequest{
		Wallet:    m.Wallet,
		Chain:     m.Chain,
		Refresh:   m.Refresh,
		RequestID: m.RequestID,
	}, false, nil)
	if err != nil {
		var invalid *models.InvalidInputError
		var cfgErr *models.ConfigurationError
		if errors.As(err, &invalid) || errors.As(err, &cfgErr) {
			h.logger.Warn("analysis request rejected",
				applogger.String("request_id", m.RequestID),
				applogger.Error(err),
			)
			return nil
		}
		return fmt.Errorf("analyze request %s: %w", m.RequestID, err)
	}

	if out.Cached {
		h.service.Submit(out.Result)
	}
	h.logger.Debug("analysis request served",
		applogger.String("request_id", m.RequestID),
		applogger.Bool("cached", out.Cached),
	)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaRequestHandler)(nil)
