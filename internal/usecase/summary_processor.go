package usecase

import (
	"context"
	"errors"
	"fmt"

	"WalletPnL/internal/domain/models"
	drepo "WalletPnL/internal/domain/repository"
	"WalletPnL/pkg/metrics"
)

const (
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
)

// SummaryProcessor delivers a finished result to every configured backend.
// Either backend may be nil.
type SummaryProcessor struct {
	pub     drepo.SummaryPublisher
	store   drepo.SummaryStorage
	metrics drepo.Metrics
}

func NewSummaryProcessor(pub drepo.SummaryPublisher, store drepo.SummaryStorage, m drepo.Metrics) *SummaryProcessor {
	if m == nil {
		m = metrics.Nop{}
	}
	return &SummaryProcessor{pub: pub, store: store, metrics: m}
}

// Enabled reports whether any backend is configured.
func (p *SummaryProcessor) Enabled() bool {
	return p.pub != nil || p.store != nil
}

// Process publishes and archives one result. Both backends are attempted even
// if the first fails.
func (p *SummaryProcessor) Process(ctx context.Context, r *models.AnalysisResult) error {
	if r == nil || r.Summary == nil {
		return fmt.Errorf("result is nil")
	}

	var errs []error
	if p.pub != nil {
		err := p.pub.PublishSummary(ctx, r)
		p.record(BackendKafka, err)
		if err != nil {
			errs = append(errs, fmt.Errorf("publish summary: %w", err))
		}
	}
	if p.store != nil {
		err := p.store.StoreResult(ctx, r)
		p.record(BackendClickHouse, err)
		if err != nil {
			errs = append(errs, fmt.Errorf("store summary: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (p *SummaryProcessor) record(backend string, err error) {
	if err != nil {
		p.metrics.SinkDelivery(backend, "error")
		return
	}
	p.metrics.SinkDelivery(backend, "ok")
}

// Close closes underlying resources if available.
func (p *SummaryProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
