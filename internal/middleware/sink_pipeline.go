package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"WalletPnL/internal/domain/models"
	drepo "WalletPnL/internal/domain/repository"
	applogger "WalletPnL/pkg/logger"
	"WalletPnL/pkg/metrics"
)

// Proc is the downstream the pipeline delivers to.
type Proc interface {
	Process(ctx context.Context, r *models.AnalysisResult) error
}

// SinkPipeline decouples result delivery from the request path. Submit never
// blocks; a background loop delivers with bounded retries and exponential backoff.
type SinkPipeline struct {
	proc       Proc
	metrics    drepo.Metrics
	logger     *applogger.Logger
	bufSize    int
	maxRetries int
	backoff    time.Duration
	maxBackoff time.Duration
	timeout    time.Duration

	bufCh   chan *models.AnalysisResult
	stopCh  chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	started bool
	sleep   func(time.Duration)
}

type PipelineOption func(*SinkPipeline)

// WithBufferSize sets how many results may wait for delivery.
func WithBufferSize(n int) PipelineOption {
	return func(p *SinkPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithRetry sets delivery attempts after the first and the initial backoff.
func WithRetry(maxRetries int, backoff time.Duration) PipelineOption {
	return func(p *SinkPipeline) {
		if maxRetries >= 0 {
			p.maxRetries = maxRetries
		}
		if backoff > 0 {
			p.backoff = backoff
		}
	}
}

// WithDeliveryTimeout bounds one delivery attempt.
func WithDeliveryTimeout(d time.Duration) PipelineOption {
	return func(p *SinkPipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func NewSinkPipeline(proc Proc, m drepo.Metrics, lgr *applogger.Logger, opts ...PipelineOption) *SinkPipeline {
	if m == nil {
		m = metrics.Nop{}
	}
	if lgr == nil {
		lgr = applogger.Nop()
	}
	p := &SinkPipeline{
		proc:       proc,
		metrics:    m,
		logger:     lgr,
		bufSize:    256,
		maxRetries: 3,
		backoff:    50 * time.Millisecond,
		maxBackoff: 2 * time.Second,
		timeout:    10 * time.Second,
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
		sleep:      time.Sleep,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.AnalysisResult, p.bufSize)
	return p
}

// Start launches the delivery loop.
func (p *SinkPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		defer close(p.done)
		for {
			select {
			case <-p.stopCh:
				p.drain(ctx)
				return
			case r := <-p.bufCh:
				p.deliver(ctx, r)
			}
		}
	}()
}

// Stop ends the loop after flushing what is already buffered, or when ctx expires.
func (p *SinkPipeline) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return nil
	}
	p.started = false
	p.mu.Unlock()

	close(p.stopCh)
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop sink pipeline: %w", ctx.Err())
	}
}

// Submit validates and buffers a result. It reports false when the result is
// invalid or the buffer is full.
func (p *SinkPipeline) Submit(r *models.AnalysisResult) bool {
	if err := validateResult(r); err != nil {
		p.metrics.SinkDelivery("pipeline", "invalid")
		p.logger.Warn("sink result rejected", applogger.Error(err))
		return false
	}
	select {
	case p.bufCh <- r:
		return true
	default:
		p.metrics.SinkDelivery("pipeline", "buffer_full")
		return false
	}
}

// Pending returns the number of buffered results.
func (p *SinkPipeline) Pending() int {
	return len(p.bufCh)
}

func (p *SinkPipeline) drain(ctx context.Context) {
	for {
		select {
		case r := <-p.bufCh:
			p.deliver(ctx, r)
		default:
			return
		}
	}
}

func (p *SinkPipeline) deliver(ctx context.Context, r *models.AnalysisResult) {
	backoff := p.backoff
	for attempt := 0; ; attempt++ {
		actx, cancel := context.WithTimeout(ctx, p.timeout)
		err := p.proc.Process(actx, r)
		cancel()
		if err == nil {
			return
		}
		if attempt >= p.maxRetries || ctx.Err() != nil {
			p.metrics.SinkDelivery("pipeline", "dropped")
			p.logger.Error("sink delivery failed",
				applogger.String("wallet", r.Summary.Wallet),
				applogger.String("chain", r.Summary.Chain),
				applogger.Int("attempts", attempt+1),
				applogger.Error(err),
			)
			return
		}
		p.metrics.SinkDelivery("pipeline", "retry")
		p.sleep(backoff)
		backoff = min(backoff*2, p.maxBackoff)
	}
}

func validateResult(r *models.AnalysisResult) error {
	if r == nil || r.Summary == nil {
		return fmt.Errorf("summary nil")
	}
	if r.Summary.Wallet == "" {
		return fmt.Errorf("wallet empty")
	}
	if r.Summary.GeneratedAt.IsZero() {
		return fmt.Errorf("generated_at missing")
	}
	return nil
}
