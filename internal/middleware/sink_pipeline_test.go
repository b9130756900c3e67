package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"WalletPnL/internal/domain/models"
	"WalletPnL/pkg/metrics"
)

type flakyProc struct {
	mu       sync.Mutex
	failures int
	calls    int
	ok       []string
}

func (f *flakyProc) Process(_ context.Context, r *models.AnalysisResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return errors.New("backend down")
	}
	f.ok = append(f.ok, r.Summary.Wallet)
	return nil
}

type outcomeCounter struct {
	metrics.Nop
	mu       sync.Mutex
	outcomes map[string]int
}

func (o *outcomeCounter) SinkDelivery(_, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes[outcome]++
}

func (o *outcomeCounter) get(outcome string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.outcomes[outcome]
}

func result(wallet string) *models.AnalysisResult {
	return &models.AnalysisResult{Summary: &models.PnLSummary{Wallet: wallet, Chain: "solana", GeneratedAt: time.Now()}}
}

func newTestPipeline(proc Proc, m *outcomeCounter, opts ...PipelineOption) (*SinkPipeline, *[]time.Duration) {
	p := NewSinkPipeline(proc, m, nil, opts...)
	var slept []time.Duration
	p.sleep = func(d time.Duration) { slept = append(slept, d) }
	return p, &slept
}

func TestSinkPipelineRetriesWithBackoff(t *testing.T) {
	proc := &flakyProc{failures: 2}
	m := &outcomeCounter{outcomes: make(map[string]int)}
	p, slept := newTestPipeline(proc, m, WithRetry(3, 10*time.Millisecond))

	p.Start(context.Background())
	if !p.Submit(result("w1")) {
		t.Fatalf("submit rejected")
	}
	if err := p.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}

	if proc.calls != 3 || len(proc.ok) != 1 {
		t.Fatalf("expected delivery on the third attempt, got calls=%d ok=%v", proc.calls, proc.ok)
	}
	if len(*slept) != 2 || (*slept)[0] != 10*time.Millisecond || (*slept)[1] != 20*time.Millisecond {
		t.Fatalf("unexpected backoff %v", *slept)
	}
	if m.get("retry") != 2 || m.get("dropped") != 0 {
		t.Fatalf("unexpected outcomes %v", m.outcomes)
	}
}

func TestSinkPipelineDropsAfterRetries(t *testing.T) {
	proc := &flakyProc{failures: 100}
	m := &outcomeCounter{outcomes: make(map[string]int)}
	p, _ := newTestPipeline(proc, m, WithRetry(1, time.Millisecond))

	p.Start(context.Background())
	p.Submit(result("w1"))
	if err := p.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if proc.calls != 2 || m.get("dropped") != 1 {
		t.Fatalf("expected two attempts then a drop, got calls=%d outcomes=%v", proc.calls, m.outcomes)
	}
}

func TestSinkPipelineSubmit(t *testing.T) {
	m := &outcomeCounter{outcomes: make(map[string]int)}
	p, _ := newTestPipeline(&flakyProc{}, m, WithBufferSize(1))

	invalid := []*models.AnalysisResult{
		nil,
		{},
		{Summary: &models.PnLSummary{GeneratedAt: time.Now()}},
		{Summary: &models.PnLSummary{Wallet: "w"}},
	}
	for i, r := range invalid {
		if p.Submit(r) {
			t.Fatalf("case %d: invalid result accepted", i)
		}
	}
	if m.get("invalid") != len(invalid) {
		t.Fatalf("unexpected outcomes %v", m.outcomes)
	}

	// not started: the buffer fills and further results are refused
	if !p.Submit(result("a")) || p.Submit(result("b")) {
		t.Fatalf("expected the second submit to overflow")
	}
	if p.Pending() != 1 || m.get("buffer_full") != 1 {
		t.Fatalf("pending=%d outcomes=%v", p.Pending(), m.outcomes)
	}
}

func TestSinkPipelineStopDrainsBuffer(t *testing.T) {
	proc := &flakyProc{}
	p, _ := newTestPipeline(proc, &outcomeCounter{outcomes: make(map[string]int)}, WithBufferSize(8))
	for _, w := range []string{"a", "b", "c"} {
		p.Submit(result(w))
	}

	p.Start(context.Background())
	if err := p.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if len(proc.ok) != 3 || p.Pending() != 0 {
		t.Fatalf("expected all buffered results delivered, got %v", proc.ok)
	}
	if err := p.Stop(context.Background()); err != nil {
		t.Fatalf("second stop must be a no-op: %v", err)
	}
}
