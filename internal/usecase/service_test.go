package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"WalletPnL/internal/domain/models"
	"WalletPnL/internal/repository"
	"WalletPnL/pkg/cache"
	pkgkafka "WalletPnL/pkg/kafka"
	"WalletPnL/pkg/metrics"
)

type stubAnalyzer struct {
	calls atomic.Int32
	err   error

	mu   sync.Mutex
	reqs []models.AnalyzeRequest
}

func (s *stubAnalyzer) Analyze(_ context.Context, req models.AnalyzeRequest, progress models.ProgressFunc) (*models.AnalysisResult, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.reqs = append(s.reqs, req)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	summary := &models.PnLSummary{Wallet: req.Wallet, Chain: req.Chain, TotalTrades: 1, TotalPnLUSD: 7, GeneratedAt: t0}
	progress.Emit(models.ProgressEvent{Stage: models.StageDone, Summary: summary})
	return &models.AnalysisResult{
		RequestID: req.RequestID,
		Summary:   summary,
		Trades:    []models.ClassifiedTrade{{TokenID: "MEME", Direction: models.DirectionBuy}},
	}, nil
}

func (s *stubAnalyzer) lastRequest() models.AnalyzeRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reqs[len(s.reqs)-1]
}

type recordingSink struct {
	mu      sync.Mutex
	results []*models.AnalysisResult
}

func (r *recordingSink) Submit(res *models.AnalysisResult) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
	return true
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

func newTestService(a *stubAnalyzer, sink *recordingSink) *PnLService {
	return NewPnLService(a, repository.NewSummaryCache(cache.NewMemoryCache(), time.Minute), sink, nil)
}

func TestPnLServiceCacheAside(t *testing.T) {
	a := &stubAnalyzer{}
	sink := &recordingSink{}
	svc := newTestService(a, sink)
	ctx := context.Background()

	first, err := svc.Analyze(ctx, models.AnalyzeRequest{Wallet: solWallet, Chain: "Solana"}, false, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Cached || first.Result.Trades != nil {
		t.Fatalf("fresh summary-only run must not carry trades: %+v", first)
	}
	if got := a.lastRequest().Chain; got != "solana" {
		t.Fatalf("selector not canonicalized: %q", got)
	}

	var done bool
	second, err := svc.Analyze(ctx, models.AnalyzeRequest{Wallet: solWallet, Chain: "solana"}, false, func(ev models.ProgressEvent) {
		done = ev.Stage == models.StageDone && ev.Summary != nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.Cached || second.Result.Summary.TotalPnLUSD != 7 || !done {
		t.Fatalf("expected a cache hit with a done event, got %+v", second)
	}
	if a.calls.Load() != 1 {
		t.Fatalf("expected one analyzer run, got %d", a.calls.Load())
	}

	if _, err := svc.Analyze(ctx, models.AnalyzeRequest{Wallet: solWallet, Chain: "solana", Refresh: true}, false, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	withTrades, err := svc.Analyze(ctx, models.AnalyzeRequest{Wallet: solWallet, Chain: "solana"}, true, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if withTrades.Cached || len(withTrades.Result.Trades) != 1 {
		t.Fatalf("trades always need a fresh run, got %+v", withTrades)
	}
	if a.calls.Load() != 3 || sink.count() != 3 {
		t.Fatalf("expected 3 runs handed to the sink, got runs=%d sink=%d", a.calls.Load(), sink.count())
	}
}

func TestPnLServiceErrors(t *testing.T) {
	a := &stubAnalyzer{err: models.ErrNoData}
	sink := &recordingSink{}
	svc := newTestService(a, sink)

	if _, err := svc.Analyze(context.Background(), models.AnalyzeRequest{Wallet: solWallet, Chain: "solana"}, false, nil); !errors.Is(err, models.ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if sink.count() != 0 {
		t.Fatalf("failed runs must not reach the sink")
	}

	_, err := svc.Analyze(context.Background(), models.AnalyzeRequest{Wallet: "bad", Chain: "solana"}, false, nil)
	var inErr *models.InvalidInputError
	if !errors.As(err, &inErr) {
		t.Fatalf("expected InvalidInputError, got %v", err)
	}
	if a.calls.Load() != 1 {
		t.Fatalf("invalid wallet must not reach the analyzer")
	}
}

func TestJobServiceRun(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus models.JobStatus
	}{
		{name: "done", wantStatus: models.JobDone},
		{name: "failed", err: models.ErrNoData, wantStatus: models.JobFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mem := cache.NewMemoryCache()
			store := repository.NewJobStore(mem, time.Minute)
			q := &recordingQueue{}
			jobs := NewJobService(store, q, NewPnLService(&stubAnalyzer{err: tc.err}, nil, nil, nil), nil)
			ctx := context.Background()

			job, err := jobs.Submit(ctx, solWallet, "solana")
			if err != nil {
				t.Fatalf("submit: %v", err)
			}
			if job.Status != models.JobQueued || len(q.ids) != 1 || q.ids[0] != job.ID {
				t.Fatalf("job not queued: %+v %v", job, q.ids)
			}

			if err := jobs.Run(ctx, job.ID); err != nil {
				t.Fatalf("run: %v", err)
			}
			got, err := jobs.Get(ctx, job.ID)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.Status != tc.wantStatus {
				t.Fatalf("expected %s, got %s", tc.wantStatus, got.Status)
			}
			if tc.err != nil && got.Error == "" {
				t.Fatalf("failure reason missing")
			}
			if tc.err == nil && (got.Summary == nil || got.Summary.TotalPnLUSD != 7) {
				t.Fatalf("summary missing: %+v", got)
			}
		})
	}
}

func TestJobServiceEdges(t *testing.T) {
	store := repository.NewJobStore(cache.NewMemoryCache(), time.Minute)
	jobs := NewJobService(store, &recordingQueue{err: errors.New("redis down")}, NewPnLService(&stubAnalyzer{}, nil, nil, nil), nil)
	ctx := context.Background()

	if _, err := jobs.Submit(ctx, solWallet, "solana"); err == nil {
		t.Fatalf("enqueue failure must surface")
	}
	if _, err := jobs.Submit(ctx, "bad", "solana"); err == nil {
		t.Fatalf("invalid wallet must be rejected at submit")
	}
	if err := jobs.Run(ctx, "expired"); err != nil {
		t.Fatalf("an expired job is not retryable: %v", err)
	}
	if _, err := jobs.Get(ctx, "missing"); !errors.Is(err, models.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestAnalyzeJobHandle(t *testing.T) {
	store := repository.NewJobStore(cache.NewMemoryCache(), time.Minute)
	jobs := NewJobService(store, &recordingQueue{}, NewPnLService(&stubAnalyzer{}, nil, nil, nil), nil)
	ctx := context.Background()
	job, err := jobs.Submit(ctx, solWallet, "solana")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	h := NewAnalyzeJob(jobs)
	if err := h.Handle(ctx, map[string]interface{}{"job_id": job.ID}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if got, _ := jobs.Get(ctx, job.ID); got.Status != models.JobDone {
		t.Fatalf("expected done, got %s", got.Status)
	}
	if err := h.Handle(ctx, map[string]interface{}{}); err == nil {
		t.Fatalf("payload without id must fail")
	}
}

type recordingQueue struct {
	err error
	ids []string
}

func (q *recordingQueue) EnqueueAnalysis(_ context.Context, job *models.Job) error {
	if q.err != nil {
		return q.err
	}
	q.ids = append(q.ids, job.ID)
	return nil
}

func TestKafkaRequestHandler(t *testing.T) {
	withHeader, _, _, _ := pkgkafka.RequestIDHook{}.BeforeHandle(context.Background(), "requests",
		kafka.Message{Headers: []kafka.Header{{Key: pkgkafka.HeaderRequestID, Value: []byte("hdr-1")}}}, nil)

	cases := []struct {
		name    string
		ctx     context.Context
		body    string
		err     error
		wantErr bool
		wantID  string
		runs    int32
	}{
		{name: "malformed json is dropped", ctx: context.Background(), body: "{", runs: 0},
		{name: "invalid wallet is dropped", ctx: context.Background(), body: `{"wallet":"nope","chain":"solana"}`, runs: 0},
		{name: "missing credential is dropped", ctx: context.Background(), body: `{"wallet":"` + solWallet + `"}`, err: &models.ConfigurationError{Field: "HELIUS_API_KEY"}, runs: 1},
		{name: "transient failure is retried", ctx: context.Background(), body: `{"wallet":"` + solWallet + `"}`, err: models.ErrNoData, wantErr: true, runs: 1},
		{name: "body request id wins", ctx: withHeader, body: `{"wallet":"` + solWallet + `","request_id":"body-1"}`, wantID: "body-1", runs: 1},
		{name: "header request id", ctx: withHeader, body: `{"wallet":"` + solWallet + `"}`, wantID: "hdr-1", runs: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := &stubAnalyzer{err: tc.err}
			sink := &recordingSink{}
			h := NewKafkaRequestHandler("requests", NewPnLService(a, nil, sink, nil), nil)

			err := h.Handle(tc.ctx, []byte(tc.body))
			if (err != nil) != tc.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if a.calls.Load() != tc.runs {
				t.Fatalf("expected %d runs, got %d", tc.runs, a.calls.Load())
			}
			if tc.wantID != "" {
				if got := a.lastRequest().RequestID; got != tc.wantID {
					t.Fatalf("expected request id %s, got %s", tc.wantID, got)
				}
				if sink.count() != 1 {
					t.Fatalf("result must reach the sink")
				}
			}
		})
	}
}

func TestKafkaRequestHandlerRepublishesCachedSummary(t *testing.T) {
	a := &stubAnalyzer{}
	sink := &recordingSink{}
	h := NewKafkaRequestHandler("requests", newTestService(a, sink), nil)
	body := []byte(`{"wallet":"` + solWallet + `","chain":"solana"}`)

	for i := 0; i < 2; i++ {
		if err := h.Handle(context.Background(), body); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}
	if a.calls.Load() != 1 || sink.count() != 2 {
		t.Fatalf("expected one run and two deliveries, got runs=%d sink=%d", a.calls.Load(), sink.count())
	}
}

type fakeBackend struct {
	err    error
	calls  int
	closed bool
}

func (f *fakeBackend) PublishSummary(context.Context, *models.AnalysisResult) error {
	f.calls++
	return f.err
}

func (f *fakeBackend) Init(context.Context) error   { return nil }
func (f *fakeBackend) Health(context.Context) error { return nil }
func (f *fakeBackend) Close() error                 { f.closed = true; return nil }

func (f *fakeBackend) StoreResult(context.Context, *models.AnalysisResult) error {
	f.calls++
	return f.err
}

type deliveryCounter struct {
	metrics.Nop
	outcomes map[string]int
}

func (d *deliveryCounter) SinkDelivery(backend, outcome string) {
	d.outcomes[backend+"/"+outcome]++
}

func TestSummaryProcessor(t *testing.T) {
	pubErr := errors.New("broker down")
	pub := &fakeBackend{err: pubErr}
	store := &fakeBackend{}
	m := &deliveryCounter{outcomes: make(map[string]int)}
	p := NewSummaryProcessor(pub, store, m)

	if !p.Enabled() || NewSummaryProcessor(nil, nil, nil).Enabled() {
		t.Fatalf("Enabled must follow the configured backends")
	}

	err := p.Process(context.Background(), &models.AnalysisResult{Summary: &models.PnLSummary{Wallet: solWallet}})
	if !errors.Is(err, pubErr) {
		t.Fatalf("expected the publish error, got %v", err)
	}
	if store.calls != 1 {
		t.Fatalf("storage must be attempted after a publish failure")
	}
	if m.outcomes["kafka/error"] != 1 || m.outcomes["clickhouse/ok"] != 1 {
		t.Fatalf("unexpected outcomes %v", m.outcomes)
	}
	if err := p.Process(context.Background(), nil); err == nil {
		t.Fatalf("nil result must be rejected")
	}

	p.Close()
	if !pub.closed || !store.closed {
		t.Fatalf("Close must close both backends")
	}
}
