package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"WalletPnL/internal/domain/models"
	drepo "WalletPnL/internal/domain/repository"
	"WalletPnL/internal/repository"
	"WalletPnL/internal/service/metrics"
	"WalletPnL/internal/service/ratelimit"
	"WalletPnL/internal/usecase"
	"WalletPnL/pkg/cache"
	xlogger "WalletPnL/pkg/logger"
)

const solWallet = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

type fakeAnalyzer struct {
	calls atomic.Int32
	err   error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, req models.AnalyzeRequest, progress models.ProgressFunc) (*models.AnalysisResult, error) {
	f.calls.Add(1)
	if f.err != nil {
		progress.Emit(models.ProgressEvent{Stage: models.StageFailed, Message: f.err.Error()})
		return nil, f.err
	}
	progress.Emit(models.ProgressEvent{Stage: models.StageStarted})
	progress.Emit(models.ProgressEvent{Stage: models.StageFetching, Provider: "helius", Page: 1, Records: 2})
	summary := &models.PnLSummary{
		Wallet:      req.Wallet,
		Chain:       req.Chain,
		Currency:    "SOL",
		TotalTrades: 2,
		TotalPnLUSD: 42,
		GeneratedAt: time.Now().UTC(),
	}
	progress.Emit(models.ProgressEvent{Stage: models.StageDone, Summary: summary})
	return &models.AnalysisResult{
		Summary: summary,
		Trades:  []models.ClassifiedTrade{{TokenID: "mint1"}, {TokenID: "mint1"}},
	}, nil
}

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func newService(t *testing.T, a *fakeAnalyzer) *usecase.PnLService {
	t.Helper()
	mem := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mem.Close() })
	return usecase.NewPnLService(a, repository.NewSummaryCache(mem, time.Minute), nil, xlogger.Nop())
}

func serve(e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestSummaryServesFromCacheOnSecondCall(t *testing.T) {
	a := &fakeAnalyzer{}
	e := echo.New()
	NewPnLEchoHandler(xlogger.Nop(), newService(t, a), nil, nil, LimitConfig{}).RegisterRoutes(e)

	rec, env := serve(e, http.MethodGet, "/api/v1/pnl/"+solWallet, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var summary models.PnLSummary
	if err := json.Unmarshal(env.Data, &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.TotalTrades != 2 || summary.Wallet != solWallet {
		t.Fatalf("unexpected summary %+v", summary)
	}

	rec, _ = serve(e, http.MethodGet, "/api/v1/pnl/"+solWallet, "")
	if rec.Header().Get("X-Cache") != "HIT" {
		t.Fatalf("expected cache hit on second call")
	}
	if a.calls.Load() != 1 {
		t.Fatalf("expected one analysis, got %d", a.calls.Load())
	}

	serve(e, http.MethodGet, "/api/v1/pnl/"+solWallet+"?refresh=true", "")
	if a.calls.Load() != 2 {
		t.Fatalf("refresh must bypass the cache")
	}
}

func TestSummaryWithTrades(t *testing.T) {
	e := echo.New()
	NewPnLEchoHandler(xlogger.Nop(), newService(t, &fakeAnalyzer{}), nil, nil, LimitConfig{}).RegisterRoutes(e)

	rec, env := serve(e, http.MethodGet, "/api/v1/pnl/"+solWallet+"?trades=true", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var result models.AnalysisResult
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(result.Trades) != 2 {
		t.Fatalf("expected trades in response, got %d", len(result.Trades))
	}
}

func TestSummaryErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{name: "configuration", err: &models.ConfigurationError{Field: "HELIUS_API_KEY", Chain: models.ChainSolana}, status: http.StatusServiceUnavailable},
		{name: "no data", err: errors.Join(models.ErrNoData, errors.New("helius: 500")), status: http.StatusBadGateway},
		{name: "timeout", err: context.DeadlineExceeded, status: http.StatusGatewayTimeout},
		{name: "other", err: errors.New("boom"), status: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			NewPnLEchoHandler(xlogger.Nop(), newService(t, &fakeAnalyzer{err: tc.err}), nil, nil, LimitConfig{}).RegisterRoutes(e)
			rec, _ := serve(e, http.MethodGet, "/api/v1/pnl/"+solWallet, "")
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestSummaryRejectsBadInput(t *testing.T) {
	a := &fakeAnalyzer{}
	e := echo.New()
	NewPnLEchoHandler(xlogger.Nop(), newService(t, a), nil, nil, LimitConfig{}).RegisterRoutes(e)

	for _, target := range []string{"/api/v1/pnl/not-a-wallet", "/api/v1/pnl/" + solWallet + "?chain=tron"} {
		rec, _ := serve(e, http.MethodGet, target, "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
	}
	if a.calls.Load() != 0 {
		t.Fatalf("invalid input must not reach the analyzer")
	}
}

func TestSummaryRateLimited(t *testing.T) {
	e := echo.New()
	h := NewPnLEchoHandler(xlogger.Nop(), newService(t, &fakeAnalyzer{}), nil, ratelimit.New(), LimitConfig{Capacity: 1, RefillPerSec: 0.001})
	h.RegisterRoutes(e)

	if rec, _ := serve(e, http.MethodGet, "/api/v1/pnl/"+solWallet, ""); rec.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}
	if rec, _ := serve(e, http.MethodGet, "/api/v1/pnl/"+solWallet, ""); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}

type fakeHistory struct {
	wallet, chain string
	limit         int
}

func (f *fakeHistory) History(_ context.Context, wallet, chain string, limit int) ([]models.SummaryRecord, error) {
	f.wallet, f.chain, f.limit = wallet, chain, limit
	return []models.SummaryRecord{{Wallet: wallet, Chain: chain, TotalTrades: 3}}, nil
}

func TestHistory(t *testing.T) {
	e := echo.New()
	NewPnLEchoHandler(xlogger.Nop(), newService(t, &fakeAnalyzer{}), nil, nil, LimitConfig{}).RegisterRoutes(e)
	if rec, _ := serve(e, http.MethodGet, "/api/v1/pnl/"+solWallet+"/history", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without archive, got %d", rec.Code)
	}

	hist := &fakeHistory{}
	e = echo.New()
	NewPnLEchoHandler(xlogger.Nop(), newService(t, &fakeAnalyzer{}), hist, nil, LimitConfig{}).RegisterRoutes(e)
	rec, env := serve(e, http.MethodGet, "/api/v1/pnl/0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed/history?chain=evm&limit=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if hist.wallet != "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed" || hist.chain != "evm" || hist.limit != 5 {
		t.Fatalf("unexpected query %+v", hist)
	}
	var records []models.SummaryRecord
	if err := json.Unmarshal(env.Data, &records); err != nil || len(records) != 1 {
		t.Fatalf("unexpected records %s (%v)", env.Data, err)
	}
}

func TestJobsLifecycle(t *testing.T) {
	mem := cache.NewMemoryCache()
	defer mem.Close()
	svc := usecase.NewPnLService(&fakeAnalyzer{}, nil, nil, xlogger.Nop())
	jobs := usecase.NewJobService(repository.NewJobStore(mem, time.Minute), nil, svc, xlogger.Nop())

	e := echo.New()
	NewJobsEchoHandler(xlogger.Nop(), jobs, nil, nil, LimitConfig{}).RegisterRoutes(e)

	rec, env := serve(e, http.MethodPost, "/api/v1/jobs", `{"wallet":"`+solWallet+`"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var accepted struct {
		JobID string `json:"job_id"`
	}
	if err := json.Unmarshal(env.Data, &accepted); err != nil || accepted.JobID == "" {
		t.Fatalf("missing job id: %s", env.Data)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		rec, env = serve(e, http.MethodGet, "/api/v1/jobs/"+accepted.JobID, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var job models.Job
		if err := json.Unmarshal(env.Data, &job); err != nil {
			t.Fatalf("decode job: %v", err)
		}
		if job.Status == models.JobDone {
			if job.Summary == nil || job.Summary.TotalTrades != 2 {
				t.Fatalf("unexpected job summary %+v", job.Summary)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job did not finish, last status %s", job.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}

	const unknown = "6f1c9f5e-3a49-4d7b-9a55-3a0c2b8f1d10"
	rec, env = serve(e, http.MethodGet, "/api/v1/jobs/"+unknown, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown job, got %d", rec.Code)
	}
	var notFound []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(env.Data, &notFound); err != nil || len(notFound) != 1 || !strings.Contains(notFound[0].Message, unknown) {
		t.Fatalf("404 must name the job id: %s", env.Data)
	}
	if rec, _ := serve(e, http.MethodGet, "/api/v1/jobs/not-a-uuid", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", rec.Code)
	}
}

type fakeQueueStats struct {
	err error
}

func (f fakeQueueStats) Depth(context.Context) (int64, int64, int64, error) {
	return 3, 1, 2, f.err
}

func TestJobQueueDepth(t *testing.T) {
	mem := cache.NewMemoryCache()
	defer mem.Close()
	jobs := usecase.NewJobService(repository.NewJobStore(mem, time.Minute), nil, usecase.NewPnLService(&fakeAnalyzer{}, nil, nil, xlogger.Nop()), xlogger.Nop())

	cases := []struct {
		name  string
		stats drepo.JobQueueStats
		code  int
	}{
		{name: "in-process jobs", code: http.StatusServiceUnavailable},
		{name: "redis queue", stats: fakeQueueStats{}, code: http.StatusOK},
		{name: "redis down", stats: fakeQueueStats{err: errors.New("conn refused")}, code: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			NewJobsEchoHandler(xlogger.Nop(), jobs, tc.stats, nil, LimitConfig{}).RegisterRoutes(e)
			rec, env := serve(e, http.MethodGet, "/api/v1/jobs/queue", "")
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d: %s", tc.code, rec.Code, rec.Body.String())
			}
			if tc.code != http.StatusOK {
				return
			}
			var depth map[string]int64
			if err := json.Unmarshal(env.Data, &depth); err != nil || depth["pending"] != 3 || depth["retry"] != 1 || depth["dead"] != 2 {
				t.Fatalf("unexpected depth %s", env.Data)
			}
			if got := testutil.ToFloat64(metrics.JobQueueDepth.WithLabelValues("dead")); got != 2 {
				t.Fatalf("expected dead gauge 2, got %v", got)
			}
		})
	}
}

func TestProgressStream(t *testing.T) {
	e := echo.New()
	NewProgressWSHandler(xlogger.Nop(), newService(t, &fakeAnalyzer{})).RegisterRoutes(e)
	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/pnl/" + solWallet
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var stages []models.Stage
	var last models.ProgressEvent
	for {
		var ev models.ProgressEvent
		if err := conn.ReadJSON(&ev); err != nil {
			break
		}
		stages = append(stages, ev.Stage)
		last = ev
	}
	if len(stages) < 2 || stages[0] != models.StageStarted {
		t.Fatalf("unexpected stages %v", stages)
	}
	if last.Stage != models.StageDone || last.Summary == nil || last.Summary.TotalTrades != 2 {
		t.Fatalf("expected done event with summary, got %+v", last)
	}
}

func TestProgressStreamFailure(t *testing.T) {
	e := echo.New()
	NewProgressWSHandler(xlogger.Nop(), newService(t, &fakeAnalyzer{err: &models.ConfigurationError{Field: "COVALENT_API_KEY", Chain: models.ChainEthereum}})).RegisterRoutes(e)
	srv := httptest.NewServer(e)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/pnl/"+solWallet, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	failed := 0
	for {
		var ev models.ProgressEvent
		if err := conn.ReadJSON(&ev); err != nil {
			break
		}
		if ev.Stage == models.StageFailed {
			failed++
		}
	}
	if failed != 1 {
		t.Fatalf("expected exactly one failed event, got %d", failed)
	}
}
