package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"WalletPnL/internal/domain/models"
	drepo "WalletPnL/internal/domain/repository"
	applogger "WalletPnL/pkg/logger"
)

// JobService runs analyses asynchronously. Without a queue, jobs run in a
// local goroutine.
type JobService struct {
	store   drepo.JobStore
	queue   drepo.JobQueue
	service *PnLService
	logger  *applogger.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewJobService(store drepo.JobStore, queue drepo.JobQueue, service *PnLService, lgr *applogger.Logger) *JobService {
	if lgr == nil {
		lgr = applogger.Nop()
	}
	return &JobService{
		store:   store,
		queue:   queue,
		service: service,
		logger:  lgr,
		timeout: 5 * time.Minute,
		now:     time.Now,
	}
}

// Submit validates the request, records a queued job and enqueues it.
func (s *JobService) Submit(ctx context.Context, wallet, chain string) (*models.Job, error) {
	selector, normalized, err := canonicalRequest(models.AnalyzeRequest{Wallet: wallet, Chain: chain})
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	job := &models.Job{
		ID:        uuid.NewString(),
		Wallet:    normalized,
		Chain:     selector,
		Status:    models.JobQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}

	if s.queue == nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()
			if err := s.Run(ctx, job.ID); err != nil {
				s.logger.Error("local job failed", applogger.String("job_id", job.ID), applogger.Error(err))
			}
		}()
		return job, nil
	}

	if err := s.queue.EnqueueAnalysis(ctx, job); err != nil {
		s.finish(ctx, job, nil, err)
		return nil, fmt.Errorf("enqueue job: %w", err)
	}
	return job, nil
}

// Get returns the job or models.ErrJobNotFound.
func (s *JobService) Get(ctx context.Context, id string) (*models.Job, error) {
	return s.store.Get(ctx, id)
}

// Run executes a queued job. Analysis failures are recorded on the job, not
// returned; only store failures are returned so the queue can retry them.
func (s *JobService) Run(ctx context.Context, id string) error {
	job, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrJobNotFound) {
			s.logger.Warn("job expired before it ran", applogger.String("job_id", id))
			return nil
		}
		return fmt.Errorf("load job: %w", err)
	}
	if job.Terminal() {
		return nil
	}

	job.Status = models.JobRunning
	job.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, job); err != nil {
		return fmt.Errorf("save job: %w", err)
	}

	out, runErr := s.service.Analyze(ctx, models.AnalyzeRequest{
		Wallet:    job.Wallet,
		Chain:     job.Chain,
		RequestID: job.ID,
	}, false, nil)
	var summary *models.PnLSummary
	if runErr == nil {
		summary = out.Result.Summary
	}
	return s.finish(ctx, job, summary, runErr)
}

func (s *JobService) finish(ctx context.Context, job *models.Job, summary *models.PnLSummary, runErr error) error {
	job.UpdatedAt = s.now().UTC()
	if runErr != nil {
		job.Status = models.JobFailed
		job.Error = runErr.Error()
		s.logger.Warn("job failed",
			applogger.String("job_id", job.ID),
			applogger.String("wallet", job.Wallet),
			applogger.Error(runErr),
		)
	} else {
		job.Status = models.JobDone
		job.Summary = summary
	}
	if err := s.store.Save(ctx, job); err != nil {
		return fmt.Errorf("save job: %w", err)
	}
	return nil
}
