package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"WalletPnL/internal/domain/models"
	drepo "WalletPnL/internal/domain/repository"
	"WalletPnL/pkg/cache"
)

// JobStore keeps job state in the cache; jobs expire after ttl.
type JobStore struct {
	svc cache.Service
	ttl time.Duration
}

func NewJobStore(svc cache.Service, ttl time.Duration) *JobStore {
	return &JobStore{svc: svc, ttl: ttl}
}

func (s *JobStore) Save(ctx context.Context, job *models.Job) error {
	if err := s.svc.Set(ctx, cache.Key("job", job.ID), job, s.ttl); err != nil {
		return fmt.Errorf("save job %s: %w", job.ID, err)
	}
	return nil
}

func (s *JobStore) Get(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	if err := s.svc.Get(ctx, cache.Key("job", id), &job); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, models.ErrJobNotFound
		}
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return &job, nil
}

var _ drepo.JobStore = (*JobStore)(nil)
