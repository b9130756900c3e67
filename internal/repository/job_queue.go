package repository

import (
	"context"

	"WalletPnL/internal/domain/models"
	drepo "WalletPnL/internal/domain/repository"
	"WalletPnL/pkg/queue"
)

// RedisJobQueue enqueues job ids; the payload carries no job state.
type RedisJobQueue struct {
	q queue.QueueService
}

func NewRedisJobQueue(q queue.QueueService) *RedisJobQueue {
	return &RedisJobQueue{q: q}
}

func (r *RedisJobQueue) EnqueueAnalysis(ctx context.Context, job *models.Job) error {
	return r.q.PublishMessage(ctx, models.AnalysisJobType, models.JobPayload{JobID: job.ID})
}

var (
	_ drepo.JobQueue      = (*RedisJobQueue)(nil)
	_ drepo.JobQueueStats = (*queue.RedisQueue)(nil)
)
