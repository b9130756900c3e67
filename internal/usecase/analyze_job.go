package usecase

import (
	"context"
	"fmt"

	"WalletPnL/internal/domain/models"
	"WalletPnL/pkg/queue"
)

// AnalyzeJob is the queue worker side of JobService.
type AnalyzeJob struct {
	jobs *JobService
}

func NewAnalyzeJob(jobs *JobService) *AnalyzeJob {
	return &AnalyzeJob{jobs: jobs}
}

func (j *AnalyzeJob) Name() string { return "wallet_analysis_job" }

func (j *AnalyzeJob) Type() string { return models.AnalysisJobType }

func (j *AnalyzeJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[models.JobPayload](payload)
	if err != nil {
		return fmt.Errorf("parse job payload: %w", err)
	}
	if p.JobID == "" {
		return fmt.Errorf("job payload without id")
	}
	return j.jobs.Run(ctx, p.JobID)
}

var _ queue.Job = (*AnalyzeJob)(nil)
