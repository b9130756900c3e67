package models

import "time"

type JobStatus string

const (
	JobQueued  JobStatus = "queued"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// Job tracks an asynchronous wallet analysis.
type Job struct {
	ID        string      `json:"job_id"`
	Wallet    string      `json:"wallet"`
	Chain     string      `json:"chain"`
	Status    JobStatus   `json:"status"`
	Summary   *PnLSummary `json:"summary,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Terminal reports whether the job will not change again.
func (j *Job) Terminal() bool {
	return j.Status == JobDone || j.Status == JobFailed
}

// AnalysisJobType routes queue messages to the analysis job.
const AnalysisJobType = "wallet_analysis"

// JobPayload is what travels on the job queue; state lives in the job store.
type JobPayload struct {
	JobID string `json:"job_id"`
}
