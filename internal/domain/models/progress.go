package models

type Stage string

const (
	StageStarted    Stage = "started"
	StageFetching   Stage = "fetching"
	StageFallback   Stage = "fallback"
	StagePricing    Stage = "pricing"
	StageMetadata   Stage = "metadata"
	StageClassified Stage = "classified"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)

// ProgressEvent is streamed to websocket clients while a run executes.
type ProgressEvent struct {
	Stage    Stage       `json:"stage"`
	Chain    Chain       `json:"chain,omitempty"`
	Provider string      `json:"provider,omitempty"`
	Page     int         `json:"page,omitempty"`
	Records  int         `json:"records,omitempty"`
	Message  string      `json:"message,omitempty"`
	Summary  *PnLSummary `json:"summary,omitempty"`
}

// ProgressFunc receives progress events. It must not block.
type ProgressFunc func(ProgressEvent)

// Emit is a nil-safe call helper.
func (f ProgressFunc) Emit(ev ProgressEvent) {
	if f != nil {
		f(ev)
	}
}
