package service

import (
	"context"

	"WalletPnL/internal/domain/models"
)

// WalletAnalyzer runs one wallet analysis end to end. Runs share no mutable state.
type WalletAnalyzer interface {
	Analyze(ctx context.Context, req models.AnalyzeRequest, progress models.ProgressFunc) (*models.AnalysisResult, error)
}
