package models

import "time"

// TokenPnL is one ranked entry in TopWins/TopLosses.
type TokenPnL struct {
	TokenID            string    `json:"token_id"`
	Chain              Chain     `json:"chain"`
	Symbol             string    `json:"symbol"`
	ImageURL           string    `json:"image_url,omitempty"`
	PnLUSD             float64   `json:"pnl_usd"`
	SpentUSD           float64   `json:"spent_usd"`
	ReceivedUSD        float64   `json:"received_usd"`
	BoughtUSD          float64   `json:"bought_usd"`
	TokensSold         float64   `json:"tokens_sold"`
	LastTradeTimestamp time.Time `json:"last_trade_timestamp"`
}

// DayStat names a calendar day with its trade count and realized PnL.
type DayStat struct {
	Date   string  `json:"date"`
	Trades int     `json:"trades"`
	PnLUSD float64 `json:"pnl_usd"`
}

// PnLSummary is computed once at the end of a run and is read-only afterwards.
type PnLSummary struct {
	Wallet   string  `json:"wallet"`
	Chain    string  `json:"chain"`
	Chains   []Chain `json:"chains"`
	Currency string  `json:"currency"`
	Provider string  `json:"provider"`

	TotalTrades       int        `json:"total_trades"`
	TotalVolumeNative float64    `json:"total_volume_native"`
	TotalVolumeUSD    float64    `json:"total_volume_usd"`
	TotalPnLUSD       float64    `json:"total_pnl_usd"`
	TopWins           []TokenPnL `json:"top_wins"`
	TopLosses         []TokenPnL `json:"top_losses"`
	BusiestDay        *DayStat   `json:"busiest_day"`
	BestPnLDay        *DayStat   `json:"best_pnl_day"`

	TokensTraded   int     `json:"tokens_traded"`
	WinRate        float64 `json:"win_rate"`
	MedianHoldTime int64   `json:"median_hold_time_seconds"`

	NoActivity            bool      `json:"no_activity"`
	PlaceholderCostTrades int       `json:"placeholder_cost_trades"`
	ApproximateTrades     int       `json:"approximate_trades"`
	Warnings              []Warning `json:"warnings,omitempty"`
	GeneratedAt           time.Time `json:"generated_at"`
}

type WarningKind string

const (
	WarningPartialData   WarningKind = "partial_data"
	WarningPriceFallback WarningKind = "price_fallback"
	WarningProviderError WarningKind = "provider_unavailable"
	WarningChainFailed   WarningKind = "chain_failed"
)

// Warning is a non-fatal condition attached to a summary so consumers can see degraded data.
type Warning struct {
	Kind     WarningKind `json:"kind"`
	Chain    Chain       `json:"chain,omitempty"`
	Provider string      `json:"provider,omitempty"`
	Reason   string      `json:"reason,omitempty"`
	Pages    int         `json:"pages,omitempty"`
	Records  int         `json:"records,omitempty"`
	Message  string      `json:"message"`
}

// AnalysisResult is a summary plus the classified trades it was computed from.
type AnalysisResult struct {
	RequestID string            `json:"request_id,omitempty"`
	Summary   *PnLSummary       `json:"summary"`
	Trades    []ClassifiedTrade `json:"trades,omitempty"`
}

// SummaryRecord is one archived run, as listed by the history endpoint.
type SummaryRecord struct {
	Wallet         string    `json:"wallet"`
	Chain          string    `json:"chain"`
	Provider       string    `json:"provider"`
	TotalTrades    int       `json:"total_trades"`
	TotalPnLUSD    float64   `json:"total_pnl_usd"`
	TotalVolumeUSD float64   `json:"total_volume_usd"`
	WinRate        float64   `json:"win_rate"`
	Warnings       int       `json:"warnings"`
	GeneratedAt    time.Time `json:"generated_at"`
}
