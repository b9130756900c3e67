package models

import "time"

// TokenPosition is the open weighted-average position in one token.
// HeldAmount == 0 implies CostBasisUSD == 0.
type TokenPosition struct {
	TokenID      string  `json:"token_id"`
	HeldAmount   float64 `json:"held_amount"`
	CostBasisUSD float64 `json:"cost_basis_usd"`
}

// TokenStats accumulates over a whole run. SpentUSD is the cost basis removed
// by sales, so ReceivedUSD-SpentUSD is the realized PnL. BoughtUSD is gross buy spend.
type TokenStats struct {
	TokenID            string    `json:"token_id"`
	Chain              Chain     `json:"chain"`
	Symbol             string    `json:"symbol"`
	ImageURL           string    `json:"image_url,omitempty"`
	SpentUSD           float64   `json:"spent_usd"`
	ReceivedUSD        float64   `json:"received_usd"`
	BoughtUSD          float64   `json:"bought_usd"`
	TokensSold         float64   `json:"tokens_sold"`
	Buys               int       `json:"buys"`
	Sells              int       `json:"sells"`
	FirstBuyTimestamp  time.Time `json:"first_buy_timestamp,omitempty"`
	LastSellTimestamp  time.Time `json:"last_sell_timestamp,omitempty"`
	LastTradeTimestamp time.Time `json:"last_trade_timestamp"`
}

// RealizedPnL is ReceivedUSD minus the cost basis those sales removed.
func (s TokenStats) RealizedPnL() float64 {
	return s.ReceivedUSD - s.SpentUSD
}

// DayBucket aggregates trades on one UTC calendar day.
type DayBucket struct {
	Date   string  `json:"date"`
	Trades int     `json:"trades"`
	PnLUSD float64 `json:"pnl_usd"`
}
