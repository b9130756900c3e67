package models

import "time"

type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

// ClassifiedTrade is a single buy or sell of one token. Amounts are positive;
// direction carries the sign.
type ClassifiedTrade struct {
	Timestamp    time.Time `json:"timestamp"`
	TxID         string    `json:"tx_id"`
	Chain        Chain     `json:"chain"`
	TokenID      string    `json:"token_id"`
	TokenSymbol  string    `json:"token_symbol"`
	Direction    Direction `json:"direction"`
	TokenAmount  float64   `json:"token_amount"`
	NativeAmount float64   `json:"native_amount"`
	USDValue     float64   `json:"usd_value"`

	Approximate       bool `json:"approximate,omitempty"`
	PlaceholderCost   bool `json:"placeholder_cost,omitempty"`
	StableDenominated bool `json:"stable_denominated,omitempty"`
}
