package models

import "time"

// TokenDelta is one token's signed balance change for the analyzed wallet.
type TokenDelta struct {
	TokenID      string  `json:"token_id"`
	AmountSigned float64 `json:"amount_signed"`
	// Provider-supplied display hints; empty when the provider has none.
	SymbolHint string `json:"symbol_hint,omitempty"`
	ImageHint  string `json:"image_hint,omitempty"`
}

// NormalizedTransfer is the provider-independent shape of one on-chain
// transaction as seen from the wallet. Decoders build it once; nothing
// downstream mutates it.
type NormalizedTransfer struct {
	WalletAddress         string       `json:"wallet_address"`
	Chain                 Chain        `json:"chain"`
	TxID                  string       `json:"tx_id"`
	Source                string       `json:"source"`
	Timestamp             time.Time    `json:"timestamp"`
	NativeAmountSigned    float64      `json:"native_amount_signed"`
	TokenBalanceChanges   []TokenDelta `json:"token_balance_changes"`
	HasKnownExchangeRoute bool         `json:"has_known_exchange_route"`

	FeeNative          float64 `json:"fee_native"`
	TokenTransferCount int     `json:"token_transfer_count"`
	// NativeUSD is a provider-quoted USD value for the native leg, nil when absent.
	NativeUSD *float64 `json:"native_usd,omitempty"`
}

// ActivityPage is one page of provider activity. An empty NextCursor ends pagination.
type ActivityPage struct {
	Transfers  []NormalizedTransfer
	NextCursor string
	// RawCount is the number of provider records on the page before decoding dropped any.
	RawCount int
}
