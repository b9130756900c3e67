package models

// AnalyzeRequest is one wallet run. Chain is a selector: solana, evm or a concrete EVM chain.
type AnalyzeRequest struct {
	Wallet    string `json:"wallet"`
	Chain     string `json:"chain"`
	Refresh   bool   `json:"refresh,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Requests for the HTTP endpoints.

type PnLRequest struct {
	Wallet  string `param:"wallet" json:"wallet" validate:"required,wallet"`
	Chain   string `query:"chain" json:"chain" default:"solana" validate:"oneof=solana evm eth-mainnet bsc-mainnet base-mainnet"`
	Refresh bool   `query:"refresh" json:"refresh"`
	Trades  bool   `query:"trades" json:"trades"`
}

type SubmitJobRequest struct {
	Wallet string `json:"wallet" validate:"required,wallet"`
	Chain  string `json:"chain" default:"solana" validate:"oneof=solana evm eth-mainnet bsc-mainnet base-mainnet"`
}

type JobStatusRequest struct {
	ID string `param:"id" validate:"required,uuid4"`
}

type StreamRequest struct {
	Wallet string `param:"wallet" validate:"required,wallet"`
	Chain  string `query:"chain" default:"solana" validate:"oneof=solana evm eth-mainnet bsc-mainnet base-mainnet"`
}

// ToAnalyze converts the HTTP request into a run request.
func (r PnLRequest) ToAnalyze() AnalyzeRequest {
	return AnalyzeRequest{Wallet: r.Wallet, Chain: r.Chain, Refresh: r.Refresh}
}

type HistoryRequest struct {
	Wallet string `param:"wallet" validate:"required,wallet"`
	Chain  string `query:"chain" default:"solana" validate:"oneof=solana evm eth-mainnet bsc-mainnet base-mainnet"`
	Limit  int    `query:"limit" default:"20" validate:"min=1,max=200"`
}
