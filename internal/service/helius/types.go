package helius

import "github.com/shopspring/decimal"

// EnhancedTransaction is one parsed transaction from the enhanced transactions API.
type EnhancedTransaction struct {
	Signature        string           `json:"signature"`
	Timestamp        int64            `json:"timestamp"`
	Type             string           `json:"type"`
	Source           string           `json:"source"`
	Fee              int64            `json:"fee"`
	FeePayer         string           `json:"feePayer"`
	NativeTransfers  []NativeTransfer `json:"nativeTransfers"`
	TokenTransfers   []TokenTransfer  `json:"tokenTransfers"`
	AccountData      []AccountData    `json:"accountData"`
	TransactionError *TxError         `json:"transactionError"`
	Events           Events           `json:"events"`
}

// NativeTransfer amounts are lamports.
type NativeTransfer struct {
	FromUserAccount string `json:"fromUserAccount"`
	ToUserAccount   string `json:"toUserAccount"`
	Amount          int64  `json:"amount"`
}

// TokenTransfer amounts are already scaled by the mint decimals.
type TokenTransfer struct {
	FromUserAccount string          `json:"fromUserAccount"`
	ToUserAccount   string          `json:"toUserAccount"`
	TokenAmount     decimal.Decimal `json:"tokenAmount"`
	Mint            string          `json:"mint"`
}

type AccountData struct {
	Account             string               `json:"account"`
	NativeBalanceChange int64                `json:"nativeBalanceChange"`
	TokenBalanceChanges []TokenBalanceChange `json:"tokenBalanceChanges"`
}

type TokenBalanceChange struct {
	UserAccount    string         `json:"userAccount"`
	TokenAccount   string         `json:"tokenAccount"`
	Mint           string         `json:"mint"`
	RawTokenAmount RawTokenAmount `json:"rawTokenAmount"`
}

// RawTokenAmount is a signed integer amount in base units.
type RawTokenAmount struct {
	TokenAmount string `json:"tokenAmount"`
	Decimals    int32  `json:"decimals"`
}

type TxError struct {
	Error string `json:"error"`
}

type Events struct {
	Swap *SwapEvent `json:"swap"`
}

// SwapEvent is only checked for presence; the balance changes carry the amounts.
type SwapEvent struct {
	NativeInput  *NativeAmount `json:"nativeInput"`
	NativeOutput *NativeAmount `json:"nativeOutput"`
}

type NativeAmount struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

// DAS getAssetBatch payloads.

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      string      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type assetBatchResponse struct {
	Result []*Asset  `json:"result"`
	Error  *rpcError `json:"error"`
}

type Asset struct {
	ID        string        `json:"id"`
	Interface string        `json:"interface"`
	Content   *AssetContent `json:"content"`
	TokenInfo *struct {
		Symbol string `json:"symbol"`
	} `json:"token_info"`
}

type AssetContent struct {
	Metadata struct {
		Symbol string `json:"symbol"`
		Name   string `json:"name"`
	} `json:"metadata"`
	Files []struct {
		URI    string `json:"uri"`
		CDNURI string `json:"cdn_uri"`
	} `json:"files"`
	Links struct {
		Image string `json:"image"`
	} `json:"links"`
}
