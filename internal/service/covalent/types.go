package covalent

type transactionsResponse struct {
	Data         *transactionsData `json:"data"`
	Error        bool              `json:"error"`
	ErrorMessage string            `json:"error_message"`
	ErrorCode    int               `json:"error_code"`
}

type transactionsData struct {
	Address   string        `json:"address"`
	ChainName string        `json:"chain_name"`
	Items     []Transaction `json:"items"`
	Links     *struct {
		Prev string `json:"prev"`
		Next string `json:"next"`
	} `json:"links"`
	Pagination *struct {
		HasMore    bool `json:"has_more"`
		PageNumber int  `json:"page_number"`
	} `json:"pagination"`
}

// Transaction is one transactions_v3 item. Native amounts are in base units
// (wei or lamports) as decimal strings.
type Transaction struct {
	TxHash        string     `json:"tx_hash"`
	BlockSignedAt string     `json:"block_signed_at"`
	Successful    *bool      `json:"successful"`
	FromAddress   string     `json:"from_address"`
	ToAddress     string     `json:"to_address"`
	Value         string     `json:"value"`
	ValueQuote    float64    `json:"value_quote"`
	FeesPaid      string     `json:"fees_paid"`
	GasSpent      int64      `json:"gas_spent"`
	GasPrice      int64      `json:"gas_price"`
	GasQuote      float64    `json:"gas_quote"`
	LogEvents     []LogEvent `json:"log_events"`
}

type LogEvent struct {
	SenderAddress  string   `json:"sender_address"`
	SenderDecimals *int32   `json:"sender_contract_decimals"`
	SenderTicker   string   `json:"sender_contract_ticker_symbol"`
	SenderLogoURL  string   `json:"sender_logo_url"`
	Decoded        *Decoded `json:"decoded"`
}

type Decoded struct {
	Name   string  `json:"name"`
	Params []Param `json:"params"`
}

type Param struct {
	Name  string      `json:"name"`
	Type  string      `json:"type"`
	Value interface{} `json:"value"`
}

// param returns the named parameter rendered as a string.
func (d *Decoded) param(name string) (string, bool) {
	for _, p := range d.Params {
		if p.Name != name {
			continue
		}
		switch v := p.Value.(type) {
		case string:
			return v, true
		case float64:
			return formatFloat(v), true
		}
		return "", false
	}
	return "", false
}
