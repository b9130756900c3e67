package cielo

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// FeedItem is one feed entry. Amounts arrive as strings or numbers.
type FeedItem struct {
	TxHash    string `json:"tx_hash"`
	TxType    string `json:"tx_type"`
	Timestamp int64  `json:"timestamp"`
	IsSell    bool   `json:"is_sell"`

	Token0Address   string `json:"token0_address"`
	Token0Symbol    string `json:"token0_symbol"`
	Token0Amount    amount `json:"token0_amount"`
	Token0AmountUSD amount `json:"token0_amount_usd"`
	Token0Icon      string `json:"token0_icon_link"`

	Token1Address   string `json:"token1_address"`
	Token1Symbol    string `json:"token1_symbol"`
	Token1Amount    amount `json:"token1_amount"`
	Token1AmountUSD amount `json:"token1_amount_usd"`
	Token1Icon      string `json:"token1_icon_link"`
}

// amount tolerates numbers, numeric strings, empty strings and null.
type amount struct {
	decimal.Decimal
}

func (a *amount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		a.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	a.Decimal = d
	return nil
}

// cursor accepts a string or numeric pagination token.
type cursor string

func (c *cursor) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = cursor(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = cursor(n.String())
	return nil
}

type feedResponse struct {
	Status string   `json:"status"`
	Data   feedData `json:"data"`
	Next   cursor   `json:"next"`
	Cursor cursor   `json:"cursor"`
}

// feedData is either an object with items or a bare item array.
type feedData struct {
	Items  []FeedItem `json:"items"`
	Paging *struct {
		NextCursor cursor `json:"next_cursor"`
	} `json:"paging"`
	Next          cursor `json:"next"`
	Cursor        cursor `json:"cursor"`
	StartingPoint cursor `json:"starting_point"`
}

func (d *feedData) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		return json.Unmarshal(b, &d.Items)
	}
	type plain feedData
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*d = feedData(p)
	return nil
}

// nextCursor walks the places the feed has been seen to put its cursor.
func (r *feedResponse) nextCursor() string {
	d := r.Data
	if d.Paging != nil && d.Paging.NextCursor != "" {
		return string(d.Paging.NextCursor)
	}
	for _, c := range []cursor{d.Next, d.Cursor, d.StartingPoint, r.Next, r.Cursor} {
		if c != "" {
			return string(c)
		}
	}
	return ""
}
