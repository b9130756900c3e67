// Package upstream holds the small helpers every provider adapter shares.
package upstream

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"WalletPnL/internal/domain/models"
	xhttp "WalletPnL/pkg/http"
)

// Wrap annotates an adapter error with op. A 429 additionally matches models.ErrRateLimited.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if xhttp.StatusCode(err) == http.StatusTooManyRequests {
		return fmt.Errorf("%s: %w: %w", op, models.ErrRateLimited, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// ScaleRaw turns an integer amount string in base units into a float in whole units.
func ScaleRaw(raw string, decimals int32) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	return d.Shift(-decimals).InexactFloat64(), nil
}

// DeltaSet accumulates signed per-token deltas in first-seen order.
// Amounts are summed exactly and converted once.
type DeltaSet struct {
	order []string
	sums  map[string]decimal.Decimal
	hints map[string]models.TokenDelta
}

func NewDeltaSet() *DeltaSet {
	return &DeltaSet{sums: make(map[string]decimal.Decimal), hints: make(map[string]models.TokenDelta)}
}

// Add sums amount into id. symbol and image are kept from the first call that carries them.
func (s *DeltaSet) Add(id string, amount decimal.Decimal, symbol, image string) {
	if id == "" {
		return
	}
	cur, ok := s.sums[id]
	if !ok {
		s.order = append(s.order, id)
	}
	s.sums[id] = cur.Add(amount)
	h := s.hints[id]
	if h.SymbolHint == "" {
		h.SymbolHint = symbol
	}
	if h.ImageHint == "" {
		h.ImageHint = image
	}
	s.hints[id] = h
}

func (s *DeltaSet) Len() int {
	return len(s.order)
}

// Deltas returns the nonzero totals.
func (s *DeltaSet) Deltas() []models.TokenDelta {
	out := make([]models.TokenDelta, 0, len(s.order))
	for _, id := range s.order {
		sum := s.sums[id]
		if sum.IsZero() {
			continue
		}
		h := s.hints[id]
		out = append(out, models.TokenDelta{
			TokenID:      id,
			AmountSigned: sum.InexactFloat64(),
			SymbolHint:   h.SymbolHint,
			ImageHint:    h.ImageHint,
		})
	}
	return out
}
