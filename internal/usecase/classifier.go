package usecase

import (
	"math"

	"WalletPnL/internal/domain/models"
)

// DropReason says why a transfer produced no trades.
type DropReason string

const (
	DropNone         DropReason = ""
	DropNotCandidate DropReason = "not_candidate"
	DropRailsOnly    DropReason = "rails_only"
	DropUnpricedSell DropReason = "unpriced_sell"
)

// Classifier turns normalized transfers into buys and sells. It never fails:
// anything it cannot classify is dropped with a reason.
type Classifier struct{}

func NewClassifier() *Classifier {
	return &Classifier{}
}

type legGroup struct {
	deltas []models.TokenDelta
	total  float64
}

func (g *legGroup) add(d models.TokenDelta) {
	g.deltas = append(g.deltas, d)
	g.total += math.Abs(d.AmountSigned)
}

// Classify applies the trade rules to one transfer.
func (c *Classifier) Classify(nt models.NormalizedTransfer, prices models.PriceSeries, meta map[string]models.TokenMetadata) ([]models.ClassifiedTrade, DropReason) {
	cfg, ok := models.ConfigFor(nt.Chain)
	if !ok {
		return nil, DropNotCandidate
	}
	if !nt.HasKnownExchangeRoute && len(nt.TokenBalanceChanges) == 0 && nt.TokenTransferCount == 0 {
		return nil, DropNotCandidate
	}

	var (
		wrapped   float64
		stableNet float64
		buys      legGroup
		sells     legGroup
	)
	for _, d := range nt.TokenBalanceChanges {
		switch {
		case d.AmountSigned == 0:
		case cfg.IsWrappedNative(d.TokenID):
			wrapped += d.AmountSigned
		case cfg.IsStable(d.TokenID, d.SymbolHint):
			if math.Abs(d.AmountSigned) >= cfg.StableMinimum {
				stableNet += d.AmountSigned
			}
		case d.AmountSigned > 0:
			buys.add(d)
		default:
			sells.add(d)
		}
	}
	if len(buys.deltas) == 0 && len(sells.deltas) == 0 {
		return nil, DropRailsOnly
	}

	// Plain and wrapped native movement are the same economic event seen on
	// two ledgers: take the larger, never the sum.
	native, nativeSign := 0.0, 0.0
	if plain := math.Abs(nt.NativeAmountSigned); plain >= cfg.DustThreshold {
		native, nativeSign = plain, math.Copysign(1, nt.NativeAmountSigned)
	}
	if w := math.Abs(wrapped); w >= cfg.DustThreshold && w > native {
		native, nativeSign = w, math.Copysign(1, wrapped)
	}

	price := prices.PriceAt(nt.Timestamp)
	var out []models.ClassifiedTrade
	emit := func(d models.TokenDelta, dir models.Direction, nativeAmt, usd float64) *models.ClassifiedTrade {
		out = append(out, models.ClassifiedTrade{
			Timestamp:    nt.Timestamp,
			TxID:         nt.TxID,
			Chain:        nt.Chain,
			TokenID:      d.TokenID,
			TokenSymbol:  symbolFor(d, meta),
			Direction:    dir,
			TokenAmount:  math.Abs(d.AmountSigned),
			NativeAmount: nativeAmt,
			USDValue:     usd,
		})
		return &out[len(out)-1]
	}

	// priceGroup attributes payment to one direction. A stable leg in the
	// opposite direction prices the group 1:1 in USD and wins over native,
	// whose plain balance change also carries fees and account rent. Otherwise
	// native pays for buys when it flows out and is received by sells when it
	// flows in.
	priceGroup := func(g legGroup, dir models.Direction, nativeMatches bool, stable float64) bool {
		if len(g.deltas) == 0 {
			return true
		}
		approx := len(g.deltas) > 1
		switch {
		case stable >= cfg.StableMinimum:
			for _, d := range g.deltas {
				share := math.Abs(d.AmountSigned) / g.total
				usd := stable * share
				var amt float64
				if price > 0 {
					amt = usd / price
				}
				t := emit(d, dir, amt, usd)
				t.Approximate = approx
				t.StableDenominated = true
			}
		case native > 0 && nativeMatches:
			for _, d := range g.deltas {
				share := math.Abs(d.AmountSigned) / g.total
				amt := native * share
				usd := amt * price
				if nt.NativeUSD != nil && *nt.NativeUSD > 0 {
					usd = *nt.NativeUSD * share
				}
				t := emit(d, dir, amt, usd)
				t.Approximate = approx
			}
		case dir == models.DirectionBuy:
			placeholder := math.Max(nt.FeeNative*cfg.PlaceholderFeeFactor, cfg.MinPlaceholderNative)
			for _, d := range g.deltas {
				amt := placeholder * math.Abs(d.AmountSigned) / g.total
				t := emit(d, dir, amt, amt*price)
				t.PlaceholderCost = true
				t.Approximate = approx
			}
		default:
			return false
		}
		return true
	}

	buysOK := priceGroup(buys, models.DirectionBuy, nativeSign < 0, -stableNet)
	sellsOK := priceGroup(sells, models.DirectionSell, nativeSign > 0, stableNet)
	if len(out) == 0 && (!buysOK || !sellsOK) {
		return nil, DropUnpricedSell
	}
	return out, DropNone
}

func symbolFor(d models.TokenDelta, meta map[string]models.TokenMetadata) string {
	if m, ok := meta[d.TokenID]; ok && m.Symbol != "" {
		return m.Symbol
	}
	if d.SymbolHint != "" {
		return d.SymbolHint
	}
	return models.PlaceholderSymbol(d.TokenID)
}
