package usecase

import (
	"WalletPnL/internal/domain/models"
	"WalletPnL/pkg/util"
)

// snapEpsilon absorbs float drift: smaller holdings or cost are treated as zero.
const snapEpsilon = 1e-9

// SaleResult is what one sell did to its position.
type SaleResult struct {
	Sold        float64
	CostRemoved float64
	RealizedPnL float64
}

// Ledger is the weighted-average position book for one wallet on one chain.
// Trades must be applied oldest first.
type Ledger struct {
	chain     models.Chain
	positions map[string]*models.TokenPosition
	stats     map[string]*models.TokenStats
	order     []string
	days      map[string]*models.DayBucket
	dayOrder  []string

	trades       int
	volumeNative float64
	volumeUSD    float64
	placeholders int
	approximate  int
}

func NewLedger(chain models.Chain) *Ledger {
	return &Ledger{
		chain:     chain,
		positions: make(map[string]*models.TokenPosition),
		stats:     make(map[string]*models.TokenStats),
		days:      make(map[string]*models.DayBucket),
	}
}

// Apply books one trade and returns the sale effect (zero for buys).
func (l *Ledger) Apply(t models.ClassifiedTrade) SaleResult {
	pos, st := l.entry(t)
	var res SaleResult

	switch t.Direction {
	case models.DirectionBuy:
		pos.HeldAmount += t.TokenAmount
		pos.CostBasisUSD += t.USDValue
		st.Buys++
		st.BoughtUSD += t.USDValue
		if st.FirstBuyTimestamp.IsZero() {
			st.FirstBuyTimestamp = t.Timestamp
		}
	case models.DirectionSell:
		res.Sold = min(t.TokenAmount, pos.HeldAmount)
		if pos.HeldAmount > 0 {
			res.CostRemoved = res.Sold / pos.HeldAmount * pos.CostBasisUSD
		}
		pos.HeldAmount -= res.Sold
		pos.CostBasisUSD -= res.CostRemoved
		res.RealizedPnL = t.USDValue - res.CostRemoved

		st.Sells++
		st.SpentUSD += res.CostRemoved
		st.ReceivedUSD += t.USDValue
		st.TokensSold += t.TokenAmount
		st.LastSellTimestamp = t.Timestamp
	}
	snap(pos)

	st.LastTradeTimestamp = t.Timestamp
	if st.Symbol == "" {
		st.Symbol = t.TokenSymbol
	}

	day := l.day(util.DayKey(t.Timestamp))
	day.Trades++
	day.PnLUSD += res.RealizedPnL

	l.trades++
	l.volumeNative += t.NativeAmount
	l.volumeUSD += t.USDValue
	if t.PlaceholderCost {
		l.placeholders++
	}
	if t.Approximate {
		l.approximate++
	}
	return res
}

func snap(p *models.TokenPosition) {
	if p.HeldAmount < snapEpsilon {
		p.HeldAmount = 0
	}
	if p.CostBasisUSD < snapEpsilon || p.HeldAmount == 0 {
		p.CostBasisUSD = 0
	}
}

func (l *Ledger) entry(t models.ClassifiedTrade) (*models.TokenPosition, *models.TokenStats) {
	pos, ok := l.positions[t.TokenID]
	if !ok {
		pos = &models.TokenPosition{TokenID: t.TokenID}
		l.positions[t.TokenID] = pos
		l.stats[t.TokenID] = &models.TokenStats{TokenID: t.TokenID, Chain: l.chain}
		l.order = append(l.order, t.TokenID)
	}
	return pos, l.stats[t.TokenID]
}

func (l *Ledger) day(key string) *models.DayBucket {
	b, ok := l.days[key]
	if !ok {
		b = &models.DayBucket{Date: key}
		l.days[key] = b
		l.dayOrder = append(l.dayOrder, key)
	}
	return b
}

// Position returns a copy of the current position in token.
func (l *Ledger) Position(tokenID string) models.TokenPosition {
	if p, ok := l.positions[tokenID]; ok {
		return *p
	}
	return models.TokenPosition{TokenID: tokenID}
}

// Stats returns per-token totals in first-seen order.
func (l *Ledger) Stats() []models.TokenStats {
	out := make([]models.TokenStats, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, *l.stats[id])
	}
	return out
}

// Days returns day buckets in first-seen order.
func (l *Ledger) Days() []models.DayBucket {
	out := make([]models.DayBucket, 0, len(l.dayOrder))
	for _, k := range l.dayOrder {
		out = append(out, *l.days[k])
	}
	return out
}

func (l *Ledger) Chain() models.Chain { return l.chain }

func (l *Ledger) Trades() int { return l.trades }

// Annotate fills display metadata onto the token stats.
func (l *Ledger) Annotate(meta map[string]models.TokenMetadata) {
	for id, st := range l.stats {
		m, ok := meta[id]
		if !ok {
			continue
		}
		if m.Symbol != "" {
			st.Symbol = m.Symbol
		}
		st.ImageURL = m.ImageURL
	}
}
