package usecase

import (
	"sort"

	"WalletPnL/internal/domain/models"
)

const topN = 5

// Aggregate builds the summary figures from one ledger, or from several when
// a selector fanned out over chains. Wallet, provider and warnings are left
// to the caller.
func Aggregate(ledgers ...*Ledger) *models.PnLSummary {
	s := &models.PnLSummary{
		TopWins:   []models.TokenPnL{},
		TopLosses: []models.TokenPnL{},
	}

	var (
		realized []models.TokenPnL
		holds    []int64
		wins     int
		days     = make(map[string]*models.DayBucket)
	)
	for _, l := range ledgers {
		s.Chains = append(s.Chains, l.chain)
		s.TotalTrades += l.trades
		s.TotalVolumeNative += l.volumeNative
		s.TotalVolumeUSD += l.volumeUSD
		s.PlaceholderCostTrades += l.placeholders
		s.ApproximateTrades += l.approximate

		for _, st := range l.Stats() {
			s.TokensTraded++
			if st.ReceivedUSD <= 0 {
				continue
			}
			pnl := st.RealizedPnL()
			s.TotalPnLUSD += pnl
			if pnl > 0 {
				wins++
			}
			realized = append(realized, models.TokenPnL{
				TokenID:            st.TokenID,
				Chain:              st.Chain,
				Symbol:             st.Symbol,
				ImageURL:           st.ImageURL,
				PnLUSD:             pnl,
				SpentUSD:           st.SpentUSD,
				ReceivedUSD:        st.ReceivedUSD,
				BoughtUSD:          st.BoughtUSD,
				TokensSold:         st.TokensSold,
				LastTradeTimestamp: st.LastTradeTimestamp,
			})
			if !st.FirstBuyTimestamp.IsZero() && st.LastSellTimestamp.After(st.FirstBuyTimestamp) {
				holds = append(holds, int64(st.LastSellTimestamp.Sub(st.FirstBuyTimestamp).Seconds()))
			}
		}

		for _, d := range l.Days() {
			b, ok := days[d.Date]
			if !ok {
				b = &models.DayBucket{Date: d.Date}
				days[d.Date] = b
			}
			b.Trades += d.Trades
			b.PnLUSD += d.PnLUSD
		}
	}

	s.TopWins = rank(realized, func(p models.TokenPnL) bool { return p.PnLUSD > 0 }, func(a, b float64) bool { return a > b })
	s.TopLosses = rank(realized, func(p models.TokenPnL) bool { return p.PnLUSD < 0 }, func(a, b float64) bool { return a < b })
	if len(realized) > 0 {
		s.WinRate = float64(wins) / float64(len(realized)) * 100
	}
	s.MedianHoldTime = median(holds)
	s.BusiestDay, s.BestPnLDay = pickDays(days)
	return s
}

// rank keeps entries passing keep, sorted stably by better, capped at topN.
func rank(all []models.TokenPnL, keep func(models.TokenPnL) bool, better func(a, b float64) bool) []models.TokenPnL {
	out := []models.TokenPnL{}
	for _, p := range all {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return better(out[i].PnLUSD, out[j].PnLUSD) })
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// pickDays walks days chronologically; a later day must strictly beat the
// current best to replace it.
func pickDays(days map[string]*models.DayBucket) (busiest, best *models.DayStat) {
	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		d := days[k]
		if busiest == nil || d.Trades > busiest.Trades {
			busiest = &models.DayStat{Date: d.Date, Trades: d.Trades, PnLUSD: d.PnLUSD}
		}
		if best == nil || d.PnLUSD > best.PnLUSD {
			best = &models.DayStat{Date: d.Date, Trades: d.Trades, PnLUSD: d.PnLUSD}
		}
	}
	return busiest, best
}

func median(v []int64) int64 {
	if len(v) == 0 {
		return 0
	}
	sort.Slice(v, func(i, j int) bool { return v[i] < v[j] })
	mid := len(v) / 2
	if len(v)%2 == 1 {
		return v[mid]
	}
	return (v[mid-1] + v[mid]) / 2
}
