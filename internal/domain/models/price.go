package models

import (
	"sort"
	"time"
)

type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	PriceUSD  float64   `json:"price_usd"`
}

// PriceSeries is an ascending native/USD series. An empty series answers
// every lookup with Fallback.
type PriceSeries struct {
	Points   []PricePoint
	Fallback float64
}

func (s PriceSeries) Empty() bool {
	return len(s.Points) == 0
}

// PriceAt returns the price of the point nearest ts. Ties go to the earlier point.
func (s PriceSeries) PriceAt(ts time.Time) float64 {
	n := len(s.Points)
	if n == 0 {
		return s.Fallback
	}
	i := sort.Search(n, func(i int) bool { return !s.Points[i].Timestamp.Before(ts) })
	switch {
	case i == 0:
		return s.Points[0].PriceUSD
	case i == n:
		return s.Points[n-1].PriceUSD
	}
	before, after := s.Points[i-1], s.Points[i]
	if ts.Sub(before.Timestamp) <= after.Timestamp.Sub(ts) {
		return before.PriceUSD
	}
	return after.PriceUSD
}
