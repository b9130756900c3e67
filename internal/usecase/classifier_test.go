package usecase

import (
	"math"
	"testing"

	"WalletPnL/internal/domain/models"
)

const usdcMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestClassify(t *testing.T) {
	prices := models.PriceSeries{Fallback: 100}
	c := NewClassifier()

	type want struct {
		token  string
		dir    models.Direction
		native float64
		usd    float64
	}
	cases := []struct {
		name   string
		nt     models.NormalizedTransfer
		drop   DropReason
		trades []want
		check  func(t *testing.T, trades []models.ClassifiedTrade)
	}{
		{
			name:   "simple buy",
			nt:     transfer(solWallet, models.ChainSolana, "t1", t0, -1, delta("MEME", 1000)),
			trades: []want{{"MEME", models.DirectionBuy, 1, 100}},
		},
		{
			name:   "simple sell",
			nt:     transfer(solWallet, models.ChainSolana, "t2", t0, 2, delta("MEME", -500)),
			trades: []want{{"MEME", models.DirectionSell, 2, 200}},
		},
		{
			name: "proportional split",
			nt:   transfer(solWallet, models.ChainSolana, "t3", t0, -3, delta("A", 100), delta("B", 200)),
			trades: []want{
				{"A", models.DirectionBuy, 1, 100},
				{"B", models.DirectionBuy, 2, 200},
			},
			check: func(t *testing.T, trades []models.ClassifiedTrade) {
				for _, tr := range trades {
					if !tr.Approximate {
						t.Fatalf("split trades must be flagged approximate: %+v", tr)
					}
				}
			},
		},
		{
			name:   "stable denominated buy",
			nt:     transfer(solWallet, models.ChainSolana, "t4", t0, 0, delta(usdcMint, -50), delta("MEME", 10)),
			trades: []want{{"MEME", models.DirectionBuy, 0.5, 50}},
			check: func(t *testing.T, trades []models.ClassifiedTrade) {
				if !trades[0].StableDenominated {
					t.Fatalf("expected stable flag")
				}
			},
		},
		{
			name:   "stable leg wins over fee and rent outflow",
			nt:     transfer(solWallet, models.ChainSolana, "t4b", t0, -0.00204, delta(usdcMint, -50), delta("MEME", 10)),
			trades: []want{{"MEME", models.DirectionBuy, 0.5, 50}},
			check: func(t *testing.T, trades []models.ClassifiedTrade) {
				if !trades[0].StableDenominated {
					t.Fatalf("expected stable flag")
				}
			},
		},
		{
			name:   "stable sale received",
			nt:     transfer(solWallet, models.ChainSolana, "t4c", t0, -0.000005, delta(usdcMint, 80), delta("MEME", -10)),
			trades: []want{{"MEME", models.DirectionSell, 0.8, 80}},
		},
		{
			name:   "placeholder cost",
			nt:     transfer(solWallet, models.ChainSolana, "t5", t0, 0, delta("AIRDROP", 100)),
			trades: []want{{"AIRDROP", models.DirectionBuy, 0.01, 1}},
			check: func(t *testing.T, trades []models.ClassifiedTrade) {
				if !trades[0].PlaceholderCost {
					t.Fatalf("expected placeholder flag")
				}
			},
		},
		{
			name: "placeholder split across unpriced buys",
			nt:   transfer(solWallet, models.ChainSolana, "t5b", t0, 0, delta("A", 100), delta("B", 300)),
			trades: []want{
				{"A", models.DirectionBuy, 0.0025, 0.25},
				{"B", models.DirectionBuy, 0.0075, 0.75},
			},
			check: func(t *testing.T, trades []models.ClassifiedTrade) {
				for _, tr := range trades {
					if !tr.PlaceholderCost || !tr.Approximate {
						t.Fatalf("split placeholder must be flagged: %+v", tr)
					}
				}
			},
		},
		{
			name:   "dust native is ignored",
			nt:     transfer(solWallet, models.ChainSolana, "t6", t0, -0.00001, delta("MEME", 5)),
			trades: []want{{"MEME", models.DirectionBuy, 0.01, 1}},
		},
		{
			name:   "wrapped and plain native take the larger",
			nt:     transfer(solWallet, models.ChainSolana, "t7", t0, -1, delta(models.SolanaWrappedMint, -1.2), delta("MEME", 5)),
			trades: []want{{"MEME", models.DirectionBuy, 1.2, 120}},
		},
		{
			name:   "equal wrapped and plain outflow count once",
			nt:     transfer(solWallet, models.ChainSolana, "t7b", t0, -2, delta(models.SolanaWrappedMint, -2), delta("MEME", 5)),
			trades: []want{{"MEME", models.DirectionBuy, 2, 200}},
		},
		{
			name: "unpriced sell",
			nt:   transfer(solWallet, models.ChainSolana, "t8", t0, 0, delta("MEME", -100)),
			drop: DropUnpricedSell,
		},
		{
			name: "rails only",
			nt:   transfer(solWallet, models.ChainSolana, "t9", t0, -1, delta(models.SolanaWrappedMint, 1)),
			drop: DropRailsOnly,
		},
		{
			name: "not a candidate",
			nt:   transfer(solWallet, models.ChainSolana, "t10", t0, -1),
			drop: DropNotCandidate,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			trades, drop := c.Classify(tc.nt, prices, nil)
			if drop != tc.drop {
				t.Fatalf("expected drop %q, got %q", tc.drop, drop)
			}
			if len(trades) != len(tc.trades) {
				t.Fatalf("expected %d trades, got %+v", len(tc.trades), trades)
			}
			for i, w := range tc.trades {
				got := trades[i]
				if got.TokenID != w.token || got.Direction != w.dir || !approxEqual(got.NativeAmount, w.native) || !approxEqual(got.USDValue, w.usd) {
					t.Fatalf("trade %d: expected %+v, got %+v", i, w, got)
				}
			}
			if tc.check != nil {
				tc.check(t, trades)
			}
		})
	}
}

func TestClassifyWithoutPriceKeepsStableUSD(t *testing.T) {
	nt := transfer(solWallet, models.ChainSolana, "z", t0, 0, delta(usdcMint, -50), delta("MEME", 10))

	trades, _ := NewClassifier().Classify(nt, models.PriceSeries{}, nil)
	if len(trades) != 1 || trades[0].USDValue != 50 || trades[0].NativeAmount != 0 {
		t.Fatalf("a zero price must not produce an infinite native amount: %+v", trades)
	}
}

func TestClassifyUsesProviderUSDQuote(t *testing.T) {
	nt := transfer(solWallet, models.ChainSolana, "q", t0, -1, delta("MEME", 1))
	quote := 142.0
	nt.NativeUSD = &quote

	trades, _ := NewClassifier().Classify(nt, models.PriceSeries{Fallback: 100}, nil)
	if len(trades) != 1 || trades[0].USDValue != 142 {
		t.Fatalf("expected provider quote to win, got %+v", trades)
	}
}

func TestClassifySymbolPrecedence(t *testing.T) {
	nt := transfer(solWallet, models.ChainSolana, "s", t0, -1,
		models.TokenDelta{TokenID: "RESOLVEDMINT", AmountSigned: 1, SymbolHint: "HINT"},
		models.TokenDelta{TokenID: "HINTEDMINT", AmountSigned: 1, SymbolHint: "HINT"},
		models.TokenDelta{TokenID: "UNKNOWNMINT", AmountSigned: 1},
	)
	meta := map[string]models.TokenMetadata{"RESOLVEDMINT": {Symbol: "RES"}}

	trades, _ := NewClassifier().Classify(nt, models.PriceSeries{Fallback: 100}, meta)
	got := map[string]string{}
	for _, tr := range trades {
		got[tr.TokenID] = tr.TokenSymbol
	}
	if got["RESOLVEDMINT"] != "RES" || got["HINTEDMINT"] != "HINT" || got["UNKNOWNMINT"] != "UNKNOWNM..." {
		t.Fatalf("unexpected symbols %v", got)
	}
}
