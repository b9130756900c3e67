package cielo

import (
	"strings"

	"github.com/shopspring/decimal"

	"WalletPnL/internal/domain/models"
	"WalletPnL/internal/service/upstream"
	"WalletPnL/pkg/util"
)

type leg struct {
	address string
	symbol  string
	amount  decimal.Decimal
	usd     decimal.Decimal
	icon    string
}

func (l leg) isSOL() bool {
	if l.address == models.SolanaWrappedMint {
		return true
	}
	switch strings.ToUpper(strings.TrimSpace(l.symbol)) {
	case "SOL", "WSOL", "WRAPPED SOL":
		return true
	}
	return false
}

// Decode maps one swap feed item onto the wallet. The non-SOL leg is the
// traded token; is_sell says which way it moved. Items with no SOL leg are
// kept only when the other side is a stable, so the classifier can price
// them in USD.
func Decode(wallet string, item FeedItem) (models.NormalizedTransfer, bool) {
	if item.TxType != "" && !strings.EqualFold(item.TxType, "swap") {
		return models.NormalizedTransfer{}, false
	}
	cfg, _ := models.ConfigFor(models.ChainSolana)

	l0 := leg{item.Token0Address, item.Token0Symbol, item.Token0Amount.Abs(), item.Token0AmountUSD.Decimal, item.Token0Icon}
	l1 := leg{item.Token1Address, item.Token1Symbol, item.Token1Amount.Abs(), item.Token1AmountUSD.Decimal, item.Token1Icon}

	nt := models.NormalizedTransfer{
		WalletAddress:         wallet,
		Chain:                 models.ChainSolana,
		TxID:                  item.TxHash,
		Source:                ProviderName,
		Timestamp:             util.FromUnix(item.Timestamp),
		HasKnownExchangeRoute: true,
	}

	// Selling moves the traded token out and the counter leg in.
	tokenSign, counterSign := decimal.NewFromInt(1), decimal.NewFromInt(-1)
	if item.IsSell {
		tokenSign, counterSign = counterSign, tokenSign
	}

	set := upstream.NewDeltaSet()
	switch {
	case l0.isSOL() != l1.isSOL():
		sol, traded := l0, l1
		if l1.isSOL() {
			sol, traded = l1, l0
		}
		nt.NativeAmountSigned = sol.amount.Mul(counterSign).InexactFloat64()
		if sol.usd.IsPositive() {
			usd := sol.usd.InexactFloat64()
			nt.NativeUSD = &usd
		}
		set.Add(traded.address, traded.amount.Mul(tokenSign), traded.symbol, traded.icon)

	case !l0.isSOL():
		s0, s1 := cfg.IsStable(l0.address, l0.symbol), cfg.IsStable(l1.address, l1.symbol)
		if s0 == s1 {
			return models.NormalizedTransfer{}, false
		}
		stable, traded := l0, l1
		if s1 {
			stable, traded = l1, l0
		}
		set.Add(traded.address, traded.amount.Mul(tokenSign), traded.symbol, traded.icon)
		set.Add(stable.address, stable.amount.Mul(counterSign), stable.symbol, stable.icon)

	default:
		return models.NormalizedTransfer{}, false
	}

	nt.TokenBalanceChanges = set.Deltas()
	nt.TokenTransferCount = len(nt.TokenBalanceChanges)
	if nt.TxID == "" || len(nt.TokenBalanceChanges) == 0 {
		return models.NormalizedTransfer{}, false
	}
	return nt, true
}
