package helius

import (
	"github.com/shopspring/decimal"

	"WalletPnL/internal/domain/models"
	"WalletPnL/internal/service/upstream"
	"WalletPnL/pkg/util"
)

const typeSwap = "SWAP"

// Decode converts one enhanced transaction into the wallet's view of it.
// Failed transactions are skipped.
func Decode(wallet string, tx EnhancedTransaction) (models.NormalizedTransfer, bool) {
	if tx.TransactionError != nil || tx.Signature == "" {
		return models.NormalizedTransfer{}, false
	}

	return models.NormalizedTransfer{
		WalletAddress:         wallet,
		Chain:                 models.ChainSolana,
		TxID:                  tx.Signature,
		Source:                ProviderName,
		Timestamp:             util.FromUnix(tx.Timestamp),
		NativeAmountSigned:    nativeChange(wallet, tx),
		TokenBalanceChanges:   tokenChanges(wallet, tx),
		HasKnownExchangeRoute: tx.Type == typeSwap || tx.Events.Swap != nil,
		FeeNative:             float64(tx.Fee) / models.LamportsPerSOL,
		TokenTransferCount:    len(tx.TokenTransfers),
	}, true
}

// nativeChange prefers the wallet's own balance change. Without one it takes the
// larger of the biggest inbound and biggest outbound transfer, never their sum.
func nativeChange(wallet string, tx EnhancedTransaction) float64 {
	for _, acc := range tx.AccountData {
		if acc.Account == wallet && acc.NativeBalanceChange != 0 {
			return float64(acc.NativeBalanceChange) / models.LamportsPerSOL
		}
	}

	var in, out int64
	for _, nt := range tx.NativeTransfers {
		if nt.Amount <= 0 || nt.FromUserAccount == nt.ToUserAccount {
			continue
		}
		switch wallet {
		case nt.FromUserAccount:
			out = max(out, nt.Amount)
		case nt.ToUserAccount:
			in = max(in, nt.Amount)
		}
	}
	if in > out {
		return float64(in) / models.LamportsPerSOL
	}
	return -float64(out) / models.LamportsPerSOL
}

// tokenChanges reads balance changes owned by the wallet across every account
// entry; routers that only report transfers fall back to netting tokenTransfers.
func tokenChanges(wallet string, tx EnhancedTransaction) []models.TokenDelta {
	set := upstream.NewDeltaSet()
	for _, acc := range tx.AccountData {
		for _, tbc := range acc.TokenBalanceChanges {
			if tbc.UserAccount != wallet {
				continue
			}
			d, err := decimal.NewFromString(tbc.RawTokenAmount.TokenAmount)
			if err != nil {
				continue
			}
			set.Add(tbc.Mint, d.Shift(-tbc.RawTokenAmount.Decimals), "", "")
		}
	}
	if set.Len() > 0 {
		return set.Deltas()
	}

	for _, tt := range tx.TokenTransfers {
		if tt.FromUserAccount == tt.ToUserAccount {
			continue
		}
		switch wallet {
		case tt.ToUserAccount:
			set.Add(tt.Mint, tt.TokenAmount, "", "")
		case tt.FromUserAccount:
			set.Add(tt.Mint, tt.TokenAmount.Neg(), "", "")
		}
	}
	return set.Deltas()
}
