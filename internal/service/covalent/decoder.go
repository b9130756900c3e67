package covalent

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"WalletPnL/internal/domain/models"
	"WalletPnL/internal/service/upstream"
	"WalletPnL/pkg/address"
	"WalletPnL/pkg/util"
)

const (
	eventTransfer   = "Transfer"
	eventSwap       = "Swap"
	eventWithdrawal = "Withdrawal"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Decoder turns transactions_v3 items into transfers for one chain.
type Decoder struct {
	cfg models.ChainConfig
}

func NewDecoder(chain models.Chain) Decoder {
	cfg, _ := models.ConfigFor(chain)
	return Decoder{cfg: cfg}
}

func (d Decoder) same(a, b string) bool {
	if d.cfg.Family == models.FamilyEVM {
		return address.SameEVM(a, b)
	}
	return a != "" && a == b
}

// Decode reads native value, fee and ERC-20 Transfer logs touching wallet.
// Failed transactions are skipped.
func (d Decoder) Decode(wallet string, tx Transaction) (models.NormalizedTransfer, bool) {
	if tx.TxHash == "" || (tx.Successful != nil && !*tx.Successful) {
		return models.NormalizedTransfer{}, false
	}
	ts, ok := util.ParseTime(tx.BlockSignedAt)
	if !ok {
		return models.NormalizedTransfer{}, false
	}

	nt := models.NormalizedTransfer{
		WalletAddress: wallet,
		Chain:         d.cfg.Chain,
		TxID:          tx.TxHash,
		Source:        ProviderName,
		Timestamp:     ts,
		FeeNative:     d.fee(tx),
	}

	value := d.scale(tx.Value, d.cfg.NativeDecimals)
	switch {
	case d.same(tx.FromAddress, wallet) && !d.same(tx.ToAddress, wallet):
		nt.NativeAmountSigned = -value
	case d.same(tx.ToAddress, wallet) && !d.same(tx.FromAddress, wallet):
		nt.NativeAmountSigned = value
	}

	set := upstream.NewDeltaSet()
	var unwrapped decimal.Decimal
	for _, ev := range tx.LogEvents {
		if ev.Decoded == nil {
			continue
		}
		switch ev.Decoded.Name {
		case eventSwap:
			nt.HasKnownExchangeRoute = true
		case eventWithdrawal:
			if d.cfg.IsWrappedNative(ev.SenderAddress) {
				if wad, ok := ev.Decoded.param("wad"); ok {
					if v, err := decimal.NewFromString(wad); err == nil {
						unwrapped = unwrapped.Add(v)
					}
				}
			}
		case eventTransfer:
			if d.addTransfer(set, wallet, ev) {
				nt.TokenTransferCount++
			}
		}
	}

	// Routers unwrap the native proceeds of a sell and pay them out through an
	// internal call, which transactions_v3 does not list. Credit the unwrap to
	// the sender when nothing else moved native funds.
	if nt.NativeAmountSigned == 0 && unwrapped.IsPositive() && d.same(tx.FromAddress, wallet) {
		nt.NativeAmountSigned = unwrapped.Shift(-d.cfg.NativeDecimals).InexactFloat64()
	}

	nt.TokenBalanceChanges = set.Deltas()
	return nt, true
}

// addTransfer records an ERC-20 Transfer(from, to, value) that touches wallet.
func (d Decoder) addTransfer(set *upstream.DeltaSet, wallet string, ev LogEvent) bool {
	if ev.SenderDecimals == nil {
		return false
	}
	from, _ := ev.Decoded.param("from")
	to, _ := ev.Decoded.param("to")
	raw, ok := ev.Decoded.param("value")
	if !ok {
		return false
	}
	v, err := decimal.NewFromString(raw)
	if err != nil || v.IsZero() {
		return false
	}
	amount := v.Shift(-*ev.SenderDecimals)
	id := d.cfg.NormalizeTokenID(ev.SenderAddress)

	switch {
	case d.same(from, wallet) && d.same(to, wallet):
		return false
	case d.same(to, wallet):
		set.Add(id, amount, ev.SenderTicker, ev.SenderLogoURL)
	case d.same(from, wallet):
		set.Add(id, amount.Neg(), ev.SenderTicker, ev.SenderLogoURL)
	default:
		return false
	}
	return true
}

func (d Decoder) fee(tx Transaction) float64 {
	if tx.FeesPaid != "" {
		return d.scale(tx.FeesPaid, d.cfg.NativeDecimals)
	}
	if tx.GasSpent > 0 && tx.GasPrice > 0 {
		wei := decimal.NewFromInt(tx.GasSpent).Mul(decimal.NewFromInt(tx.GasPrice))
		return wei.Shift(-d.cfg.NativeDecimals).InexactFloat64()
	}
	return 0
}

func (d Decoder) scale(raw string, decimals int32) float64 {
	v, err := upstream.ScaleRaw(strings.TrimSpace(raw), decimals)
	if err != nil {
		return 0
	}
	return v
}
