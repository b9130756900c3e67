package models

import (
	"fmt"
	"strings"
)

type Chain string

const (
	ChainSolana   Chain = "solana"
	ChainEthereum Chain = "eth-mainnet"
	ChainBSC      Chain = "bsc-mainnet"
	ChainBase     Chain = "base-mainnet"

	// SelectorEVM fans out over every supported EVM chain.
	SelectorEVM = "evm"
)

type Family string

const (
	FamilySolana Family = "solana"
	FamilyEVM    Family = "evm"
)

const (
	SolanaWrappedMint = "So11111111111111111111111111111111111111112"
	LamportsPerSOL    = 1e9
)

// ChainConfig carries every chain-specific constant the pipeline needs.
// Token ids on EVM chains are lowercase hex.
type ChainConfig struct {
	Chain           Chain
	Family          Family
	NativeSymbol    string
	NativeDecimals  int32
	WrappedNativeID string
	StableIDs       map[string]bool
	// StableSymbols catches stable legs reported by symbol only.
	StableSymbols map[string]bool

	DustThreshold        float64 // plain native movement below this is noise
	StableMinimum        float64 // stable legs below this are ignored
	MinPlaceholderNative float64
	PlaceholderFeeFactor float64
	FallbackPriceUSD     float64

	CoinGeckoID   string
	DexScreenerID string
}

func set(ids ...string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

var stableSymbols = set("USDC", "USDT", "USD", "USD1", "BUSD", "DAI", "PYUSD", "USDE", "FDUSD")

var chainConfigs = map[Chain]ChainConfig{
	ChainSolana: {
		Chain:           ChainSolana,
		Family:          FamilySolana,
		NativeSymbol:    "SOL",
		NativeDecimals:  9,
		WrappedNativeID: SolanaWrappedMint,
		StableIDs: set(
			"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", // USDC
			"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB", // USDT
			"2b1kV6DkPAnxd5ixfnxCpjxmKwqjjaYmCZfHsFu24GXo", // PYUSD
			"Gnt27xtC473ZT2Mw5u8wZ68Z3gULkSTb5DuxJy7eJotD", // PYUSD (legacy listing)
		),
		StableSymbols:        stableSymbols,
		DustThreshold:        0.0001,
		StableMinimum:        0.01,
		MinPlaceholderNative: 0.01,
		PlaceholderFeeFactor: 10,
		FallbackPriceUSD:     150,
		CoinGeckoID:          "solana",
		DexScreenerID:        "solana",
	},
	ChainEthereum: {
		Chain:           ChainEthereum,
		Family:          FamilyEVM,
		NativeSymbol:    "ETH",
		NativeDecimals:  18,
		WrappedNativeID: "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2",
		StableIDs: set(
			"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", // USDC
			"0xdac17f958d2ee523a2206206994597c13d831ec7", // USDT
			"0x6b175474e89094c44da98b954eedeac495271d0f", // DAI
			"0x6c3ea9036406852006290770bedfcaba0e23a0e8", // PYUSD
		),
		StableSymbols:        stableSymbols,
		DustThreshold:        0.000001,
		StableMinimum:        0.01,
		MinPlaceholderNative: 0.001,
		PlaceholderFeeFactor: 10,
		FallbackPriceUSD:     3000,
		CoinGeckoID:          "ethereum",
		DexScreenerID:        "ethereum",
	},
	ChainBSC: {
		Chain:           ChainBSC,
		Family:          FamilyEVM,
		NativeSymbol:    "BNB",
		NativeDecimals:  18,
		WrappedNativeID: "0xbb4cdb9cbd36b01bd1cbaebf2de08d9173bc095c",
		StableIDs: set(
			"0x55d398326f99059ff775485246999027b3197955", // USDT
			"0x8ac76a51cc950d9822d68b83fe1ad97b32cd580d", // USDC
			"0xe9e7cea3dedca5984780bafc599bd69add087d56", // BUSD
		),
		StableSymbols:        stableSymbols,
		DustThreshold:        0.000001,
		StableMinimum:        0.01,
		MinPlaceholderNative: 0.001,
		PlaceholderFeeFactor: 10,
		FallbackPriceUSD:     600,
		CoinGeckoID:          "binancecoin",
		DexScreenerID:        "bsc",
	},
	ChainBase: {
		Chain:           ChainBase,
		Family:          FamilyEVM,
		NativeSymbol:    "ETH",
		NativeDecimals:  18,
		WrappedNativeID: "0x4200000000000000000000000000000000000006",
		StableIDs: set(
			"0x833589fcd6edb6e08f4c7c32d4f71b54bda02913", // USDC
			"0xfde4c96c8593536e31f229ea8f37b2ada2699bb2", // USDT
		),
		StableSymbols:        stableSymbols,
		DustThreshold:        0.000001,
		StableMinimum:        0.01,
		MinPlaceholderNative: 0.001,
		PlaceholderFeeFactor: 10,
		FallbackPriceUSD:     3000,
		CoinGeckoID:          "ethereum",
		DexScreenerID:        "base",
	},
}

// EVMChains is the fan-out order for the "evm" selector.
var EVMChains = []Chain{ChainEthereum, ChainBSC, ChainBase}

// ConfigFor returns the chain's constants.
func ConfigFor(c Chain) (ChainConfig, bool) {
	cfg, ok := chainConfigs[c]
	return cfg, ok
}

func (c Chain) Family() Family {
	if cfg, ok := chainConfigs[c]; ok {
		return cfg.Family
	}
	return ""
}

// ExpandSelector turns a user chain selector into concrete chains. Empty means solana.
func ExpandSelector(selector string) ([]Chain, error) {
	s := strings.ToLower(strings.TrimSpace(selector))
	switch s {
	case "", string(ChainSolana):
		return []Chain{ChainSolana}, nil
	case SelectorEVM:
		return append([]Chain(nil), EVMChains...), nil
	}
	if _, ok := chainConfigs[Chain(s)]; ok {
		return []Chain{Chain(s)}, nil
	}
	return nil, fmt.Errorf("unsupported chain %q", selector)
}

// IsStable reports whether id (or, failing that, the provider symbol hint) is a stable asset.
func (cfg ChainConfig) IsStable(id, symbolHint string) bool {
	if cfg.StableIDs[cfg.NormalizeTokenID(id)] {
		return true
	}
	return symbolHint != "" && cfg.StableSymbols[strings.ToUpper(symbolHint)]
}

func (cfg ChainConfig) IsWrappedNative(id string) bool {
	return cfg.NormalizeTokenID(id) == cfg.WrappedNativeID
}

// NormalizeTokenID lowercases EVM contract addresses; solana mints are case-sensitive.
func (cfg ChainConfig) NormalizeTokenID(id string) string {
	if cfg.Family == FamilyEVM {
		return strings.ToLower(id)
	}
	return id
}

// CanonicalSelector lowercases a selector and defaults it to solana.
func CanonicalSelector(selector string) string {
	s := strings.ToLower(strings.TrimSpace(selector))
	if s == "" {
		return string(ChainSolana)
	}
	return s
}
