package dexscreener

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"WalletPnL/internal/domain/models"
	"WalletPnL/internal/domain/repository"
	"WalletPnL/internal/service/upstream"
)

const (
	StrategyName   = "dexscreener"
	DefaultBaseURL = "https://api.dexscreener.com"

	// The tokens endpoint accepts at most 30 comma-separated addresses.
	maxBatch = 30
)

type tokensResponse struct {
	Pairs []pair `json:"pairs"`
}

type pair struct {
	ChainID   string `json:"chainId"`
	BaseToken struct {
		Address string `json:"address"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	Liquidity *struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	Info *struct {
		ImageURL string `json:"imageUrl"`
	} `json:"info"`
}

func (p pair) liquidity() float64 {
	if p.Liquidity == nil {
		return 0
	}
	return p.Liquidity.USD
}

// Pairs resolves tokens from the most liquid DexScreener pair they are the base of.
type Pairs struct {
	http    repository.HTTPGetter
	baseURL string
}

func NewPairs(getter repository.HTTPGetter, baseURL string) *Pairs {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Pairs{http: getter, baseURL: strings.TrimRight(baseURL, "/")}
}

func (d *Pairs) Name() string { return StrategyName }

func (d *Pairs) Supports(chain models.Chain) bool {
	cfg, ok := models.ConfigFor(chain)
	return ok && cfg.DexScreenerID != ""
}

func (d *Pairs) MaxBatch() int { return maxBatch }

func (d *Pairs) TryResolve(ctx context.Context, chain models.Chain, ids []string) (map[string]models.TokenMetadata, error) {
	cfg, ok := models.ConfigFor(chain)
	if !ok || len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > maxBatch {
		ids = ids[:maxBatch]
	}

	escaped := make([]string, len(ids))
	for i, id := range ids {
		escaped[i] = url.PathEscape(id)
	}
	var resp tokensResponse
	endpoint := fmt.Sprintf("%s/latest/dex/tokens/%s", d.baseURL, strings.Join(escaped, ","))
	if err := d.http.GetJSON(ctx, endpoint, nil, &resp); err != nil {
		return nil, upstream.Wrap("fetch dexscreener pairs", err)
	}

	wanted := make(map[string]string, len(ids))
	for _, id := range ids {
		wanted[cfg.NormalizeTokenID(id)] = id
	}

	best := make(map[string]pair, len(ids))
	for _, p := range resp.Pairs {
		if p.ChainID != "" && p.ChainID != cfg.DexScreenerID {
			continue
		}
		id, ok := wanted[cfg.NormalizeTokenID(p.BaseToken.Address)]
		if !ok || strings.TrimSpace(p.BaseToken.Symbol) == "" {
			continue
		}
		if cur, seen := best[id]; !seen || p.liquidity() > cur.liquidity() {
			best[id] = p
		}
	}

	out := make(map[string]models.TokenMetadata, len(best))
	for id, p := range best {
		m := models.TokenMetadata{Symbol: strings.TrimSpace(p.BaseToken.Symbol), Source: StrategyName}
		if p.Info != nil {
			m.ImageURL = p.Info.ImageURL
		}
		out[id] = m
	}
	return out, nil
}
