package helius

import (
	"context"
	"fmt"
	"strings"

	"WalletPnL/internal/domain/models"
	"WalletPnL/internal/domain/repository"
	"WalletPnL/internal/service/upstream"
)

const (
	StrategyDAS = "helius_das"

	dasMaxBatch = 50
)

// AssetResolver looks token metadata up through the DAS getAssetBatch method.
type AssetResolver struct {
	rpc    repository.JSONPoster
	apiKey string
	rpcURL string
}

func NewAssetResolver(poster repository.JSONPoster, apiKey, rpcURL string) *AssetResolver {
	if rpcURL == "" {
		rpcURL = DefaultRPCURL
	}
	return &AssetResolver{rpc: poster, apiKey: apiKey, rpcURL: strings.TrimRight(rpcURL, "/")}
}

func (r *AssetResolver) Name() string { return StrategyDAS }

func (r *AssetResolver) Supports(chain models.Chain) bool {
	return chain == models.ChainSolana && r.apiKey != ""
}

func (r *AssetResolver) MaxBatch() int { return dasMaxBatch }

// TryResolve returns metadata for the assets that carry a symbol. NFTs are ignored.
func (r *AssetResolver) TryResolve(ctx context.Context, chain models.Chain, ids []string) (map[string]models.TokenMetadata, error) {
	if !r.Supports(chain) || len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > dasMaxBatch {
		ids = ids[:dasMaxBatch]
	}

	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      "walletpnl",
		Method:  "getAssetBatch",
		Params:  map[string][]string{"ids": ids},
	}
	var resp assetBatchResponse
	if err := r.rpc.PostJSON(ctx, r.rpcURL+"/?api-key="+r.apiKey, nil, req, &resp); err != nil {
		return nil, upstream.Wrap("get asset batch", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("get asset batch: rpc error %d: %s", resp.Error.Code, resp.Error.Message)
	}

	out := make(map[string]models.TokenMetadata, len(resp.Result))
	for _, a := range resp.Result {
		if a == nil || a.ID == "" || a.Interface == "V1_NFT" || a.Interface == "V1_PRINT" {
			continue
		}
		sym := a.symbol()
		if sym == "" {
			continue
		}
		out[a.ID] = models.TokenMetadata{Symbol: sym, ImageURL: a.image(), Source: StrategyDAS}
	}
	return out, nil
}

func (a *Asset) symbol() string {
	if a.Content != nil {
		if s := strings.TrimSpace(a.Content.Metadata.Symbol); s != "" {
			return s
		}
		if s := strings.TrimSpace(a.Content.Metadata.Name); s != "" {
			return s
		}
	}
	if a.TokenInfo != nil {
		return strings.TrimSpace(a.TokenInfo.Symbol)
	}
	return ""
}

func (a *Asset) image() string {
	if a.Content == nil {
		return ""
	}
	if len(a.Content.Files) > 0 {
		if f := a.Content.Files[0]; f.CDNURI != "" {
			return f.CDNURI
		} else if f.URI != "" {
			return f.URI
		}
	}
	return a.Content.Links.Image
}
