package jupiter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"WalletPnL/internal/domain/models"
	"WalletPnL/internal/domain/repository"
	"WalletPnL/internal/service/upstream"
	xhttp "WalletPnL/pkg/http"
)

const (
	StrategyName   = "jupiter"
	DefaultBaseURL = "https://lite-api.jup.ag/tokens/v1"

	maxBatch = 50
)

type tokenInfo struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
	LogoURI string `json:"logoURI"`
}

// TokenList resolves Solana mints one at a time against the Jupiter token list.
type TokenList struct {
	http    repository.HTTPGetter
	baseURL string
}

func NewTokenList(getter repository.HTTPGetter, baseURL string) *TokenList {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &TokenList{http: getter, baseURL: strings.TrimRight(baseURL, "/")}
}

func (j *TokenList) Name() string { return StrategyName }

func (j *TokenList) Supports(chain models.Chain) bool { return chain == models.ChainSolana }

func (j *TokenList) MaxBatch() int { return maxBatch }

// TryResolve treats 404 as "unknown mint". It fails only when every lookup errored.
func (j *TokenList) TryResolve(ctx context.Context, chain models.Chain, ids []string) (map[string]models.TokenMetadata, error) {
	if !j.Supports(chain) {
		return nil, nil
	}
	out := make(map[string]models.TokenMetadata, len(ids))
	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		var info tokenInfo
		err := j.http.GetJSON(ctx, fmt.Sprintf("%s/token/%s", j.baseURL, url.PathEscape(id)), nil, &info)
		if xhttp.StatusCode(err) == http.StatusNotFound {
			continue
		}
		if err != nil {
			errs = append(errs, upstream.Wrap("fetch jupiter token", err))
			continue
		}
		sym := strings.TrimSpace(info.Symbol)
		if sym == "" {
			continue
		}
		out[id] = models.TokenMetadata{Symbol: sym, ImageURL: info.LogoURI, Source: StrategyName}
	}
	if len(errs) > 0 && len(errs) == len(ids) {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
