package covalent

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"WalletPnL/internal/domain/models"
	"WalletPnL/internal/domain/repository"
	"WalletPnL/internal/service/upstream"
)

const (
	ProviderName   = "covalent"
	DefaultBaseURL = "https://api.covalenthq.com"

	defaultMaxPages = 20
)

// chainNames maps chains onto Covalent's path segment.
var chainNames = map[models.Chain]string{
	models.ChainSolana:   "solana-mainnet",
	models.ChainEthereum: "eth-mainnet",
	models.ChainBSC:      "bsc-mainnet",
	models.ChainBase:     "base-mainnet",
}

type Option func(*Client)

// Client pages through transactions_v3. The cursor is a page number.
type Client struct {
	http    repository.HTTPGetter
	apiKey  string
	baseURL string
	paging  repository.PagingPolicy
}

func NewClient(getter repository.HTTPGetter, apiKey string, opts ...Option) *Client {
	c := &Client{
		http:    getter,
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		paging:  repository.PagingPolicy{MaxPages: defaultMaxPages},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithPaging(maxPages int, delay time.Duration) Option {
	return func(c *Client) {
		if maxPages > 0 {
			c.paging.MaxPages = maxPages
		}
		if delay >= 0 {
			c.paging.PageDelay = delay
		}
	}
}

func (c *Client) Name() string { return ProviderName }

func (c *Client) Configured() bool { return c.apiKey != "" }

func (c *Client) Supports(chain models.Chain) bool {
	_, ok := chainNames[chain]
	return ok
}

func (c *Client) Paging() repository.PagingPolicy { return c.paging }

func (c *Client) FetchPage(ctx context.Context, wallet string, chain models.Chain, cursor string) (models.ActivityPage, error) {
	name, ok := chainNames[chain]
	if !ok {
		return models.ActivityPage{}, fmt.Errorf("covalent does not serve chain %s", chain)
	}
	pageNum := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 {
			return models.ActivityPage{}, fmt.Errorf("invalid covalent cursor %q", cursor)
		}
		pageNum = n
	}

	params := url.Values{}
	params.Set("no-logs", "false")
	params.Set("key", c.apiKey)
	endpoint := fmt.Sprintf("%s/v1/%s/address/%s/transactions_v3/page/%d/?%s",
		c.baseURL, name, url.PathEscape(wallet), pageNum, params.Encode())

	var resp transactionsResponse
	if err := c.http.GetJSON(ctx, endpoint, nil, &resp); err != nil {
		return models.ActivityPage{}, upstream.Wrap("fetch covalent transactions", err)
	}
	if resp.Error {
		return models.ActivityPage{}, fmt.Errorf("fetch covalent transactions: %d %s", resp.ErrorCode, resp.ErrorMessage)
	}
	if resp.Data == nil {
		return models.ActivityPage{}, nil
	}

	dec := NewDecoder(chain)
	page := models.ActivityPage{RawCount: len(resp.Data.Items)}
	for _, tx := range resp.Data.Items {
		if nt, ok := dec.Decode(wallet, tx); ok {
			page.Transfers = append(page.Transfers, nt)
		}
	}

	more := resp.Data.Links != nil && resp.Data.Links.Next != ""
	if resp.Data.Pagination != nil && resp.Data.Pagination.HasMore {
		more = true
	}
	if more && len(resp.Data.Items) > 0 {
		page.NextCursor = strconv.Itoa(pageNum + 1)
	}
	return page, nil
}
