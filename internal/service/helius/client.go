package helius

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
	ProviderName = "helius"

	DefaultBaseURL = "https://api.helius.xyz"
	DefaultRPCURL  = "https://mainnet.helius-rpc.com"

	defaultPageSize  = 100
	defaultMaxPages  = 50
	defaultPageDelay = 500 * time.Millisecond
)

// Option configures Client.
type Option func(*Client)

// Client reads wallet history from the enhanced transactions API.
type Client struct {
	http     repository.HTTPGetter
	apiKey   string
	baseURL  string
	pageSize int
	paging   repository.PagingPolicy
}

// NewClient creates a Helius activity provider. An empty apiKey leaves it unconfigured.
func NewClient(getter repository.HTTPGetter, apiKey string, opts ...Option) *Client {
	c := &Client{
		http:     getter,
		apiKey:   apiKey,
		baseURL:  DefaultBaseURL,
		pageSize: defaultPageSize,
		paging:   repository.PagingPolicy{MaxPages: defaultMaxPages, PageDelay: defaultPageDelay},
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

// WithPageSize caps the page size at 100.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 && n <= defaultPageSize {
			c.pageSize = n
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

func (c *Client) Supports(chain models.Chain) bool { return chain == models.ChainSolana }

func (c *Client) Paging() repository.PagingPolicy { return c.paging }

// FetchPage returns one page, newest first. The cursor is the last signature
// seen; an empty page ends pagination.
func (c *Client) FetchPage(ctx context.Context, wallet string, chain models.Chain, cursor string) (models.ActivityPage, error) {
	if !c.Supports(chain) {
		return models.ActivityPage{}, fmt.Errorf("helius does not serve chain %s", chain)
	}

	params := url.Values{}
	params.Set("api-key", c.apiKey)
	params.Add("type", "SWAP")
	params.Add("type", "TRANSFER")
	params.Set("limit", strconv.Itoa(c.pageSize))
	if cursor != "" {
		params.Set("before", cursor)
	}
	endpoint := fmt.Sprintf("%s/v0/addresses/%s/transactions?%s", c.baseURL, url.PathEscape(wallet), params.Encode())

	var txs []EnhancedTransaction
	if err := c.http.GetJSON(ctx, endpoint, nil, &txs); err != nil {
		return models.ActivityPage{}, upstream.Wrap("fetch helius transactions", err)
	}

	page := models.ActivityPage{RawCount: len(txs)}
	for _, tx := range txs {
		if nt, ok := Decode(wallet, tx); ok {
			page.Transfers = append(page.Transfers, nt)
		}
	}
	if len(txs) > 0 {
		page.NextCursor = txs[len(txs)-1].Signature
	}
	return page, nil
}
