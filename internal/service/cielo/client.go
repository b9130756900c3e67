package cielo

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
	ProviderName   = "cielo"
	DefaultBaseURL = "https://feed-api.cielo.finance"

	defaultPageSize = 100
	defaultMaxPages = 20
)

type Option func(*Client)

// Client reads the Cielo wallet feed.
type Client struct {
	http     repository.HTTPGetter
	apiKey   string
	baseURL  string
	pageSize int
	paging   repository.PagingPolicy
}

func NewClient(getter repository.HTTPGetter, apiKey string, opts ...Option) *Client {
	c := &Client{
		http:     getter,
		apiKey:   apiKey,
		baseURL:  DefaultBaseURL,
		pageSize: defaultPageSize,
		paging:   repository.PagingPolicy{MaxPages: defaultMaxPages},
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

// FetchPage reads one feed page. A short page or a missing cursor is the last page.
func (c *Client) FetchPage(ctx context.Context, wallet string, chain models.Chain, cursor string) (models.ActivityPage, error) {
	if !c.Supports(chain) {
		return models.ActivityPage{}, fmt.Errorf("cielo does not serve chain %s", chain)
	}

	params := url.Values{}
	params.Set("wallet", wallet)
	params.Set("chain", "solana")
	params.Set("limit", strconv.Itoa(c.pageSize))
	if cursor != "" {
		params.Set("starting_point", cursor)
	}
	endpoint := c.baseURL + "/api/v1/feed?" + params.Encode()

	var resp feedResponse
	if err := c.http.GetJSON(ctx, endpoint, map[string]string{"X-API-KEY": c.apiKey}, &resp); err != nil {
		return models.ActivityPage{}, upstream.Wrap("fetch cielo feed", err)
	}
	if resp.Status != "" && !strings.EqualFold(resp.Status, "ok") && len(resp.Data.Items) == 0 {
		return models.ActivityPage{}, fmt.Errorf("fetch cielo feed: status %q", resp.Status)
	}

	items := resp.Data.Items
	page := models.ActivityPage{RawCount: len(items)}
	for _, item := range items {
		if nt, ok := Decode(wallet, item); ok {
			page.Transfers = append(page.Transfers, nt)
		}
	}
	if len(items) >= c.pageSize {
		page.NextCursor = resp.nextCursor()
	}
	return page, nil
}
