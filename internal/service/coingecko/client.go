package coingecko

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"WalletPnL/internal/domain/models"
	"WalletPnL/internal/domain/repository"
	"WalletPnL/internal/service/upstream"
)

const (
	SourceName     = "coingecko"
	DefaultBaseURL = "https://api.coingecko.com"

	defaultWindowDays  = 90
	defaultConcurrency = 3
)

type Option func(*Client)

// Client reads native/USD history from market_chart/range.
type Client struct {
	http        repository.HTTPGetter
	apiKey      string
	baseURL     string
	window      time.Duration
	concurrency int
	metrics     repository.Metrics
}

func NewClient(getter repository.HTTPGetter, apiKey string, opts ...Option) *Client {
	c := &Client{
		http:        getter,
		apiKey:      apiKey,
		baseURL:     DefaultBaseURL,
		window:      defaultWindowDays * 24 * time.Hour,
		concurrency: defaultConcurrency,
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

// WithWindowDays sets the longest range requested in one call.
func WithWindowDays(days int) Option {
	return func(c *Client) {
		if days > 0 {
			c.window = time.Duration(days) * 24 * time.Hour
		}
	}
}

func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

func WithMetrics(m repository.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func (c *Client) Name() string { return SourceName }

type marketChart struct {
	Prices [][2]float64 `json:"prices"`
}

type window struct {
	from, to time.Time
}

// History fetches [from, to] in windows no longer than the configured span.
// A failed window is dropped; the call fails only when every window fails.
func (c *Client) History(ctx context.Context, chain models.Chain, from, to time.Time) ([]models.PricePoint, error) {
	cfg, ok := models.ConfigFor(chain)
	if !ok || cfg.CoinGeckoID == "" {
		return nil, fmt.Errorf("no price id for chain %s", chain)
	}
	if to.Before(from) {
		from, to = to, from
	}
	// A single trade still needs a range around it.
	if to.Sub(from) < time.Hour {
		from, to = from.Add(-time.Hour), to.Add(time.Hour)
	}

	windows := split(from, to, c.window)
	var (
		mu     sync.Mutex
		points []models.PricePoint
		errs   []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, w := range windows {
		g.Go(func() error {
			got, err := c.fetchWindow(gctx, cfg.CoinGeckoID, w)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				c.observe("error")
				errs = append(errs, err)
				return nil
			}
			c.observe("ok")
			points = append(points, got...)
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) == len(windows) {
		return nil, fmt.Errorf("fetch price history: %w", errors.Join(errs...))
	}
	return mergePoints(points), nil
}

func (c *Client) fetchWindow(ctx context.Context, id string, w window) ([]models.PricePoint, error) {
	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("from", strconv.FormatInt(w.from.Unix(), 10))
	params.Set("to", strconv.FormatInt(w.to.Unix(), 10))
	if c.apiKey != "" {
		params.Set("x_cg_demo_api_key", c.apiKey)
	}
	endpoint := fmt.Sprintf("%s/api/v3/coins/%s/market_chart/range?%s", c.baseURL, url.PathEscape(id), params.Encode())

	var chart marketChart
	if err := c.http.GetJSON(ctx, endpoint, nil, &chart); err != nil {
		return nil, upstream.Wrap("fetch market chart", err)
	}
	out := make([]models.PricePoint, 0, len(chart.Prices))
	for _, p := range chart.Prices {
		if p[1] <= 0 {
			continue
		}
		out = append(out, models.PricePoint{Timestamp: time.UnixMilli(int64(p[0])).UTC(), PriceUSD: p[1]})
	}
	return out, nil
}

func (c *Client) observe(outcome string) {
	if c.metrics != nil {
		c.metrics.PriceLookup(SourceName, outcome)
	}
}

func split(from, to time.Time, span time.Duration) []window {
	var out []window
	for start := from; start.Before(to); start = start.Add(span) {
		end := start.Add(span)
		if end.After(to) {
			end = to
		}
		out = append(out, window{from: start, to: end})
	}
	if len(out) == 0 {
		out = append(out, window{from: from, to: to})
	}
	return out
}

// mergePoints sorts ascending and drops duplicate timestamps from overlapping windows.
func mergePoints(points []models.PricePoint) []models.PricePoint {
	sort.SliceStable(points, func(i, j int) bool { return points[i].Timestamp.Before(points[j].Timestamp) })
	out := points[:0]
	for _, p := range points {
		if n := len(out); n > 0 && out[n-1].Timestamp.Equal(p.Timestamp) {
			continue
		}
		out = append(out, p)
	}
	return out
}
