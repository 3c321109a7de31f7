// Package yahoo fetches latest prices from the Yahoo Finance chart endpoint.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/jcnfinancial/dashboard-api/internal/clientdata"
	"github.com/jcnfinancial/dashboard-api/internal/clients"
	"github.com/jcnfinancial/dashboard-api/internal/domain"
)

const (
	userAgent  = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	maxRetries = 3
)

// Client is a Yahoo Finance chart API client
type Client struct {
	client *resty.Client
	names  *clientdata.Repository
	log    zerolog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithRetryWait sets the base wait between retries (doubled per attempt).
func WithRetryWait(d time.Duration) Option {
	return func(c *Client) {
		c.client.SetRetryWaitTime(d).SetRetryMaxWaitTime(4 * d)
	}
}

// WithNameCache persists security names so quotes keep a name when Yahoo omits it.
func WithNameCache(repo *clientdata.Repository) Option {
	return func(c *Client) {
		c.names = repo
	}
}

// NewClient creates a new Yahoo Finance client
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger, opts ...Option) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json").
		SetRetryCount(maxRetries-1).
		SetRetryWaitTime(time.Second).
		SetRetryMaxWaitTime(4 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})

	c := &Client{
		client: rc,
		log:    log.With().Str("client", "yahoo").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name identifies the provider in quotes and logs.
func (c *Client) Name() string {
	return "yahoo"
}

// Quote returns the regular market price, falling back to the last intraday close.
func (c *Client) Quote(ctx context.Context, symbol string) (*domain.Quote, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol")
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParams(map[string]string{"range": "1d", "interval": "1m"}).
		Get("/v8/finance/chart/{symbol}")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chart for %s: %w", symbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("chart request for %s returned status %d", symbol, resp.StatusCode())
	}

	var doc interface{}
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode chart for %s: %w", symbol, err)
	}

	price, ok := clients.Float(doc, "$.chart.result[0].meta.regularMarketPrice")
	if !ok || price <= 0 {
		price, ok = clients.LastNumber(doc, "$.chart.result[0].indicators.quote[0].close")
	}
	if !ok || price <= 0 {
		return nil, fmt.Errorf("%w: no price for %s", domain.ErrNoData, symbol)
	}

	q := &domain.Quote{
		Symbol:    symbol,
		Price:     price,
		Name:      c.securityName(doc, symbol),
		Source:    c.Name(),
		FetchedAt: time.Now(),
	}

	c.log.Debug().Str("symbol", symbol).Float64("price", price).Msg("Fetched quote")
	return q, nil
}

func (c *Client) securityName(doc interface{}, symbol string) string {
	name, ok := clients.String(doc, "$.chart.result[0].meta.longName")
	if !ok {
		name, ok = clients.String(doc, "$.chart.result[0].meta.shortName")
	}

	if c.names == nil {
		return name
	}
	if ok {
		if err := c.names.Store(clientdata.TableSecurityNames, symbol, name, clientdata.TTLSecurityName); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache security name")
		}
		return name
	}

	var cached string
	if found, err := c.names.Get(clientdata.TableSecurityNames, symbol, &cached); err == nil && found {
		return cached
	}
	return ""
}
