// Package eodhd is a fallback quote provider backed by the EODHD real-time API.
package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/jcnfinancial/dashboard-api/internal/clients"
	"github.com/jcnfinancial/dashboard-api/internal/domain"
)

// Client for eodhd.com real-time quotes
type Client struct {
	client *resty.Client
	apiKey string
	log    zerolog.Logger
}

// NewClient returns nil when apiKey is empty so callers can skip the provider.
func NewClient(baseURL, apiKey string, timeout time.Duration, log zerolog.Logger) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		client: resty.New().SetBaseURL(baseURL).SetTimeout(timeout),
		apiKey: apiKey,
		log:    log.With().Str("client", "eodhd").Logger(),
	}
}

func (c *Client) Name() string {
	return "eodhd"
}

// Quote reads the delayed last trade, falling back to the previous close.
func (c *Client) Quote(ctx context.Context, symbol string) (*domain.Quote, error) {
	dataSymbol := domain.DataSymbol(symbol)
	if dataSymbol == "" {
		return nil, fmt.Errorf("empty symbol")
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("symbol", dataSymbol).
		SetQueryParams(map[string]string{"api_token": c.apiKey, "fmt": "json"}).
		Get("/api/real-time/{symbol}")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch real-time quote for %s: %w", dataSymbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("real-time request for %s returned status %d", dataSymbol, resp.StatusCode())
	}

	var doc interface{}
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode real-time quote for %s: %w", dataSymbol, err)
	}

	price, ok := clients.Float(doc, "$.close")
	if !ok || price <= 0 {
		price, ok = clients.Float(doc, "$.previousClose")
	}
	if !ok || price <= 0 {
		return nil, fmt.Errorf("%w: no price for %s", domain.ErrNoData, dataSymbol)
	}

	return &domain.Quote{
		Symbol:    domain.NormalizeSymbol(symbol),
		Price:     price,
		Source:    c.Name(),
		FetchedAt: time.Now(),
	}, nil
}
