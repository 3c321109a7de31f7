// Package quotes combines quote providers into one ordered fallback chain.
package quotes

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jcnfinancial/dashboard-api/internal/domain"
)

// Chain asks each provider in turn and returns the first positive price.
type Chain struct {
	providers []domain.QuoteProvider
	log       zerolog.Logger
}

// NewChain skips nil providers.
func NewChain(log zerolog.Logger, providers ...domain.QuoteProvider) *Chain {
	c := &Chain{log: log.With().Str("component", "quote_chain").Logger()}
	for _, p := range providers {
		if p != nil {
			c.providers = append(c.providers, p)
		}
	}
	return c
}

// Name lists the providers in order.
func (c *Chain) Name() string {
	name := "chain"
	for i, p := range c.providers {
		if i == 0 {
			name += ":"
		} else {
			name += ","
		}
		name += p.Name()
	}
	return name
}

// Providers returns the number of configured providers.
func (c *Chain) Providers() int {
	return len(c.providers)
}

func (c *Chain) Quote(ctx context.Context, symbol string) (*domain.Quote, error) {
	if len(c.providers) == 0 {
		return nil, domain.ErrNotConfigured
	}

	var errs []error
	for _, p := range c.providers {
		q, err := p.Quote(ctx, symbol)
		if err == nil && q != nil && q.Price > 0 {
			return q, nil
		}
		if err == nil {
			err = fmt.Errorf("%w: %s returned no price", domain.ErrNoData, p.Name())
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))

		if ctx.Err() != nil {
			break
		}
		c.log.Debug().Err(err).Str("provider", p.Name()).Str("symbol", symbol).Msg("Provider failed, trying next")
	}
	return nil, errors.Join(errs...)
}
