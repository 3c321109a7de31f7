package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/jcnfinancial/dashboard-api/internal/clients/eodhd"
	"github.com/jcnfinancial/dashboard-api/internal/clients/yahoo"
	"github.com/jcnfinancial/dashboard-api/internal/config"
	"github.com/jcnfinancial/dashboard-api/internal/domain"
	"github.com/jcnfinancial/dashboard-api/internal/quotes"
	"github.com/jcnfinancial/dashboard-api/internal/workers"
)

type pricesCmd struct {
	app *App
}

func (*pricesCmd) Name() string     { return "prices" }
func (*pricesCmd) Synopsis() string { return "fetch current quotes through the provider chain" }
func (*pricesCmd) Usage() string {
	return `jcnctl prices <symbols...>

  Fetches the current price of each symbol (Yahoo, then EODHD when EODHD_API_KEY is set).
`
}

func (c *pricesCmd) SetFlags(f *flag.FlagSet) {}

func (c *pricesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	symbols := domain.NormalizeSymbols(f.Args())
	if len(symbols) == 0 {
		return c.app.usage(c)
	}

	cfg, err := c.app.config()
	if err != nil {
		return c.app.fail(err)
	}

	provider := c.app.QuoteProvider
	if provider == nil {
		provider = c.chain(cfg)
	}

	pool := workers.NewWorkerPool(cfg.WorkerCount)
	results := workers.Run(ctx, pool, symbols, provider.Quote)

	if err := c.app.render(quotesMarkdown(symbols, results)); err != nil {
		return c.app.fail(err)
	}
	return subcommands.ExitSuccess
}

func (c *pricesCmd) chain(cfg *config.Config) *quotes.Chain {
	providers := []domain.QuoteProvider{
		yahoo.NewClient(cfg.Quotes.YahooBaseURL, cfg.Quotes.Timeout, c.app.Log),
	}
	if client := eodhd.NewClient(cfg.Quotes.EODHDBaseURL, cfg.Quotes.EODHDAPIKey, cfg.Quotes.Timeout, c.app.Log); client != nil {
		providers = append(providers, client)
	}
	return quotes.NewChain(c.app.Log, providers...)
}

func quotesMarkdown(symbols []string, results []workers.Result[*domain.Quote]) string {
	var b strings.Builder
	b.WriteString("# Current prices\n\n")
	b.WriteString("| Symbol | Price | Source | Name |\n")
	b.WriteString("|---|---:|---|---|\n")

	var failed []string
	for i, sym := range symbols {
		r := results[i]
		if r.Err != nil || r.Value == nil {
			fmt.Fprintf(&b, "| %s | n/a | | |\n", sym)
			failed = append(failed, fmt.Sprintf("- **%s**: %v", sym, r.Err))
			continue
		}
		price := decimal.NewFromFloat(r.Value.Price).StringFixed(2)
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", sym, price, r.Value.Source, r.Value.Name)
	}

	if len(failed) > 0 {
		b.WriteString("\n## Failures\n\n")
		b.WriteString(strings.Join(failed, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}
