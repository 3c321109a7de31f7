package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"github.com/jcnfinancial/dashboard-api/internal/analytics"
	"github.com/jcnfinancial/dashboard-api/internal/config"
	"github.com/jcnfinancial/dashboard-api/internal/domain"
	"github.com/jcnfinancial/dashboard-api/internal/modules/fundamentals"
)

var scoreTables = []string{analytics.TableScores, analytics.TableMomentumScores}

type scoresCmd struct {
	app *App
}

func (*scoresCmd) Name() string     { return "scores" }
func (*scoresCmd) Synopsis() string { return "inspect the OBQ score tables" }
func (*scoresCmd) Usage() string {
	return `jcnctl scores check [symbols...]
jcnctl scores describe

  check:    row count and latest date per symbol in each score table.
            Defaults to the symbols of the default portfolio.
  describe: the score columns of each table.
`
}

func (c *scoresCmd) SetFlags(f *flag.FlagSet) {}

func (c *scoresCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) == 0 || (args[0] != "check" && args[0] != "describe") {
		return c.app.usage(c)
	}

	cfg, err := c.app.config()
	if err != nil {
		return c.app.fail(err)
	}
	source, err := c.app.openAnalytics(cfg)
	if errors.Is(err, domain.ErrNotConfigured) {
		return c.app.fail(fmt.Errorf("analytics database not configured: set MOTHERDUCK_TOKEN or ANALYTICS_DSN"))
	}
	if err != nil {
		return c.app.fail(err)
	}
	defer source.Close()

	var md string
	if args[0] == "check" {
		symbols := domain.NormalizeSymbols(args[1:])
		if len(symbols) == 0 {
			portfolio, err := config.LoadPortfolio(cfg.PortfolioFile)
			if err != nil {
				return c.app.fail(err)
			}
			symbols = portfolio.Symbols()
		}
		if len(symbols) == 0 {
			return c.app.fail(errors.New("no symbols given and no default portfolio"))
		}
		md = checkScores(ctx, source, symbols)
	} else {
		md = describeScores(ctx, source)
	}

	if err := c.app.render(md); err != nil {
		return c.app.fail(err)
	}
	return subcommands.ExitSuccess
}

// checkScores reports per-table failures inline so one broken table does not hide the other.
func checkScores(ctx context.Context, source *analytics.Source, symbols []string) string {
	var b strings.Builder
	b.WriteString("# Score coverage\n")
	for _, table := range scoreTables {
		fmt.Fprintf(&b, "\n## %s\n\n", table)
		rows, err := source.ScoreRows(ctx, table, symbols)
		if err != nil {
			fmt.Fprintf(&b, "Query failed: `%v`\n", err)
			continue
		}

		b.WriteString("| Symbol | Rows | Latest |\n")
		b.WriteString("|---|---:|---|\n")
		for _, s := range fundamentals.Summarize(rows, symbols) {
			latest := s.Latest
			if latest == "" {
				latest = "n/a"
			}
			fmt.Fprintf(&b, "| %s | %d | %s |\n", s.Symbol, s.Rows, latest)
		}
	}
	return b.String()
}

func describeScores(ctx context.Context, source *analytics.Source) string {
	var b strings.Builder
	b.WriteString("# Score columns\n")
	for _, table := range scoreTables {
		fmt.Fprintf(&b, "\n## %s\n\n", table)
		columns, err := source.DescribeColumns(ctx, table)
		if err != nil {
			fmt.Fprintf(&b, "Query failed: `%v`\n", err)
			continue
		}
		cols := fundamentals.DataColumns(columns)
		if len(cols) == 0 {
			b.WriteString("No score columns.\n")
			continue
		}
		for _, col := range cols {
			fmt.Fprintf(&b, "- `%s`\n", col)
		}
	}
	return b.String()
}
