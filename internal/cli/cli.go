// Package cli implements the jcnctl subcommands.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"

	"github.com/jcnfinancial/dashboard-api/internal/analytics"
	"github.com/jcnfinancial/dashboard-api/internal/config"
	"github.com/jcnfinancial/dashboard-api/internal/domain"
)

// App carries what every subcommand needs.
type App struct {
	Out   io.Writer
	Err   io.Writer
	Log   zerolog.Logger
	Plain bool // print raw markdown instead of rendering it

	// LoadConfig defaults to config.Load.
	LoadConfig func() (*config.Config, error)
	// OpenAnalytics defaults to analytics.Open.
	OpenAnalytics func(cfg config.AnalyticsConfig, log zerolog.Logger) (*analytics.Source, error)
	// QuoteProvider overrides the configured quote chain.
	QuoteProvider domain.QuoteProvider
}

// Register the subcommands.
func Register(c *subcommands.Commander, app *App) {
	c.Register(&cacheCmd{app: app}, "cache")
	c.Register(&scoresCmd{app: app}, "analytics")
	c.Register(&pricesCmd{app: app}, "quotes")
}

func (a *App) config() (*config.Config, error) {
	if a.LoadConfig != nil {
		return a.LoadConfig()
	}
	return config.Load()
}

func (a *App) openAnalytics(cfg *config.Config) (*analytics.Source, error) {
	open := a.OpenAnalytics
	if open == nil {
		open = analytics.Open
	}
	return open(cfg.Analytics, a.Log)
}

func (a *App) stderr() io.Writer {
	if a.Err != nil {
		return a.Err
	}
	return os.Stderr
}

// render prints markdown, styled for the terminal unless Plain is set.
func (a *App) render(md string) error {
	if a.Plain {
		_, err := io.WriteString(a.Out, md)
		return err
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err = io.WriteString(a.Out, out)
	return err
}

func (a *App) fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(a.stderr(), "Error: %v\n", err)
	return subcommands.ExitFailure
}

func (a *App) usage(cmd subcommands.Command) subcommands.ExitStatus {
	fmt.Fprint(a.stderr(), cmd.Usage())
	return subcommands.ExitUsageError
}
