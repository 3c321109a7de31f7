package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"github.com/jcnfinancial/dashboard-api/internal/cache"
)

type cacheCmd struct {
	app *App
}

func (*cacheCmd) Name() string     { return "cache" }
func (*cacheCmd) Synopsis() string { return "inspect or clear the daily file cache" }
func (*cacheCmd) Usage() string {
	return `jcnctl cache list
jcnctl cache info <key>
jcnctl cache clear [key]

  Lists cache files, shows one entry, or removes entries.
  "clear" without a key removes every cache file.
`
}

func (c *cacheCmd) SetFlags(f *flag.FlagSet) {}

func (c *cacheCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) == 0 {
		return c.app.usage(c)
	}

	cfg, err := c.app.config()
	if err != nil {
		return c.app.fail(err)
	}
	store, err := cache.NewStore(cfg.CacheDir, c.app.Log)
	if err != nil {
		return c.app.fail(err)
	}

	var md string
	switch args[0] {
	case "list":
		infos, err := store.List()
		if err != nil {
			return c.app.fail(err)
		}
		md = cacheListMarkdown(store.Dir(), infos)
	case "info":
		if len(args) != 2 {
			return c.app.usage(c)
		}
		info, err := store.Info(args[1])
		if err != nil {
			return c.app.fail(err)
		}
		if info == nil {
			return c.app.fail(fmt.Errorf("no cache entry for %s", args[1]))
		}
		md = cacheInfoMarkdown(info)
	case "clear":
		key := ""
		if len(args) > 1 {
			key = args[1]
		}
		n, err := store.Clear(key)
		if err != nil {
			return c.app.fail(err)
		}
		md = fmt.Sprintf("Removed **%d** cache files.\n", n)
	default:
		return c.app.usage(c)
	}

	if err := c.app.render(md); err != nil {
		return c.app.fail(err)
	}
	return subcommands.ExitSuccess
}

func cacheListMarkdown(dir string, infos []cache.Info) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Cache `%s`\n\n", dir)
	if len(infos) == 0 {
		b.WriteString("No cache files.\n")
		return b.String()
	}

	b.WriteString("| Key | Date | Valid | Size |\n")
	b.WriteString("|---|---|---|---:|\n")
	for _, info := range infos {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			info.ModuleName, info.CacheDate, yesNo(info.IsValid), formatBytes(info.FileSizeBytes))
	}
	fmt.Fprintf(&b, "\n%d files\n", len(infos))
	return b.String()
}

func cacheInfoMarkdown(info *cache.Info) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", info.ModuleName)
	fmt.Fprintf(&b, "- **Cache date:** %s\n", info.CacheDate)
	fmt.Fprintf(&b, "- **Loaded at:** %s\n", info.LoadedAt)
	fmt.Fprintf(&b, "- **Expires at:** %s\n", info.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- **Valid:** %s\n", yesNo(info.IsValid))
	fmt.Fprintf(&b, "- **File:** `%s` (%s)\n", info.FilePath, formatBytes(info.FileSizeBytes))
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
