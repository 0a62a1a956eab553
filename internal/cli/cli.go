// Package cli implements the treeize command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/treeize/internal/config"
	"github.com/matzehuels/treeize/pkg/buildinfo"
	"github.com/matzehuels/treeize/pkg/cache"
	"github.com/matzehuels/treeize/pkg/pipeline"
	"github.com/matzehuels/treeize/pkg/snapshot"
	"github.com/matzehuels/treeize/pkg/viewer"
	"github.com/matzehuels/treeize/pkg/wire"
)

const appName = "treeize"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath overrides the config file location. Empty means
	// config.Path().
	ConfigPath string

	cfg *config.Config
}

// New creates a CLI writing logs to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Treeize lays out and edits node graphs as trees",
		Long: `Treeize is a node-graph engine: nodes with numbered input and output pins,
wires between them, tree layout, and a terminal editor.

Documents are JSON files (or entries in the document store) holding nodes,
their positions and the wires between them.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.Logger.GetLevel() <= log.DebugLevel {
				installLogHooks(c.Logger)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default: "+config.Path()+")")

	root.AddCommand(c.demoCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.docsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig loads the configuration once per process.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner over the configured cache.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config, noCache bool) (*pipeline.Runner[viewer.Card], error) {
	ch, err := c.newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if cfg.Cache.Prefix != "" {
		keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), cfg.Cache.Prefix)
	}
	return pipeline.NewRunner[viewer.Card](ch, keyer, viewer.Cards{}, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{Addr: cfg.Cache.RedisAddr})
		if err != nil {
			c.Logger.Warn("redis cache unavailable, caching disabled", "addr", cfg.Cache.RedisAddr, "err", err)
			return cache.NewNullCache(), nil
		}
		return rc, nil
	default:
		dir := cfg.Cache.Dir
		if dir == "" {
			dir = config.CacheDir()
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			c.Logger.Warn("file cache unavailable, caching disabled", "dir", dir, "err", err)
			return cache.NewNullCache(), nil
		}
		return fc, nil
	}
}

// newStore opens the configured document store.
func (c *CLI) newStore(ctx context.Context, cfg *config.Config) (snapshot.Store[viewer.Card], error) {
	if cfg.Store.Backend == config.StoreMongo {
		return snapshot.NewMongoStore[viewer.Card](ctx, snapshot.MongoOptions{
			URI:        cfg.Store.MongoURI,
			Database:   cfg.Store.Database,
			Collection: cfg.Store.Collection,
		})
	}
	dir := cfg.Store.Dir
	if dir == "" {
		dir = filepath.Join(config.Dir(), "documents")
	}
	return snapshot.NewFileStore[viewer.Card](dir)
}

// =============================================================================
// Options Helpers
// =============================================================================

// layoutFlags are the layout and wire overrides shared by several commands.
type layoutFlags struct {
	axis    string
	kind    string
	hspace  float64
	vspace  float64
	noCache bool
	refresh bool
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.axis, "axis", "", "wire axis: vertical, horizontal (default from config)")
	cmd.Flags().StringVar(&f.kind, "wire", "", "wire kind: bezier, line (default from config)")
	cmd.Flags().Float64Var(&f.hspace, "hspace", 0, "horizontal spacing between subtrees")
	cmd.Flags().Float64Var(&f.vspace, "vspace", 0, "vertical spacing between tree levels")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute even when cached")
}

// options builds pipeline options from the config and the flags.
func (f *layoutFlags) options(cfg *config.Config) (pipeline.Options, error) {
	opts := pipeline.Options{
		Layout:  cfg.LayoutConfig(),
		Wire:    cfg.WireStyle(),
		Refresh: f.refresh,
		TTL:     cfg.Cache.TTL.Duration,
	}
	if f.hspace > 0 {
		opts.Layout.HorizontalSpacing = f.hspace
	}
	if f.vspace > 0 {
		opts.Layout.VerticalSpacing = f.vspace
	}
	if f.axis != "" {
		a, ok := wire.ParseAxis(f.axis)
		if !ok {
			return opts, fmt.Errorf("unknown axis %q", f.axis)
		}
		opts.Wire.Axis = a
		opts.Layout.Axis = a
	}
	if f.kind != "" {
		k, ok := wire.ParseKind(f.kind)
		if !ok {
			return opts, fmt.Errorf("unknown wire kind %q", f.kind)
		}
		opts.Wire.Kind = k
	}
	return opts, nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// outputBase strips the extension from input, or returns output when set.
func outputBase(input, output string) string {
	if output != "" {
		return strings.TrimSuffix(output, filepath.Ext(output))
	}
	return strings.TrimSuffix(input, filepath.Ext(input))
}

// formatExt is the file extension written for format.
func formatExt(format string) string {
	switch format {
	case pipeline.FormatGraphviz:
		return ".graphviz.svg"
	case pipeline.FormatJSON:
		return ".layout.json"
	default:
		return "." + format
	}
}
