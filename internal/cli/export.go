package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	terrors "github.com/matzehuels/treeize/pkg/errors"
	"github.com/matzehuels/treeize/pkg/observability"
	"github.com/matzehuels/treeize/pkg/pipeline"
	"github.com/matzehuels/treeize/pkg/snapshot"
	"github.com/matzehuels/treeize/pkg/viewer"
)

type exportFlags struct {
	output   string
	formats  string
	relayout bool
	detailed bool
	scale    float64
	layout   layoutFlags
}

// exportCommand renders a document to SVG, DOT, PNG, PDF or JSON.
func (c *CLI) exportCommand() *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export [document.json]",
		Short: "Render a document to SVG, DOT, PNG or PDF",
		Long: `Render a document at its stored positions.

Formats:
  svg        wires drawn with the configured curve style
  dot        Graphviz source with pinned node positions
  graphviz   SVG rendered in-process by Graphviz from the dot output
  png, pdf   converted from svg with rsvg-convert
  json       the document itself

With --layout the document is laid out first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd.Context(), args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output base path (default: input without extension)")
	cmd.Flags().StringVarP(&flags.formats, "format", "f", "svg", "comma-separated output formats")
	cmd.Flags().BoolVar(&flags.relayout, "layout", false, "lay the document out before rendering")
	cmd.Flags().BoolVar(&flags.detailed, "detailed", false, "label pins in dot and graphviz output")
	cmd.Flags().Float64Var(&flags.scale, "scale", pipeline.DefaultPNGScale, "PNG resolution multiplier")
	flags.layout.register(cmd)
	return cmd
}

func (c *CLI) runExport(ctx context.Context, input string, flags exportFlags) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	opts, err := flags.layout.options(cfg)
	if err != nil {
		return err
	}
	opts.Formats = parseFormats(flags.formats)
	opts.Detailed = flags.detailed
	opts.Scale = flags.scale

	base := outputBase(input, flags.output)
	if err := terrors.ValidatePath(base); err != nil {
		return err
	}

	doc, err := snapshot.Import[viewer.Card](input)
	if err != nil {
		return fmt.Errorf("load %s: %w", input, err)
	}

	var artifacts map[string][]byte
	if flags.relayout {
		runner, err := c.newRunner(ctx, cfg, flags.layout.noCache)
		if err != nil {
			return err
		}
		defer runner.Cache.Close()
		res, err := runner.Execute(ctx, doc, opts)
		if err != nil {
			return err
		}
		artifacts = res.Artifacts
		printStats(res.Stats, res.CacheInfo.LayoutHit)
	} else if artifacts, err = renderInPlace(ctx, doc, opts); err != nil {
		return err
	}

	paths, err := writeArtifacts(base, artifacts)
	if err != nil {
		return err
	}
	printSuccess("Exported %d file(s)", len(paths))
	for _, p := range paths {
		printFile(p)
	}
	return nil
}

// renderInPlace renders doc at its stored positions without caching.
func renderInPlace(ctx context.Context, doc *snapshot.Document[viewer.Card], opts pipeline.Options) (map[string][]byte, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	g, _, err := snapshot.Restore(doc)
	if err != nil {
		return nil, err
	}
	v := viewer.Cards{}
	out := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		start := time.Now()
		data, err := pipeline.Render(ctx, g, v, doc, format, opts)
		observability.Engine().OnExport(ctx, format, len(data), time.Since(start), err)
		if err != nil {
			return nil, err
		}
		out[format] = data
	}
	return out, nil
}
