package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/treeize/pkg/pipeline"
	"github.com/matzehuels/treeize/pkg/snapshot"
	"github.com/matzehuels/treeize/pkg/viewer"
)

// demoDocument is a small processing graph: one source fanning out
// through two branches that merge again, plus a detached note.
func demoDocument() *snapshot.Document[viewer.Card] {
	cards := []viewer.Card{
		{Title: "source", Outputs: 1},
		{Title: "parse", Inputs: 1, Outputs: 2},
		{Title: "filter", Inputs: 1, Outputs: 1},
		{Title: "enrich", Inputs: 1, Outputs: 1},
		{Title: "merge", Inputs: 2, Outputs: 1},
		{Title: "sink", Inputs: 1},
		{Title: "note", Note: "not wired"},
	}
	doc := &snapshot.Document[viewer.Card]{ID: snapshot.NewID(), Name: "demo"}
	for _, c := range cards {
		doc.Nodes = append(doc.Nodes, snapshot.NodeRecord[viewer.Card]{Value: c, Open: true})
	}
	doc.Wires = []snapshot.WireRecord{
		{From: 0, Output: 0, To: 1, Input: 0},
		{From: 1, Output: 0, To: 2, Input: 0},
		{From: 1, Output: 1, To: 3, Input: 0},
		{From: 2, Output: 0, To: 4, Input: 0},
		{From: 3, Output: 0, To: 4, Input: 1},
		{From: 4, Output: 0, To: 5, Input: 0},
	}
	return doc
}

func (c *CLI) demoCommand() *cobra.Command {
	var (
		dir     string
		formats string
		flags   layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Lay out a sample graph and write it to disk",
		Long: `Lay out a built-in sample graph and write the document plus the requested
renderings to a directory. The written demo.json can be opened with 'treeize edit'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDemo(cmd.Context(), dir, parseFormats(formats), flags)
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "output directory")
	cmd.Flags().StringVarP(&formats, "format", "f", "svg,json", "output formats: svg, dot, graphviz, png, pdf, json")
	flags.register(cmd)
	return cmd
}

func (c *CLI) runDemo(ctx context.Context, dir string, formats []string, flags layoutFlags) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	opts, err := flags.options(cfg)
	if err != nil {
		return err
	}
	opts.Formats = formats

	runner, err := c.newRunner(ctx, cfg, flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Cache.Close()

	prog := newProgress(loggerFromContext(ctx))
	res, err := runner.Execute(ctx, demoDocument(), opts)
	if err != nil {
		return fmt.Errorf("lay out demo: %w", err)
	}
	prog.done(fmt.Sprintf("Laid out %d nodes", res.Stats.Nodes))

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	paths, err := writeArtifacts(filepath.Join(dir, "demo"), res.Artifacts)
	if err != nil {
		return err
	}

	printSuccess("Demo written")
	for _, p := range paths {
		printFile(p)
	}
	printStats(res.Stats, res.CacheInfo.LayoutHit)
	if _, ok := res.Artifacts[pipeline.FormatJSON]; ok {
		printNewline()
		printNextStep("Edit", "treeize edit "+filepath.Join(dir, "demo"+formatExt(pipeline.FormatJSON)))
	}
	return nil
}

// writeArtifacts writes each artifact to base plus its format extension,
// in sorted format order.
func writeArtifacts(base string, artifacts map[string][]byte) ([]string, error) {
	var paths []string
	for _, format := range sortedKeys(artifacts) {
		path := base + formatExt(format)
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
