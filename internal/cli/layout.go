package cli

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	terrors "github.com/matzehuels/treeize/pkg/errors"
	"github.com/matzehuels/treeize/pkg/pipeline"
	"github.com/matzehuels/treeize/pkg/snapshot"
	"github.com/matzehuels/treeize/pkg/viewer"
)

// layoutCommand lays out a document file and writes the positioned copy.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output string
		save   bool
		flags  layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [document.json]",
		Short: "Compute tree positions for a document",
		Long: `Compute tree positions for a document.

Nodes wired from an output to an input become parent and child. Each input
keeps only its first incoming wire as a tree edge; roots are laid out left
to right. Nodes no root reaches are stacked at the start position.

The output is a document with the same nodes and wires and new positions.
Layouts are cached by the document's structure, so repositioning nodes by
hand and laying out again is a cache hit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], output, save, flags)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&save, "save", false, "also store the result in the document store")
	flags.register(cmd)
	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input, output string, save bool, flags layoutFlags) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	opts, err := flags.options(cfg)
	if err != nil {
		return err
	}

	doc, err := snapshot.Import[viewer.Card](input)
	if err != nil {
		return fmt.Errorf("load %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, cfg, flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Cache.Close()

	spinner := newSpinner(ctx, "Computing layout...")
	spinner.Start()
	res, err := runner.Execute(ctx, doc, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()
	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		outputPath = outputBase(input, "") + formatExt(pipeline.FormatJSON)
	}
	if err := terrors.ValidatePath(outputPath); err != nil {
		return err
	}
	if err := snapshot.Export(res.Document, outputPath); err != nil {
		return fmt.Errorf("write %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(res.Stats, res.CacheInfo.LayoutHit)

	if save {
		if err := c.saveDocument(ctx, cfg, res.Document); err != nil {
			return err
		}
	}
	printNewline()
	printNextStep("Render", "treeize export "+outputPath)
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
