package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/treeize/internal/config"
	terrors "github.com/matzehuels/treeize/pkg/errors"
	"github.com/matzehuels/treeize/pkg/snapshot"
	"github.com/matzehuels/treeize/pkg/viewer"
)

// docsCommand manages the document store.
func (c *CLI) docsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "docs",
		Aliases: []string{"documents"},
		Short:   "Manage stored documents",
		Long: `Manage documents in the configured store: a directory of JSON files
(the default) or a MongoDB collection ([store] backend = "mongo").`,
	}
	cmd.AddCommand(c.docsListCommand())
	cmd.AddCommand(c.docsPutCommand())
	cmd.AddCommand(c.docsGetCommand())
	cmd.AddCommand(c.docsRemoveCommand())
	return cmd
}

// withStore opens the configured store for the duration of fn.
func (c *CLI) withStore(ctx context.Context, fn func(snapshot.Store[viewer.Card]) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	store, err := c.newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func (c *CLI) docsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored documents",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(s snapshot.Store[viewer.Card]) error {
				list, err := s.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(list) == 0 {
					printInfo("No stored documents")
					return nil
				}
				fmt.Println(documentTable(list))
				return nil
			})
		},
	}
}

func (c *CLI) docsPutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "put [document.json]",
		Short: "Store a document file",
		Long:  `Store a document file. A document without an id is given a new one.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := snapshot.Import[viewer.Card](args[0])
			if err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			return c.saveDocument(cmd.Context(), cfg, doc)
		},
	}
}

func (c *CLI) docsGetCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Write a stored document to a file or stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := terrors.ValidateDocumentID(args[0]); err != nil {
				return err
			}
			return c.withStore(cmd.Context(), func(s snapshot.Store[viewer.Card]) error {
				doc, err := s.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if output == "" {
					return snapshot.WriteJSON(os.Stdout, doc)
				}
				if err := snapshot.Export(doc, output); err != nil {
					return err
				}
				printSuccess("Wrote %s", doc.Name)
				printFile(output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func (c *CLI) docsRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm [id]",
		Aliases: []string{"delete"},
		Short:   "Delete a stored document",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := terrors.ValidateDocumentID(args[0]); err != nil {
				return err
			}
			return c.withStore(cmd.Context(), func(s snapshot.Store[viewer.Card]) error {
				if err := s.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				printSuccess("Deleted %s", args[0])
				return nil
			})
		},
	}
}

// saveDocument puts doc into the configured store, assigning an id first
// when it has none.
func (c *CLI) saveDocument(ctx context.Context, cfg *config.Config, doc *snapshot.Document[viewer.Card]) error {
	if doc.ID == "" {
		doc.ID = snapshot.NewID()
	}
	if err := terrors.ValidateDocumentID(doc.ID); err != nil {
		return err
	}
	store, err := c.newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Put(ctx, doc); err != nil {
		return err
	}
	printSuccess("Stored document %s", StyleHighlight.Render(doc.ID))
	return nil
}
