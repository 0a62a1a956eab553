package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/treeize/internal/config"
	terrors "github.com/matzehuels/treeize/pkg/errors"
	"github.com/matzehuels/treeize/pkg/interact"
	"github.com/matzehuels/treeize/pkg/snapshot"
	"github.com/matzehuels/treeize/pkg/viewer"
)

func (c *CLI) editCommand() *cobra.Command {
	var (
		id     string
		layout bool
	)
	cmd := &cobra.Command{
		Use:   "edit [document.json]",
		Short: "Edit a document in the terminal",
		Long: `Edit a document with the mouse in the terminal.

Drag from a pin to a pin of the other kind to wire them; release over empty
canvas to add a new node there. Drag nodes to move them. Right-click a pin to
drop its wires. Shift-drag on empty canvas selects by rectangle; terminals
that swallow shift can use 'm' to make shift or ctrl sticky.

A missing file starts an empty document that is created on save. With --id
the document is loaded from and saved to the document store.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 1) == (id != "") {
				return errors.New("pass either a document file or --id")
			}
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return c.runEdit(cmd.Context(), path, id, layout)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "edit a stored document")
	cmd.Flags().BoolVar(&layout, "layout", false, "lay the document out when opening it")
	return cmd
}

func (c *CLI) runEdit(ctx context.Context, path, id string, relayout bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	doc, save, err := c.openForEdit(ctx, cfg, path, id)
	if err != nil {
		return err
	}

	iopts := interact.DefaultOptions()
	iopts.Wire = cfg.WireStyle()
	iopts.RectContained = cfg.Select.RectContained
	iopts.DragThreshold = 1

	m, err := newEditorModel(ctx, doc, editorOptions{
		Viewer:   viewer.Cards{Menu: true},
		Interact: iopts,
		Layout:   cfg.LayoutConfig(),
		Save:     save,
	})
	if err != nil {
		return err
	}
	defer m.machine.Close()
	if relayout {
		m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'l'}})
		m.fit()
		m.rebuildFrame()
	}

	final, err := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
	).Run()
	if err != nil {
		return err
	}
	if em, ok := final.(*editorModel); ok && em.dirty {
		printWarning("Quit with unsaved changes")
	}
	return nil
}

// openForEdit loads the document to edit and returns how to save it.
func (c *CLI) openForEdit(ctx context.Context, cfg *config.Config, path, id string) (*snapshot.Document[viewer.Card], saveFunc, error) {
	if id != "" {
		if err := terrors.ValidateDocumentID(id); err != nil {
			return nil, nil, err
		}
		store, err := c.newStore(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		doc, err := store.Get(ctx, id)
		store.Close()
		if err != nil {
			return nil, nil, err
		}
		save := func(ctx context.Context, d *snapshot.Document[viewer.Card]) (string, error) {
			store, err := c.newStore(ctx, cfg)
			if err != nil {
				return "", err
			}
			defer store.Close()
			if err := store.Put(ctx, d); err != nil {
				return "", err
			}
			return "store " + d.ID, nil
		}
		return doc, save, nil
	}

	if err := terrors.ValidatePath(path); err != nil {
		return nil, nil, err
	}
	doc, err := snapshot.Import[viewer.Card](path)
	if terrors.Is(err, terrors.ErrCodeFileNotFound) || errors.Is(err, fs.ErrNotExist) {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		doc, err = &snapshot.Document[viewer.Card]{ID: snapshot.NewID(), Name: name}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", path, err)
	}
	return doc, fileSaver(path), nil
}

func fileSaver(path string) saveFunc {
	return func(_ context.Context, d *snapshot.Document[viewer.Card]) (string, error) {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", err
			}
		}
		if err := snapshot.Export(d, path); err != nil {
			return "", err
		}
		return path, nil
	}
}
