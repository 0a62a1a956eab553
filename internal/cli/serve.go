package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/treeize/internal/server"
	"github.com/matzehuels/treeize/pkg/pipeline"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API for layout and document storage.

  POST   /v1/layout                  lay out a posted document
  GET    /v1/documents               list stored documents
  POST   /v1/documents               store a new document
  GET    /v1/documents/{id}          fetch a document
  PUT    /v1/documents/{id}          create or replace a document
  DELETE /v1/documents/{id}          delete a document
  POST   /v1/documents/{id}/layout   lay out a stored document and save it
  GET    /healthz                    build info

The server shares the layout cache with the command line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, noCache)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, noCache bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}

	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return err
	}
	defer runner.Cache.Close()

	store, err := c.newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := server.New(server.Options{
		Runner: runner,
		Store:  store,
		Logger: c.Logger,
		Defaults: pipeline.Options{
			Layout: cfg.LayoutConfig(),
			Wire:   cfg.WireStyle(),
			TTL:    cfg.Cache.TTL.Duration,
		},
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})
	return srv.ListenAndServe(ctx, addr, cfg.Server.ShutdownTimeout.Duration)
}
