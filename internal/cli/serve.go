package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackdepth/pkg/api"
	"github.com/matzehuels/stackdepth/pkg/cache"
	"github.com/matzehuels/stackdepth/pkg/pipeline"
)

// serveCommand creates the serve command, which runs the HTTP API until
// interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve live scenes over HTTP",
		Long: `Serve starts the HTTP API. Clients create scenes, edit them with batches
of ops and read back depths, paint order and diagrams.

The listen address, scene limit and scene TTL come from the [serve] section
of the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cc, err := c.newCache(ctx, noCache)
			if err != nil {
				return err
			}
			// API entries live under their own prefix in a shared backend.
			runner := pipeline.NewRunner(cc, cache.NewScopedKeyer(nil, "serve:"), c.Logger)
			defer runner.Close()

			if addr == "" {
				addr = c.Config.Serve.Addr
			}
			srv, err := api.New(api.Config{
				Addr:      addr,
				MaxScenes: c.Config.Serve.MaxScenes,
				SceneTTL:  c.Config.Serve.SceneTTL,
				ZMax:      c.Config.ZMax,
			}, runner, c.Logger)
			if err != nil {
				return err
			}
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching for /run and diagrams")

	return cmd
}
