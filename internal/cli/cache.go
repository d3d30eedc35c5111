package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackdepth/pkg/cache"
	"github.com/matzehuels/stackdepth/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached results and diagrams",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached entry from the configured backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := c.newCache(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer cc.Close()

			p := printer{cmd.OutOrStdout()}
			clearer, ok := cc.(cache.Clearer)
			if !ok {
				p.info("Backend %s holds nothing to clear", c.Config.Cache.Backend)
				return nil
			}
			n, err := clearer.Clear(cmd.Context())
			if err != nil {
				return err
			}
			if n == 0 {
				p.info("Cache is empty")
				return nil
			}
			p.success("Cleared %d cached entries", n)
			p.detail("%s", cacheLocation(c.Config))
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where cached entries are stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), cacheLocation(c.Config))
			return nil
		},
	}
}

// cacheLocation describes the configured backend's storage.
func cacheLocation(cfg *config.Config) string {
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		return "redis://" + cfg.Cache.RedisAddr
	case config.BackendNone:
		return "none"
	default:
		return cfg.Cache.Dir
	}
}
