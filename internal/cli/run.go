package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackdepth/pkg/errors"
	"github.com/matzehuels/stackdepth/pkg/pipeline"
)

// runOpts holds the command-line flags for the run command.
type runOpts struct {
	zmax        float64
	maxPasses   int
	verify      bool
	refresh     bool
	noCache     bool
	frames      bool
	asJSON      bool
	plain       bool
	concurrency int
}

// runCommand creates the run command, which assigns depths to one or more
// scene files and prints them in paint order.
func (c *CLI) runCommand() *cobra.Command {
	var opts runOpts

	cmd := &cobra.Command{
		Use:   "run FILE...",
		Short: "Assign depths to scene files and print them in paint order",
		Long: `Run builds each scene, performs a stacking pass, then applies the scene's
frames one at a time with a pass after each. The final depths are printed
back to front.

Scene files are TOML or JSON, chosen by extension. Results are cached by
scene content, so unchanged scenes are not recomputed.`,
		Example: `  stackdepth run menu.toml
  stackdepth run --frames --verify menu.toml
  stackdepth run --json scenes/*.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runScenes(cmd, args, opts)
		},
	}

	cmd.Flags().Float64Var(&opts.zmax, "zmax", 0, "depth range of the root context (default: scene or config value)")
	cmd.Flags().IntVar(&opts.maxPasses, "max-passes", pipeline.DefaultMaxPasses, "passes per frame while work is pending")
	cmd.Flags().BoolVar(&opts.verify, "verify", false, "check ordering invariants after every frame")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even when cached")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.frames, "frames", false, "show depths after every frame")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print results as JSON")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, `print "name depth" lines`)
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "j", pipeline.DefaultConcurrency, "scenes to run in parallel")
	cmd.MarkFlagsMutuallyExclusive("json", "plain", "frames")

	return cmd
}

func (c *CLI) runScenes(cmd *cobra.Command, paths []string, opts runOpts) error {
	ctx := cmd.Context()
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := c.pipelineOptions()
	popts.ZMax = opts.zmax
	popts.MaxPasses = opts.maxPasses
	popts.Verify = opts.verify
	popts.Refresh = opts.refresh

	prog := newProgress(c.Logger)
	results, err := runner.RunAll(ctx, paths, popts, opts.concurrency)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Ran %d scene(s)", len(results)))

	out := cmd.OutOrStdout()
	switch {
	case opts.asJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		var v any = results
		if len(results) == 1 {
			v = results[0]
		}
		if err := enc.Encode(v); err != nil {
			return err
		}
	case opts.plain:
		for _, res := range results {
			fmt.Fprint(out, res.String())
		}
	default:
		p := printer{out}
		for i, res := range results {
			if i > 0 {
				p.line("")
			}
			printResult(p, paths[i], res, opts.frames)
		}
	}

	return checkResults(results)
}

// printResult prints one scene's header, statistics and depth table.
func printResult(p printer, path string, res *pipeline.Result, frames bool) {
	title := res.Scene
	if title == "" {
		title = path
	}
	p.line(StyleTitle.Render(title))
	p.stats(res)
	if frames {
		p.line(framesTable(res))
	} else {
		p.line(depthTable(res))
	}
	if !res.Settled() {
		p.warning("%d node(s) still pending after the last pass; zmax may be too small", res.Stats.Pending)
	}
	for _, v := range res.Violations {
		p.error("%s", v)
	}
}

// checkResults fails when any run found invariant violations.
func checkResults(results []*pipeline.Result) error {
	n := 0
	for _, res := range results {
		n += len(res.Violations)
	}
	if n > 0 {
		return errors.New(errors.ErrCodeInternal, "%d ordering violation(s)", n)
	}
	return nil
}
