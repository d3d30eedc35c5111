package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	sceneio "github.com/matzehuels/stackdepth/pkg/io"
	"github.com/matzehuels/stackdepth/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string
	format   string
	frame    int
	zmax     float64
	detailed bool
	refresh  bool
	noCache  bool
}

// renderCommand creates the render command, which draws a scene as a
// node-link diagram annotated with depths.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{format: pipeline.DefaultFormat, frame: -1}

	cmd := &cobra.Command{
		Use:   "render FILE",
		Short: "Render a scene as a node-link diagram",
		Long: `Render draws the scene tree after a given frame. Every node shows its
z-index and assigned depth; auto nodes are drawn dashed.`,
		Example: `  stackdepth render menu.toml
  stackdepth render menu.toml -f png --frame 0 -o before.png
  stackdepth render menu.toml -f dot -o -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pipeline.ValidateFormat(opts.format); err != nil {
				return err
			}
			return c.render(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", `output file, "-" for stdout (default: input name with format extension)`)
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: dot, svg, png")
	cmd.Flags().IntVar(&opts.frame, "frame", opts.frame, "frame to render, 0 is the initial tree (default: last)")
	cmd.Flags().Float64Var(&opts.zmax, "zmax", 0, "depth range of the root context")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show the depth range of every context")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even when cached")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) render(cmd *cobra.Command, input string, opts renderOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	sc, err := sceneio.ImportFile(input)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := c.pipelineOptions()
	popts.ZMax = opts.zmax
	popts.Format = opts.format
	popts.Frame = opts.frame
	popts.Detailed = opts.detailed
	popts.Refresh = opts.refresh

	spin := newSpinner(ctx, cmd.ErrOrStderr(), fmt.Sprintf("Rendering %s", input))
	spin.Start()
	data, hit, err := runner.Render(ctx, sc, popts)
	spin.Stop()
	if err != nil {
		return err
	}
	logger.Debug("rendered", "format", opts.format, "bytes", len(data), "cached", hit)

	if opts.output == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	path := outputPath(opts.output, input, opts.format)
	if err := writeOutput(path, data); err != nil {
		return err
	}

	p := printer{cmd.OutOrStdout()}
	p.success("Rendered %s", sc.Name)
	p.file(path)
	return nil
}

// outputPath returns output, or input with its extension replaced by format.
func outputPath(output, input, format string) string {
	if output != "" {
		return output
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + "." + format
}

// writeOutput writes data to path, creating parent directories.
func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
