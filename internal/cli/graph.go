package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wayfinder/pkg/floor"
	"github.com/matzehuels/wayfinder/pkg/pipeline"
	"github.com/matzehuels/wayfinder/pkg/render"
	"github.com/matzehuels/wayfinder/pkg/route"
)

// graphCommand groups the graph inspection subcommands.
func (c *CLI) graphCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Inspect the unified building graph",
	}

	cmd.AddCommand(c.graphStatsCommand())
	cmd.AddCommand(c.graphRenderCommand())

	return cmd
}

// graphStatsCommand creates the "graph stats" subcommand.
func (c *CLI) graphStatsCommand() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Build the graph and print its size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, cfg)
			if err != nil {
				return err
			}
			defer runner.Close()

			g, report, err := c.load(ctx, runner, cfg, refresh)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			floors := make([]string, len(report.Floors))
			for i, f := range report.Floors {
				floors[i] = f.Name()
			}
			writeKeyValue(out, "Floors", strings.Join(floors, ", "))
			writeKeyValue(out, "Nodes", fmt.Sprint(report.Nodes))
			writeKeyValue(out, "Arcs", fmt.Sprint(report.Arcs))
			writeKeyValue(out, "Vertical arcs", fmt.Sprint(report.VerticalArcs))
			writeKeyValue(out, "Segments", fmt.Sprint(g.SegmentCount()))
			writeKeyValue(out, "Places", fmt.Sprint(len(g.Places())))
			writeKeyValue(out, "Cache key", report.GraphKey)
			writeLoadStats(out, report)
			for _, f := range report.Failed {
				printWarning("%s skipped: %v", f.Source, f.Err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "rebuild even if a cached graph exists")

	return cmd
}

type graphRenderOpts struct {
	floor    string
	from     string
	to       string
	mode     string
	output   string
	format   string
	detailed bool
	scale    float64
}

// graphRenderCommand creates the "graph render" subcommand.
func (c *CLI) graphRenderCommand() *cobra.Command {
	opts := graphRenderOpts{scale: render.DefaultScale}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one floor of the graph as DOT or SVG",
		Long: `Render one floor of the graph as DOT or SVG.

Nodes are pinned at their floor-plan coordinates. With --from and --to the
route between the two places is highlighted.`,
		Example: `  wayfinder graph render --floor g -o ground.svg
  wayfinder graph render --floor l1 --from zara --to uniqlo -o route.svg
  wayfinder graph render --floor g --format dot`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraphRender(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.floor, "floor", "f", "", "floor to render (lg, g, l1, l2, l3)")
	cmd.Flags().StringVar(&opts.from, "from", "", "highlight the route from this place")
	cmd.Flags().StringVar(&opts.to, "to", "", "highlight the route to this place")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "escalator", "travel mode of the highlighted route")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.format, "format", "", "dot or svg (default from the output extension, else dot)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label every node with its raw label")
	cmd.Flags().Float64Var(&opts.scale, "scale", render.DefaultScale, "coordinate scale factor")
	_ = cmd.MarkFlagRequired("floor")
	_ = cmd.RegisterFlagCompletionFunc("floor", completeFloors)
	_ = cmd.RegisterFlagCompletionFunc("mode", completeModes)

	return cmd
}

func (c *CLI) runGraphRender(cmd *cobra.Command, opts graphRenderOpts) error {
	ctx := cmd.Context()
	f, err := floor.Parse(opts.floor)
	if err != nil {
		return err
	}
	if (opts.from == "") != (opts.to == "") {
		return fmt.Errorf("--from and --to must be given together")
	}
	format, err := renderFormat(opts.format, opts.output)
	if err != nil {
		return err
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	g, _, err := c.load(ctx, runner, cfg, false)
	if err != nil {
		return err
	}

	ropts := render.Options{Detailed: opts.detailed, Scale: opts.scale}
	if opts.from != "" {
		mode, err := route.ParseMode(opts.mode)
		if err != nil {
			return err
		}
		res, err := runner.Route(ctx, g, pipeline.Request{Start: opts.from, Goal: opts.to, Mode: mode}, cfg.PipelineOptions())
		if err != nil {
			return err
		}
		ropts.Path = res.Path
	}

	data := []byte(render.ToDOT(g, f, ropts))
	if format == "svg" {
		if data, err = render.RenderSVG(ctx, string(data)); err != nil {
			return err
		}
	}

	if opts.output == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return err
	}
	printSuccess("Rendered %s", f.Name())
	printFile(opts.output)
	return nil
}

// renderFormat picks the output format from the flag or the file extension.
func renderFormat(flag, output string) (string, error) {
	format := strings.ToLower(flag)
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), ".")
	}
	switch format {
	case "", "dot", "gv":
		return "dot", nil
	case "svg":
		return "svg", nil
	}
	return "", fmt.Errorf("unsupported render format %q (want dot or svg)", format)
}
