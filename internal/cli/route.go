package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wayfinder/pkg/pipeline"
	"github.com/matzehuels/wayfinder/pkg/route"
)

type routeOpts struct {
	mode   string
	pick   bool
	asJSON bool
}

// routeCommand creates the route command.
func (c *CLI) routeCommand() *cobra.Command {
	var opts routeOpts

	cmd := &cobra.Command{
		Use:   "route [start] [end]",
		Short: "Compute walking directions between two places",
		Long: `Compute walking directions between two places.

Places are given as qualified labels ("l1:zara"), raw labels ("zara") or
display names ("Zara Home"). With --pick, missing places are chosen
interactively.`,
		Example: `  wayfinder route zara "l1:uniqlo"
  wayfinder route zara uniqlo --mode elevator
  wayfinder route --pick`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.pick && len(args) != 2 {
				return fmt.Errorf("route needs a start and an end (or --pick)")
			}
			return c.runRoute(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "escalator", "travel mode: escalator or elevator")
	cmd.Flags().BoolVarP(&opts.pick, "pick", "p", false, "choose missing places interactively")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the directions as JSON")
	_ = cmd.RegisterFlagCompletionFunc("mode", completeModes)

	return cmd
}

func (c *CLI) runRoute(cmd *cobra.Command, args []string, opts routeOpts) error {
	ctx := cmd.Context()
	mode, err := route.ParseMode(opts.mode)
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

	for len(args) < 2 {
		title := "Where are you?"
		if len(args) == 1 {
			title = "Where to?"
		}
		p, err := pickPlace(title, pipeline.Places(g))
		if err != nil {
			return err
		}
		if p == nil {
			printInfo("Cancelled")
			return nil
		}
		args = append(args, p.Label)
	}

	res, err := runner.Route(ctx, g, pipeline.Request{Start: args[0], Goal: args[1], Mode: mode}, cfg.PipelineOptions())
	if err != nil {
		return err
	}
	c.Logger.Debug("route found",
		"expanded", res.Stats.Expanded,
		"raw", len(res.Raw),
		"cleaned", len(res.Path),
		"search", res.Stats.SearchTime,
	)

	out := cmd.OutOrStdout()
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Directions)
	}
	writeSteps(out, res)
	return nil
}
