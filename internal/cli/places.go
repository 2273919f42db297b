package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wayfinder/pkg/floor"
	"github.com/matzehuels/wayfinder/pkg/pipeline"
)

// placesCommand creates the places command.
func (c *CLI) placesCommand() *cobra.Command {
	var (
		floorFlag string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "places",
		Short: "List routable destinations",
		Example: `  wayfinder places
  wayfinder places --floor l1 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var only floor.Floor
			if floorFlag != "" {
				f, err := floor.Parse(floorFlag)
				if err != nil {
					return err
				}
				only = f
			}

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

			g, _, err := c.load(ctx, runner, cfg, false)
			if err != nil {
				return err
			}

			places := pipeline.Places(g)
			if only.Valid() {
				kept := places[:0]
				for _, p := range places {
					if p.Floor == only {
						kept = append(kept, p)
					}
				}
				places = kept
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(places)
			}
			writePlaces(out, places)
			return nil
		},
	}

	cmd.Flags().StringVarP(&floorFlag, "floor", "f", "", "only list places on this floor (lg, g, l1, l2, l3)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print places as JSON")
	_ = cmd.RegisterFlagCompletionFunc("floor", completeFloors)

	return cmd
}
