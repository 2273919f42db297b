package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wayfinder/pkg/config"
)

// configCommand groups the configuration subcommands.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Write or validate a building configuration",
	}

	cmd.AddCommand(c.configInitCommand())
	cmd.AddCommand(c.configCheckCommand())

	return cmd
}

// configInitCommand creates the "config init" subcommand.
func (c *CLI) configInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration with every setting at its default",
		Long: `Write a configuration with every setting at its default.

The file is written to --config. Use "-" to print it instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if c.configPath == "-" {
				return cfg.Write(cmd.OutOrStdout())
			}
			flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
			if force {
				flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
			}
			f, err := os.OpenFile(c.configPath, flags, 0o644)
			if os.IsExist(err) {
				return fmt.Errorf("%s already exists (use --force to overwrite)", c.configPath)
			}
			if err != nil {
				return err
			}
			if err := cfg.Write(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			printSuccess("Wrote configuration")
			printFile(c.configPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}

// configCheckCommand creates the "config check" subcommand.
func (c *CLI) configCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and its floor assets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			missing := 0
			for _, src := range cfg.Sources() {
				if _, err := os.Stat(src.Path); err != nil {
					printWarning("%s: %v", src.Floor.Name(), err)
					missing++
				}
			}
			if missing > 0 {
				return fmt.Errorf("%d floor assets missing", missing)
			}
			printSuccess("%s is valid", c.configPath)
			printDetail("%d floors, %d connector groups", len(cfg.Floors), len(cfg.Connectors))
			return nil
		},
	}
}
