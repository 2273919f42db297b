package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wayfinder/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local graph cache",
		Long: `Manage the local graph cache.

These commands act on the file backend directory. Redis and MongoDB entries
expire on their own after the configured TTL.`,
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())
	cmd.AddCommand(c.cachePruneCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached graphs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.localCacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			count, err := clearDir(dir)
			if err != nil {
				return err
			}
			if count == 0 {
				printInfo("Cache is empty")
				return nil
			}
			printSuccess("Cleared %d cached graphs", count)
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

// cachePruneCommand creates the "cache prune" subcommand.
func (c *CLI) cachePruneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove expired and outdated cached graphs",
		Long: `Remove cached graphs that would never be served again: expired entries,
entries written by another cache format version, and unreadable files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.localCacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("Cache is empty")
				return nil
			}
			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return err
			}
			count, err := fc.Prune(cmd.Context())
			if err != nil {
				return fmt.Errorf("prune cache: %w", err)
			}
			if count == 0 {
				printInfo("Nothing to prune")
				return nil
			}
			printSuccess("Pruned %d cached graphs", count)
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.localCacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

// localCacheDir is the configured file cache directory, falling back to the
// XDG cache directory when no configuration is present.
func (c *CLI) localCacheDir() (string, error) {
	if _, err := os.Stat(c.configPath); err == nil {
		cfg, err := c.loadConfig()
		if err != nil {
			return "", err
		}
		if cfg.Cache.Dir != "" {
			return cfg.Cache.Dir, nil
		}
	}
	return cacheDir()
}

// clearDir removes every file below dir and the emptied subdirectories,
// leaving dir itself. A missing dir counts as empty.
func clearDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	count := 0
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if e.IsDir() {
			n, err := clearDir(path)
			if err != nil {
				return count, err
			}
			count += n
			_ = os.Remove(path)
			continue
		}
		if err := os.Remove(path); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
