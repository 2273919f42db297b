// Package cli implements the wayfinder command-line interface.
//
// Every command reads the building configuration (--config, default
// wayfinder.toml), loads the unified graph through the pipeline runner and
// its cache, and then routes, lists, renders or serves it.
//
// # Commands
//
//   - route: compute walking directions between two places
//   - places: list routable destinations
//   - graph stats / graph render: inspect the unified graph
//   - serve: run the HTTP API, optionally rebuilding on asset changes
//   - cache clear / cache path: manage the local graph cache
//   - config init / config check: write or validate a configuration
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/wayfinder/pkg/buildinfo"
	"github.com/matzehuels/wayfinder/pkg/cache"
	"github.com/matzehuels/wayfinder/pkg/config"
	"github.com/matzehuels/wayfinder/pkg/graph"
	"github.com/matzehuels/wayfinder/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "wayfinder"

	// defaultConfigFile is read when --config is not given.
	defaultConfigFile = "wayfinder.toml"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	noCache    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Wayfinder computes walking directions inside multi-floor buildings",
		Long:         `Wayfinder builds a navigable graph from per-floor vector floor plans, links the floors through escalators and elevators, and turns shortest routes into turn-by-turn directions.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", defaultConfigFile, "building configuration file")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "build the graph without reading or writing the cache")

	root.AddCommand(c.routeCommand())
	root.AddCommand(c.placesCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Loading
// =============================================================================

func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("config loaded", "path", c.configPath, "floors", len(cfg.Floors), "connectors", len(cfg.Connectors))
	return cfg, nil
}

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config) (*pipeline.Runner, error) {
	gc, err := c.openCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(gc, cfg.Keyer(), c.Logger), nil
}

func (c *CLI) openCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	if c.noCache {
		return cache.None(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		c.Logger.Warn("no cache directory, caching disabled", "err", err)
		return cache.None(), nil
	}
	return cache.Open(ctx, cfg.CacheOptions(dir))
}

// load builds the unified graph and reports skipped floors.
func (c *CLI) load(ctx context.Context, runner *pipeline.Runner, cfg *config.Config, refresh bool) (*graph.Global, *pipeline.LoadReport, error) {
	opts := cfg.PipelineOptions()
	opts.Refresh = refresh

	p := newProgress(c.Logger)
	var sp *Spinner
	if stderrIsTerminal() {
		sp = newSpinner(ctx, os.Stderr, fmt.Sprintf("Loading %d floors...", len(cfg.Floors)))
		sp.Start()
	}
	g, report, err := runner.LoadGlobal(ctx, cfg.Sources(), cfg.ConnectorTable(), opts)
	if sp != nil {
		sp.Stop()
	}
	if report != nil {
		for _, f := range report.Failed {
			c.Logger.Warn("floor skipped", "source", f.Source, "err", f.Err)
		}
	}
	if err != nil {
		return nil, report, err
	}
	source := "built"
	if report.CacheHit {
		source = "cached"
	}
	p.done("Loaded " + source + " graph")
	return g, report, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/wayfinder/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// stderrIsTerminal reports whether stderr is attached to a terminal.
func stderrIsTerminal() bool {
	fi, err := os.Stderr.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
