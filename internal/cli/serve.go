package cli

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/wayfinder/internal/server"
	"github.com/matzehuels/wayfinder/pkg/config"
	"github.com/matzehuels/wayfinder/pkg/observability"
	"github.com/matzehuels/wayfinder/pkg/pipeline"
	"github.com/matzehuels/wayfinder/pkg/watch"
)

type serveOpts struct {
	listen string
	watch  bool
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the routing API over HTTP",
		Long: `Serve the routing API over HTTP.

With --watch, the asset directory is watched and the graph is rebuilt and
swapped in when floor files change. Queries in flight keep the graph they
started with.`,
		Example: `  wayfinder serve
  wayfinder serve --listen :9090 --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.listen, "listen", "l", "", "listen address (overrides [server] listen)")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "rebuild the graph when floor assets change")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, opts serveOpts) error {
	ctx := cmd.Context()
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.listen != "" {
		cfg.Server.Listen = opts.listen
	}
	if cmd.Flags().Changed("watch") {
		cfg.Server.Watch = opts.watch
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	hooks := observability.NewPrometheusHooks(reg)
	observability.SetPipelineHooks(hooks)
	observability.SetCacheHooks(hooks)
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	g, report, err := c.load(ctx, runner, cfg, false)
	if err != nil {
		return err
	}
	writeLoadStats(cmd.ErrOrStderr(), report)

	nav := pipeline.NewNavigator(runner, g, cfg.PipelineOptions())
	srv := server.New(nav, server.Options{
		RouteTimeout: cfg.Server.RouteTimeout.Std(),
		SessionIdle:  cfg.Server.SessionIdle.Std(),
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
		Gatherer:     reg,
		Logger:       c.Logger,
	})

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return srv.ListenAndServe(ctx, cfg.Server.Listen)
	})
	if cfg.Server.Watch {
		w, err := watch.New([]string{cfg.AssetDir()}, c.reloader(runner, nav, cfg), watch.Options{
			Debounce: cfg.Server.WatchDebounce.Std(),
			Logger:   c.Logger,
		})
		if err != nil {
			return err
		}
		c.Logger.Info("watching assets", "dir", cfg.AssetDir())
		eg.Go(func() error { return w.Run(ctx) })
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	return cmd.Context().Err()
}

// reloader rebuilds the graph after asset changes and swaps it into nav.
// A rebuild that loses any floor is discarded and the current graph kept.
func (c *CLI) reloader(runner *pipeline.Runner, nav *pipeline.Navigator, cfg *config.Config) watch.Handler {
	return func(ctx context.Context, paths []string) {
		c.Logger.Info("assets changed, rebuilding", "files", len(paths))
		p := newProgress(c.Logger)
		g, report, err := runner.LoadGlobal(ctx, cfg.Sources(), cfg.ConnectorTable(), cfg.PipelineOptions())
		if err != nil {
			c.Logger.Error("rebuild failed, keeping current graph", "err", err)
			return
		}
		if len(report.Failed) > 0 {
			for _, f := range report.Failed {
				c.Logger.Error("floor failed to rebuild", "source", f.Source, "err", f.Err)
			}
			c.Logger.Warn("keeping current graph", "failed", len(report.Failed))
			return
		}
		nav.Swap(g)
		p.done("Swapped in rebuilt graph")
	}
}
