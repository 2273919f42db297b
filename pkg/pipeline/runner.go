package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/wayfinder/pkg/cache"
	"github.com/matzehuels/wayfinder/pkg/clean"
	"github.com/matzehuels/wayfinder/pkg/directions"
	"github.com/matzehuels/wayfinder/pkg/errors"
	"github.com/matzehuels/wayfinder/pkg/floor"
	"github.com/matzehuels/wayfinder/pkg/floorplan"
	"github.com/matzehuels/wayfinder/pkg/graph"
	"github.com/matzehuels/wayfinder/pkg/observability"
	"github.com/matzehuels/wayfinder/pkg/route"
)

// cacheKeyGraph is the key type reported to cache hooks.
const cacheKeyGraph = "graph"

// Runner executes the pipeline stages with caching.
// Both CLI and server use it so that caching and logging behave the same.
//
// The Runner stores no results. Multiple goroutines can safely use the
// same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, cache.None is used (caching disabled).
// If logger is nil, log output is discarded.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.None()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

type asset struct {
	src  Source
	data []byte
	err  error
}

type built struct {
	fg      *graph.FloorGraph
	failure *Failure
}

// LoadGlobal builds the unified graph from sources.
//
// Floors are read and built concurrently. A floor that cannot be read,
// decoded or built is recorded in the report and left out; LoadGlobal
// fails with BUILD_FAILED only if no floor builds. A second source for an
// already loaded floor is recorded as an INVALID_FLOOR failure.
//
// A graph built without failures is cached; a later call with identical
// assets, connector table and graph options returns it without rebuilding.
func (r *Runner) LoadGlobal(ctx context.Context, sources []Source, table graph.ConnectorTable, opts Options) (*graph.Global, *LoadReport, error) {
	if len(sources) == 0 {
		return nil, nil, errors.New(errors.ErrCodeInvalidInput, "no floor assets given")
	}
	if err := opts.Validate(); err != nil {
		return nil, nil, err
	}
	start := time.Now()
	report := &LoadReport{}

	assets, err := readAssets(ctx, sources, opts.Concurrency)
	if err != nil {
		return nil, nil, err
	}

	key, err := r.graphKey(assets, table, opts.Graph)
	if err != nil {
		return nil, nil, err
	}
	report.GraphKey = key

	if !opts.Refresh {
		if g, ok := r.cachedGraph(ctx, key); ok {
			report.CacheHit = true
			report.fill(g)
			report.Duration = time.Since(start)
			r.Logger.Info("loaded graph from cache", "floors", len(report.Floors), "nodes", report.Nodes)
			return g, report, nil
		}
	}

	results := make([]built, len(assets))
	eg, ectx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		eg.SetLimit(opts.Concurrency)
	}
	for i, a := range assets {
		if a.err != nil {
			results[i] = built{failure: &Failure{Source: a.src.Name(), Floor: a.src.Floor, Err: a.err}}
			continue
		}
		eg.Go(func() error {
			if err := ectx.Err(); err != nil {
				return err
			}
			results[i] = r.buildFloor(ectx, a, opts.Graph)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	var floors []*graph.FloorGraph
	seen := make(map[floor.Floor]string)
	for i, b := range results {
		if b.failure != nil {
			report.Failed = append(report.Failed, *b.failure)
			continue
		}
		name := assets[i].src.Name()
		if prev, dup := seen[b.fg.Floor]; dup {
			report.Failed = append(report.Failed, Failure{
				Source: name,
				Floor:  b.fg.Floor,
				Err:    errors.New(errors.ErrCodeInvalidFloor, "floor %s already loaded from %s", b.fg.Floor, prev),
			})
			continue
		}
		seen[b.fg.Floor] = name
		floors = append(floors, b.fg)
	}
	for _, f := range report.Failed {
		r.Logger.Warn("floor left out", "source", f.Source, "err", f.Err)
	}
	if len(floors) == 0 {
		return nil, report, errors.New(errors.ErrCodeBuildFailed, "none of %d floor assets could be built", len(sources))
	}

	unifyStart := time.Now()
	g, err := graph.Unify(floors, table, opts.Graph)
	observability.Pipeline().OnUnifyComplete(ctx, len(floors), vertical(g), time.Since(unifyStart), err)
	if err != nil {
		return nil, report, err
	}
	report.fill(g)
	report.Duration = time.Since(start)

	r.Logger.Info("built graph",
		"floors", len(report.Floors),
		"nodes", report.Nodes,
		"vertical_arcs", report.VerticalArcs,
		"duration", report.Duration)

	if len(report.Failed) == 0 {
		r.storeGraph(ctx, key, g, opts.GraphTTL)
	}
	return g, report, nil
}

func vertical(g *graph.Global) int {
	if g == nil {
		return 0
	}
	return g.VerticalArcCount()
}

// readAssets loads every source concurrently. Read errors are kept on the
// asset; only cancellation aborts.
func readAssets(ctx context.Context, sources []Source, limit int) ([]asset, error) {
	assets := make([]asset, len(sources))
	eg, ectx := errgroup.WithContext(ctx)
	if limit > 0 {
		eg.SetLimit(limit)
	}
	for i, src := range sources {
		assets[i].src = src
		if src.Data != nil {
			assets[i].data = src.Data
			continue
		}
		eg.Go(func() error {
			if err := ectx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(src.Path)
			if err != nil {
				assets[i].err = errors.Wrap(errors.ErrCodeBuildFailed, err, "read asset")
				return nil
			}
			assets[i].data = data
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return assets, nil
}

func (r *Runner) buildFloor(ctx context.Context, a asset, opts graph.Options) built {
	name := a.src.Name()
	fail := func(f floor.Floor, err error) built {
		return built{failure: &Failure{Source: name, Floor: f, Err: err}}
	}

	plan, err := floorplan.ReadJSON(bytes.NewReader(a.data))
	if err != nil {
		return fail(a.src.Floor, errors.Wrap(errors.ErrCodeBuildFailed, err, "decode asset"))
	}
	if a.src.Floor.Valid() && plan.Floor != a.src.Floor {
		return fail(plan.Floor, errors.New(errors.ErrCodeInvalidFloor, "asset describes floor %s, expected %s", plan.Floor, a.src.Floor))
	}

	start := time.Now()
	observability.Pipeline().OnBuildStart(ctx, plan.Floor.Prefix())
	fg, err := graph.Build(plan, opts)
	var nodes int
	if fg != nil {
		nodes = fg.NodeCount()
	}
	observability.Pipeline().OnBuildComplete(ctx, plan.Floor.Prefix(), nodes, time.Since(start), err)
	if err != nil {
		return fail(plan.Floor, err)
	}
	r.Logger.Debug("built floor", "floor", plan.Floor.Prefix(), "nodes", nodes, "splits", fg.Splits())
	return built{fg: fg}
}

func (r *Runner) graphKey(assets []asset, table graph.ConnectorTable, opts graph.Options) (string, error) {
	keyOpts := cache.GraphKeyOpts{
		Assets:          make(map[string]string, len(assets)),
		SplitThreshold:  opts.SplitThreshold,
		FloorChangeCost: opts.FloorChangeCost,
	}
	for i, a := range assets {
		id := fmt.Sprintf("%03d:%s", i, a.src.Name())
		if a.err != nil {
			keyOpts.Assets[id] = "unreadable"
			continue
		}
		keyOpts.Assets[id] = cache.Hash(a.data)
	}
	if len(table) > 0 {
		data, err := json.Marshal(table)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeInternal, err, "hash connector table")
		}
		keyOpts.Connectors = cache.Hash(data)
	}
	return r.Keyer.GraphKey(keyOpts), nil
}

func (r *Runner) cachedGraph(ctx context.Context, key string) (*graph.Global, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "err", err)
		return nil, false
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, cacheKeyGraph)
		return nil, false
	}
	g, err := graph.UnmarshalGlobal(data)
	if err != nil {
		r.Logger.Warn("discarding unreadable cached graph", "err", err)
		_ = r.Cache.Delete(ctx, key)
		observability.Cache().OnCacheMiss(ctx, cacheKeyGraph)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, cacheKeyGraph)
	return g, true
}

func (r *Runner) storeGraph(ctx context.Context, key string, g *graph.Global, ttl time.Duration) {
	data, err := g.MarshalJSON()
	if err != nil {
		r.Logger.Warn("graph not cached", "err", err)
		return
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, cacheKeyGraph, len(data))
}

// Route resolves the request endpoints, searches, cleans the path and
// synthesizes directions.
func (r *Runner) Route(ctx context.Context, g *graph.Global, req Request, opts Options) (*Result, error) {
	if g == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no graph loaded")
	}
	startLabel, err := Resolve(g, req.Start)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	goalLabel, err := Resolve(g, req.Goal)
	if err != nil {
		return nil, fmt.Errorf("goal: %w", err)
	}
	res := &Result{Start: startLabel, Goal: goalLabel, Mode: req.Mode}

	t := time.Now()
	raw, st, err := route.FindWithStats(ctx, route.Request{
		Graph: g,
		Start: startLabel,
		Goal:  goalLabel,
		Mode:  req.Mode,
	}, opts.Route)
	res.Stats.SearchTime = time.Since(t)
	res.Stats.Expanded, res.Stats.Pushed, res.Stats.Cost = st.Expanded, st.Pushed, st.Cost
	observability.Pipeline().OnSearchComplete(ctx, req.Mode.String(), st.Expanded, res.Stats.SearchTime, err)
	if err != nil {
		return nil, err
	}
	res.Raw = raw

	t = time.Now()
	res.Path = clean.Path(raw, g, opts.Clean)
	res.Stats.CleanTime = time.Since(t)

	t = time.Now()
	dirs, err := directions.Synthesize(res.Path, g, req.Mode, opts.Directions)
	res.Stats.SynthesizeTime = time.Since(t)
	observability.Pipeline().OnSynthesizeComplete(ctx, len(dirs.Steps), res.Stats.SynthesizeTime, err)
	if err != nil {
		return nil, err
	}
	res.Directions = dirs

	r.Logger.Debug("routed",
		"start", startLabel,
		"goal", goalLabel,
		"mode", req.Mode,
		"expanded", st.Expanded,
		"points", len(res.Path),
		"removed", len(raw)-len(res.Path),
		"duration", res.Stats.SearchTime)
	return res, nil
}
