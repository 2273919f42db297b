// Package pipeline wires the routing stages together for the CLI and the
// HTTP server.
//
// # Stages
//
// Loading turns floor assets into one navigable graph:
//
//  1. Read: every asset is read and hashed
//  2. Build: each floor is decoded and built concurrently ([graph.Build])
//  3. Unify: the floors are merged and connectors linked ([graph.Unify])
//
// The unified graph is cached under a key derived from the asset hashes,
// the connector table and the graph tunables, so an unchanged building is
// loaded from the cache without rebuilding.
//
// Routing runs search, cleaning and direction synthesis on a loaded graph:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	g, report, err := runner.LoadGlobal(ctx, sources, table, pipeline.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	for _, f := range report.Failed {
//	    logger.Warn("floor skipped", "source", f.Source, "err", f.Err)
//	}
//	res, err := runner.Route(ctx, g, pipeline.Request{Start: "Zara", Goal: "l1:uniqlo"}, opts)
//
// [Navigator] adds a swappable current graph and per-session request
// supersession on top of the [Runner].
package pipeline

import (
	"time"

	"github.com/matzehuels/wayfinder/pkg/cache"
	"github.com/matzehuels/wayfinder/pkg/clean"
	"github.com/matzehuels/wayfinder/pkg/directions"
	"github.com/matzehuels/wayfinder/pkg/errors"
	"github.com/matzehuels/wayfinder/pkg/floor"
	"github.com/matzehuels/wayfinder/pkg/graph"
	"github.com/matzehuels/wayfinder/pkg/route"
)

// Source is one floor asset. Data, when set, is used instead of reading
// Path. A valid Floor asserts which floor the asset must describe.
type Source struct {
	Floor floor.Floor
	Path  string
	Data  []byte
}

// Name identifies the source in reports and logs.
func (s Source) Name() string {
	switch {
	case s.Path != "":
		return s.Path
	case s.Floor.Valid():
		return s.Floor.Prefix()
	}
	return "<inline>"
}

// Options carries the tunables of every stage.
type Options struct {
	Graph      graph.Options
	Route      route.Options
	Clean      clean.Options
	Directions directions.Options

	// Concurrency bounds how many floors are built at once. Zero means no
	// limit.
	Concurrency int
	// Refresh skips the cache lookup and rebuilds the graph.
	Refresh bool
	// GraphTTL is how long a built graph stays cached.
	GraphTTL time.Duration
}

// DefaultOptions returns the defaults of every stage.
func DefaultOptions() Options {
	return Options{
		Graph:      graph.DefaultOptions(),
		Route:      route.DefaultOptions(),
		Clean:      clean.DefaultOptions(),
		Directions: directions.DefaultOptions(),
		GraphTTL:   cache.TTLGraph,
	}
}

// Validate checks the tunables of every stage.
func (o Options) Validate() error {
	for _, v := range []interface{ Validate() error }{o.Graph, o.Route, o.Clean, o.Directions} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	if o.Concurrency < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "concurrency must not be negative, got %d", o.Concurrency)
	}
	return nil
}

// Failure records a floor left out of the unified graph.
type Failure struct {
	Source string
	Floor  floor.Floor // zero if the asset could not be decoded
	Err    error
}

// LoadReport describes one LoadGlobal call.
type LoadReport struct {
	Floors       []floor.Floor
	Failed       []Failure
	GraphKey     string
	CacheHit     bool
	Nodes        int
	Arcs         int
	VerticalArcs int
	Duration     time.Duration
}

func (r *LoadReport) fill(g *graph.Global) {
	r.Floors = g.Floors()
	r.Nodes = g.NodeCount()
	r.Arcs = g.ArcCount()
	r.VerticalArcs = g.VerticalArcCount()
}

// Request is a route query by label or place name.
type Request struct {
	Start string
	Goal  string
	Mode  route.Mode
}

// Result holds every artifact of one route query.
type Result struct {
	Start      string // resolved start label
	Goal       string // resolved goal label
	Mode       route.Mode
	Raw        []route.Point // search output
	Path       []route.Point // cleaned path
	Directions directions.Result
	Stats      Stats
}

// Stats holds timing and search statistics for a route query.
type Stats struct {
	SearchTime     time.Duration
	CleanTime      time.Duration
	SynthesizeTime time.Duration
	Expanded       int
	Pushed         int
	Cost           float64
}
