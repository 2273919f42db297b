// Package clean removes spurious detours from computed routes.
//
// A route may briefly run into a path segment that merely lies close to the
// corridor it follows: the search reaches B between segments A and C because
// B's endpoints sit right next to both, not because walking B is intended.
// [Path] finds such segments and splices A and C together so that the
// directions derived from the route do not announce a turn into B.
package clean

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/matzehuels/wayfinder/pkg/errors"
	"github.com/matzehuels/wayfinder/pkg/graph"
	"github.com/matzehuels/wayfinder/pkg/route"
)

// Default tunables.
const (
	DefaultProximity = 5.0
	DefaultTolerance = 1.0
)

// Options tunes detour detection.
type Options struct {
	// Proximity is the distance below which two segment endpoints touch.
	Proximity float64
	// Tolerance is how much the two touching distances may differ.
	Tolerance float64
}

// DefaultOptions returns the tuned defaults.
func DefaultOptions() Options {
	return Options{Proximity: DefaultProximity, Tolerance: DefaultTolerance}
}

// Validate rejects negative tunables.
func (o Options) Validate() error {
	if o.Proximity < 0 || o.Tolerance < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "clean proximity and tolerance must not be negative")
	}
	return nil
}

// run is a maximal stretch of path points sharing one segment key.
type run struct {
	key      string
	from, to int // path[from:to]
	ends     []orb.Point
	dropped  bool
}

// Path returns path without detour segments and without repeated labels.
// The first and last points are always kept. g supplies the declared
// segment endpoints; without it the run's own first and last points are
// used.
func Path(path []route.Point, g *graph.Global, opts Options) []route.Point {
	if len(path) < 3 {
		return dedupe(path)
	}
	runs := segment(path, g)
	// A is always the last kept run, so a dropped run never anchors the next
	// comparison.
	kept := 0
	for i := 1; i+1 < len(runs); i++ {
		a, b, c := &runs[kept], &runs[i], &runs[i+1]
		if path[a.from].Floor == path[b.from].Floor && path[b.from].Floor == path[c.from].Floor &&
			isDetour(a.ends, b.ends, c.ends, opts) {
			b.dropped = true
			continue
		}
		kept = i
	}

	out := make([]route.Point, 0, len(path))
	for _, r := range runs {
		if !r.dropped {
			out = append(out, path[r.from:r.to]...)
		}
	}
	return dedupe(out)
}

func segment(path []route.Point, g *graph.Global) []run {
	var runs []run
	for i, p := range path {
		key := segmentKey(p, g)
		if len(runs) > 0 && runs[len(runs)-1].key == key {
			runs[len(runs)-1].to = i + 1
			continue
		}
		runs = append(runs, run{key: key, from: i, to: i + 1})
	}
	for i := range runs {
		r := &runs[i]
		if g != nil {
			if s, ok := g.Segment(r.key); ok {
				r.ends = s.Endpoints()
				continue
			}
		}
		r.ends = []orb.Point{path[r.from].Point, path[r.to-1].Point}
	}
	return runs
}

func segmentKey(p route.Point, g *graph.Global) string {
	if g == nil {
		return p.Label
	}
	if n, ok := g.Node(p.Label); ok {
		return n.Location()
	}
	return p.Label
}

// isDetour reports whether B is a spurious excursion between A and C.
func isDetour(a, b, c []orb.Point, opts Options) bool {
	// Some end of A touches both B and C at about the same distance.
	for _, pa := range a {
		for _, pb := range b {
			db := planar.Distance(pa, pb)
			if db >= opts.Proximity {
				continue
			}
			for _, pc := range c {
				dc := planar.Distance(pa, pc)
				if dc < opts.Proximity && math.Abs(db-dc) < opts.Tolerance {
					return true
				}
			}
		}
	}

	// Every end of B touches both A and C at about the same distance.
	if len(b) > 0 && all(b, func(pb orb.Point) bool {
		da, dc := nearest(pb, a), nearest(pb, c)
		return da < opts.Proximity && dc < opts.Proximity && math.Abs(da-dc) < opts.Tolerance
	}) {
		return true
	}

	// A bridges B and C: one end touches B, the other touches C.
	if len(a) < 2 {
		return false
	}
	bridges := func(toB, toC orb.Point) bool {
		db, dc := nearest(toB, b), nearest(toC, c)
		return db < opts.Proximity && dc < opts.Proximity && math.Abs(db-dc) < opts.Tolerance
	}
	return bridges(a[0], a[1]) || bridges(a[1], a[0])
}

func all(pts []orb.Point, ok func(orb.Point) bool) bool {
	for _, p := range pts {
		if !ok(p) {
			return false
		}
	}
	return true
}

func nearest(p orb.Point, pts []orb.Point) float64 {
	best := math.Inf(1)
	for _, q := range pts {
		best = min(best, planar.Distance(p, q))
	}
	return best
}

// dedupe drops repeated labels, keeping the first occurrence, and cuts the
// path at the first occurrence of its final label.
func dedupe(path []route.Point) []route.Point {
	if len(path) == 0 {
		return path
	}
	last := path[len(path)-1].Label
	seen := make(map[string]bool, len(path))
	out := make([]route.Point, 0, len(path))
	for _, p := range path {
		if seen[p.Label] {
			continue
		}
		seen[p.Label] = true
		out = append(out, p)
		if p.Label == last {
			break
		}
	}
	return out
}
