package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/wayfinder/pkg/errors"
	"github.com/matzehuels/wayfinder/pkg/graph"
)

// errSuperseded is the cancellation cause of a session request replaced by
// a newer one.
var errSuperseded = errors.New(errors.ErrCodeSuperseded, "superseded by a newer request")

// Navigator serves route queries against a swappable graph.
//
// The current graph is held in an atomic pointer, so a reload never blocks
// queries; a query keeps the graph it started with. Sessions give
// last-write-wins semantics: a new request for a session cancels that
// session's in-flight request, which then fails with SUPERSEDED.
type Navigator struct {
	runner *Runner
	opts   Options
	graph  atomic.Pointer[graph.Global]

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	seq      uint64
	cancel   context.CancelCauseFunc
	lastUsed time.Time
}

// NewNavigator creates a navigator serving g.
func NewNavigator(r *Runner, g *graph.Global, opts Options) *Navigator {
	n := &Navigator{runner: r, opts: opts, sessions: make(map[string]*session)}
	n.graph.Store(g)
	return n
}

// Graph returns the current graph.
func (n *Navigator) Graph() *graph.Global { return n.graph.Load() }

// Swap installs g as the current graph and returns the previous one.
func (n *Navigator) Swap(g *graph.Global) *graph.Global { return n.graph.Swap(g) }

// Route answers a stateless query on the current graph.
func (n *Navigator) Route(ctx context.Context, req Request) (*Result, error) {
	return n.runner.Route(ctx, n.Graph(), req, n.opts)
}

// NewSession registers a session and returns its id.
func (n *Navigator) NewSession() string {
	id := uuid.NewString()
	n.mu.Lock()
	n.sessions[id] = &session{lastUsed: time.Now()}
	n.mu.Unlock()
	return id
}

// CloseSession cancels any in-flight request of the session and forgets it.
// It reports whether the session existed.
func (n *Navigator) CloseSession(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	s, ok := n.sessions[id]
	if !ok {
		return false
	}
	if s.cancel != nil {
		s.cancel(context.Canceled)
	}
	delete(n.sessions, id)
	return true
}

// Sessions returns the number of open sessions.
func (n *Navigator) Sessions() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sessions)
}

// PruneSessions closes sessions idle for longer than maxIdle and returns
// how many were removed.
func (n *Navigator) PruneSessions(maxIdle time.Duration) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	cutoff := time.Now().Add(-maxIdle)
	removed := 0
	for id, s := range n.sessions {
		if s.cancel == nil && s.lastUsed.Before(cutoff) {
			delete(n.sessions, id)
			removed++
		}
	}
	return removed
}

// RouteSession answers a query for a session, cancelling the session's
// previous request if it is still running.
func (n *Navigator) RouteSession(ctx context.Context, id string, req Request) (*Result, error) {
	n.mu.Lock()
	s, ok := n.sessions[id]
	if !ok {
		n.mu.Unlock()
		return nil, errors.New(errors.ErrCodeNotFound, "session %q not found", id)
	}
	if s.cancel != nil {
		s.cancel(errSuperseded)
	}
	rctx, cancel := context.WithCancelCause(ctx)
	s.seq++
	seq := s.seq
	s.cancel = cancel
	s.lastUsed = time.Now()
	n.mu.Unlock()

	res, err := n.runner.Route(rctx, n.Graph(), req, n.opts)

	n.mu.Lock()
	if s.seq == seq {
		s.cancel = nil
	}
	n.mu.Unlock()
	cancel(nil)

	if context.Cause(rctx) == errSuperseded {
		return nil, errSuperseded
	}
	return res, err
}
