package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/wayfinder/pkg/directions"
	"github.com/matzehuels/wayfinder/pkg/errors"
	"github.com/matzehuels/wayfinder/pkg/floor"
	"github.com/matzehuels/wayfinder/pkg/graph"
	"github.com/matzehuels/wayfinder/pkg/pipeline"
	"github.com/matzehuels/wayfinder/pkg/route"
)

// RouteRequest is the body of a route query.
type RouteRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Mode  string `json:"mode,omitempty"`
}

// RouteResponse is the answer to a route query.
type RouteResponse struct {
	Start         string            `json:"start"`
	End           string            `json:"end"`
	Mode          route.Mode        `json:"mode"`
	Steps         []directions.Step `json:"steps"`
	TotalDistance float64           `json:"total_distance_m"`
	TotalSeconds  float64           `json:"total_time_s"`
	Path          []PathPoint       `json:"path"`
	Stats         RouteStats        `json:"stats"`
}

// PathPoint is one point of the cleaned route.
type PathPoint struct {
	Label string      `json:"label"`
	Floor floor.Floor `json:"floor"`
	X     float64     `json:"x"`
	Y     float64     `json:"y"`
}

// RouteStats reports search effort and stage timings in milliseconds.
type RouteStats struct {
	Expanded     int     `json:"expanded"`
	Cost         float64 `json:"cost"`
	SearchMS     float64 `json:"search_ms"`
	CleanMS      float64 `json:"clean_ms"`
	SynthesizeMS float64 `json:"synthesize_ms"`
}

// GraphStats describes the loaded graph.
type GraphStats struct {
	Floors       []floor.Floor `json:"floors"`
	Nodes        int           `json:"nodes"`
	Arcs         int           `json:"arcs"`
	VerticalArcs int           `json:"vertical_arcs"`
	Segments     int           `json:"segments"`
	Places       int           `json:"places"`
	Sessions     int           `json:"sessions"`
}

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePlaces(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, pipeline.Places(s.nav.Graph()))
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, graphStats(s.nav.Graph(), s.nav.Sessions()))
}

func graphStats(g *graph.Global, sessions int) GraphStats {
	return GraphStats{
		Floors:       g.Floors(),
		Nodes:        g.NodeCount(),
		Arcs:         g.ArcCount(),
		VerticalArcs: g.VerticalArcCount(),
		Segments:     g.SegmentCount(),
		Places:       len(g.Places()),
		Sessions:     sessions,
	}
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRoute(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RouteTimeout)
	defer cancel()
	res, err := s.nav.Route(ctx, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newRouteResponse(res))
}

func (s *Server) handleNewSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusCreated, map[string]string{"id": s.nav.NewSession()})
}

func (s *Server) handleSessionRoute(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRoute(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RouteTimeout)
	defer cancel()
	res, err := s.nav.RouteSession(ctx, chi.URLParam(r, "id"), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newRouteResponse(res))
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.nav.CloseSession(id) {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "session %q not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeRoute(w http.ResponseWriter, r *http.Request) (pipeline.Request, error) {
	var body RouteRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyLength))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		return pipeline.Request{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	if body.Start == "" || body.End == "" {
		return pipeline.Request{}, errors.New(errors.ErrCodeInvalidInput, "start and end are required")
	}
	mode, err := route.ParseMode(body.Mode)
	if err != nil {
		return pipeline.Request{}, err
	}
	return pipeline.Request{Start: body.Start, Goal: body.End, Mode: mode}, nil
}

func newRouteResponse(res *pipeline.Result) RouteResponse {
	out := RouteResponse{
		Start:         res.Start,
		End:           res.Goal,
		Mode:          res.Mode,
		Steps:         res.Directions.Steps,
		TotalDistance: res.Directions.TotalDistance,
		TotalSeconds:  res.Directions.TotalTime.Seconds(),
		Path:          make([]PathPoint, len(res.Path)),
		Stats: RouteStats{
			Expanded:     res.Stats.Expanded,
			Cost:         res.Stats.Cost,
			SearchMS:     ms(res.Stats.SearchTime),
			CleanMS:      ms(res.Stats.CleanTime),
			SynthesizeMS: ms(res.Stats.SynthesizeTime),
		},
	}
	for i, p := range res.Path {
		out.Path[i] = PathPoint{Label: p.Label, Floor: p.Floor, X: p.Point[0], Y: p.Point[1]}
	}
	return out
}

func ms(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

// statusFor maps an error code to an HTTP status.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidFloor, errors.ErrCodeInvalidMode:
		return http.StatusBadRequest
	case errors.ErrCodeMissingLabel, errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeNoPath:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeSuperseded:
		return http.StatusConflict
	}
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case stderrors.Is(err, context.Canceled):
		return statusClientClosedRequest
	}
	return http.StatusInternalServerError
}

// statusClientClosedRequest is the de facto status for a request the client
// abandoned.
const statusClientClosedRequest = 499

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	msg := errors.UserMessage(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "code", code, "err", err)
	}
	writeJSON(w, status, errorBody{Code: code, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
