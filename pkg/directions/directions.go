package directions

import (
	"fmt"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/matzehuels/wayfinder/pkg/errors"
	"github.com/matzehuels/wayfinder/pkg/floor"
	"github.com/matzehuels/wayfinder/pkg/floorplan"
	"github.com/matzehuels/wayfinder/pkg/graph"
	"github.com/matzehuels/wayfinder/pkg/route"
)

// Icon tags a step for presentation.
type Icon int

const (
	IconExit Icon = iota
	IconStraight
	IconBearLeft
	IconBearRight
	IconTurnLeft
	IconTurnRight
	IconArrive
	IconEscalator
	IconElevator
)

var iconNames = [...]string{
	IconExit:      "exit",
	IconStraight:  "straight",
	IconBearLeft:  "bear-left",
	IconBearRight: "bear-right",
	IconTurnLeft:  "turn-left",
	IconTurnRight: "turn-right",
	IconArrive:    "arrive",
	IconEscalator: "escalator",
	IconElevator:  "elevator",
}

func (i Icon) String() string {
	if i >= 0 && int(i) < len(iconNames) {
		return iconNames[i]
	}
	return fmt.Sprintf("Icon(%d)", int(i))
}

// MarshalText encodes the icon name.
func (i Icon) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

// UnmarshalText decodes an icon name written by MarshalText.
func (i *Icon) UnmarshalText(text []byte) error {
	for k, name := range iconNames {
		if name == string(text) {
			*i = Icon(k)
			return nil
		}
	}
	return errors.New(errors.ErrCodeInvalidInput, "unknown step icon %q", text)
}

// FloorChange marks a step that moves between floors.
type FloorChange struct {
	From floor.Floor `json:"from"`
	To   floor.Floor `json:"to"`
}

// Step is one instruction. Distance and Time are cumulative from the start
// of the route, measured at Anchor. SegmentDistance is the distance from
// this step's anchor to the next step's anchor.
type Step struct {
	Anchor          orb.Point     `json:"anchor"`
	Label           string        `json:"label"`
	Floor           floor.Floor   `json:"floor"`
	Icon            Icon          `json:"icon"`
	Text            string        `json:"text"`
	FloorChange     *FloorChange  `json:"floor_change,omitempty"`
	Distance        float64       `json:"distance_m"`
	Time            time.Duration `json:"time_ns"`
	SegmentDistance float64       `json:"segment_distance_m"`

	index int
}

// Result is the full set of instructions for a route.
type Result struct {
	Steps         []Step        `json:"steps"`
	TotalDistance float64       `json:"total_distance_m"`
	TotalTime     time.Duration `json:"total_time_ns"`
}

// Default tunables.
const (
	DefaultMicroIntersection = 8.0
	DefaultLandmarkRadius    = 120.0
	DefaultMetersPerUnit     = 0.1
	DefaultFloorChangeMeters = 6.0
	DefaultEscalatorSpeed    = 1.2
	DefaultElevatorSpeed     = 0.9
)

// Options tunes step synthesis and metrics.
type Options struct {
	// MicroIntersection collapses three-group stretches shorter than this
	// (in map units) into one group.
	MicroIntersection float64
	// LandmarkRadius bounds the landmark search around a junction (map units).
	LandmarkRadius float64
	// MetersPerUnit converts map units to meters.
	MetersPerUnit float64
	// FloorChangeMeters is the distance charged per level crossed.
	FloorChangeMeters float64
	// EscalatorSpeed and ElevatorSpeed are walking speeds in m/s per mode.
	EscalatorSpeed float64
	ElevatorSpeed  float64
}

// DefaultOptions returns the tuned defaults.
func DefaultOptions() Options {
	return Options{
		MicroIntersection: DefaultMicroIntersection,
		LandmarkRadius:    DefaultLandmarkRadius,
		MetersPerUnit:     DefaultMetersPerUnit,
		FloorChangeMeters: DefaultFloorChangeMeters,
		EscalatorSpeed:    DefaultEscalatorSpeed,
		ElevatorSpeed:     DefaultElevatorSpeed,
	}
}

// Validate rejects negative distances and non-positive speeds.
func (o Options) Validate() error {
	if o.MicroIntersection < 0 || o.LandmarkRadius < 0 || o.MetersPerUnit < 0 || o.FloorChangeMeters < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "direction distances must be >= 0")
	}
	if o.EscalatorSpeed <= 0 || o.ElevatorSpeed <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "travel speeds must be > 0")
	}
	return nil
}

func (o Options) speed(m route.Mode) float64 {
	if m == route.ModeElevator {
		return o.ElevatorSpeed
	}
	return o.EscalatorSpeed
}

// Synthesize produces the instructions for a cleaned route.
//
// Running Synthesize twice on the same input yields identical results.
func Synthesize(path []route.Point, g *graph.Global, mode route.Mode, opts Options) (Result, error) {
	if len(path) == 0 {
		return Result{}, errors.New(errors.ErrCodeInvalidInput, "empty route")
	}
	if g == nil {
		return Result{}, errors.New(errors.ErrCodeInvalidInput, "no graph to describe the route with")
	}
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}

	s := &synth{
		path:   path,
		g:      g,
		mode:   mode,
		opts:   opts,
		onPath: make(map[string]bool),
		used:   make(map[string]bool),
	}
	s.measure()
	for i := range path {
		s.onPath[s.location(i)] = true
	}
	s.describe()
	return s.finish(), nil
}

// span is a maximal run of path points on one floor.
type span struct {
	floor    floor.Floor
	from, to int
}

// group is a maximal run of path points sharing a controlling label.
type group struct {
	loc      string
	from, to int
}

func (g group) first() int { return g.from }
func (g group) last() int  { return g.to - 1 }

type synth struct {
	path []route.Point
	g    *graph.Global
	mode route.Mode
	opts Options

	cum    []float64 // cumulative meters at each path index
	onPath map[string]bool
	used   map[string]bool
	steps  []Step
}

func (s *synth) node(i int) *graph.Node {
	n, _ := s.g.Node(s.path[i].Label)
	return n
}

// location is the controlling label of path point i.
func (s *synth) location(i int) string {
	if n := s.node(i); n != nil {
		return n.Location()
	}
	return s.path[i].Label
}

func (s *synth) measure() {
	s.cum = make([]float64, len(s.path))
	for i := 1; i < len(s.path); i++ {
		a, b := s.path[i-1], s.path[i]
		hop := planar.Distance(a.Point, b.Point) * s.opts.MetersPerUnit
		if a.Floor != b.Floor {
			hop = s.opts.FloorChangeMeters * float64(a.Floor.LevelDiff(b.Floor))
		}
		s.cum[i] = s.cum[i-1] + hop
	}
}

func (s *synth) spans() []span {
	var out []span
	for i, p := range s.path {
		if len(out) > 0 && out[len(out)-1].floor == p.Floor {
			out[len(out)-1].to = i + 1
			continue
		}
		out = append(out, span{floor: p.Floor, from: i, to: i + 1})
	}
	return out
}

// passThrough reports whether a span only consists of connector landings.
func (s *synth) passThrough(sp span) bool {
	for i := sp.from; i < sp.to; i++ {
		if n := s.node(i); n == nil || n.ConnectorKind() == 0 {
			return false
		}
	}
	return true
}

func (s *synth) groups(sp span) []group {
	var gs []group
	for i := sp.from; i < sp.to; i++ {
		loc := s.location(i)
		if len(gs) > 0 && gs[len(gs)-1].loc == loc {
			gs[len(gs)-1].to = i + 1
			continue
		}
		gs = append(gs, group{loc: loc, from: i, to: i + 1})
	}
	return s.mergeMicro(gs)
}

// mergeMicro folds short middle groups into their predecessor.
func (s *synth) mergeMicro(gs []group) []group {
	for i := 1; i+1 < len(gs); {
		p, m, n := gs[i-1], gs[i], gs[i+1]
		d := s.dist(p.last(), m.first()) + s.dist(m.first(), m.last()) + s.dist(m.last(), n.first())
		if d >= s.opts.MicroIntersection {
			i++
			continue
		}
		gs[i-1].to = m.to
		gs = append(gs[:i], gs[i+1:]...)
		if gs[i-1].loc == gs[i].loc {
			gs[i-1].to = gs[i].to
			gs = append(gs[:i], gs[i+1:]...)
		}
	}
	return gs
}

func (s *synth) dist(i, j int) float64 {
	return planar.Distance(s.path[i].Point, s.path[j].Point)
}

// turnAt classifies the change from group p to group n and returns the path
// index of the junction.
func (s *synth) turnAt(p, n group) (turn, int) {
	jp, jn := p.last(), n.first()
	best := s.dist(jp, jn)
	for _, a := range []int{p.first(), p.last()} {
		for _, b := range []int{n.first(), n.last()} {
			if d := s.dist(a, b); d < best {
				best, jp, jn = d, a, b
			}
		}
	}
	j := s.path[jn].Point

	in := sub(j, s.path[p.first()].Point)
	if isZero(in) && p.first() > 0 && s.path[p.first()-1].Floor == s.path[jn].Floor {
		in = sub(j, s.path[p.first()-1].Point)
	}
	out := sub(s.path[n.last()].Point, j)
	if isZero(out) && n.to < len(s.path) && s.path[n.to].Floor == s.path[jn].Floor {
		out = sub(s.path[n.to].Point, j)
	}
	return classify(signedAngle(in, out)), jn
}

func (s *synth) emit(index int, icon Icon, text string) *Step {
	p := s.path[index]
	s.steps = append(s.steps, Step{
		Anchor: p.Point,
		Label:  p.Label,
		Floor:  p.Floor,
		Icon:   icon,
		Text:   text,
		index:  index,
	})
	return &s.steps[len(s.steps)-1]
}

func (s *synth) describe() {
	last := len(s.path) - 1
	dest := Name(s.location(last))
	if last == 0 {
		s.emit(0, IconArrive, fmt.Sprintf("You are at %s", dest))
		return
	}

	spans := s.spans()
	var prev *span
	arrived := false
	for k := range spans {
		sp := spans[k]
		final := k == len(spans)-1
		if k > 0 && !final && s.passThrough(sp) {
			continue
		}
		if prev != nil {
			s.floorChange(*prev, sp)
		}
		prev = &spans[k]

		gs := s.groups(sp)
		exit := straight
		if len(gs) > 1 {
			exit, _ = s.turnAt(gs[0], gs[1])
		}
		s.emit(sp.from, IconExit, s.exitText(k, sp, exit))

		for j := 2; j < len(gs); j++ {
			t, jn := s.turnAt(gs[j-1], gs[j])
			if final && (j == len(gs)-1 || s.isStorepath(gs[j])) {
				s.emit(last, IconArrive, t.arrival(dest))
				arrived = true
				break
			}
			text := capitalize(t.verb())
			if lm := s.landmark(jn); lm != "" {
				text += " near " + lm
			}
			s.emit(jn, t.icon(), text)
		}
	}
	if !arrived {
		s.emit(last, IconArrive, straight.arrival(dest))
	}
}

func (s *synth) floorChange(from, to span) {
	at := from.to - 1
	kind := graph.ConnectorKind(0)
	if n := s.node(at); n != nil {
		kind = n.ConnectorKind()
	}
	if kind == 0 {
		kind = s.mode.Connector()
	}
	dir := "up"
	if to.floor.Level() < from.floor.Level() {
		dir = "down"
	}
	icon := IconEscalator
	if kind == graph.Elevator {
		icon = IconElevator
	}
	st := s.emit(at, icon, fmt.Sprintf("Take the %s %s to %s", kind, dir, to.floor.Name()))
	st.FloorChange = &FloorChange{From: from.floor, To: to.floor}
}

// exitText phrases the first instruction on a floor. The start floor names
// the kind of place the route leaves; later floors name the connector.
func (s *synth) exitText(k int, sp span, t turn) string {
	var noun string
	if k == 0 {
		if n := s.node(sp.from); n != nil {
			noun = placeNoun(n.Place)
		}
	} else {
		kind := graph.ConnectorKind(0)
		if n := s.node(sp.from); n != nil {
			kind = n.ConnectorKind()
		}
		if kind == 0 {
			kind = s.mode.Connector()
		}
		noun = kind.String()
	}
	if noun == "" {
		return fmt.Sprintf("Start from %s and %s", Name(s.location(sp.from)), t.verb())
	}
	return fmt.Sprintf("Exit from the %s and %s", noun, t.verb())
}

func (s *synth) isStorepath(gr group) bool {
	n := s.node(gr.first())
	return n != nil && n.Place == floorplan.PlaceStorepath
}

// landmark names the closest unused store or facility near path index i.
func (s *synth) landmark(i int) string {
	at := s.path[i]
	var (
		best     *graph.Node
		bestDist = s.opts.LandmarkRadius
	)
	for _, n := range s.g.NodesOn(at.Floor) {
		if n.Type != floorplan.Center || !n.Place.IsLandmark() {
			continue
		}
		loc := n.Location()
		if s.onPath[loc] || s.used[loc] {
			continue
		}
		if d := planar.Distance(at.Point, n.Point); d <= bestDist && (best == nil || d < bestDist) {
			best, bestDist = n, d
		}
	}
	if best == nil {
		return ""
	}
	s.used[best.Location()] = true
	return Name(best.Location())
}

// finish collapses repeated instructions and fills in the metrics.
func (s *synth) finish() Result {
	var steps []Step
	for _, st := range s.steps {
		if len(steps) > 0 && steps[len(steps)-1].Text == st.Text {
			continue
		}
		steps = append(steps, st)
	}

	speed := s.opts.speed(s.mode)
	for i := range steps {
		d := s.cum[steps[i].index]
		steps[i].Distance = d
		steps[i].Time = seconds(d / speed)
	}
	for i := range steps {
		if i+1 < len(steps) {
			steps[i].SegmentDistance = steps[i+1].Distance - steps[i].Distance
		}
	}

	total := s.cum[len(s.cum)-1]
	return Result{
		Steps:         steps,
		TotalDistance: total,
		TotalTime:     seconds(total / speed),
	}
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

func placeNoun(k floorplan.PlaceKind) string {
	switch k {
	case floorplan.PlaceStore:
		return "store"
	case floorplan.PlaceFacility:
		return "facility"
	case floorplan.PlaceAtrium:
		return "atrium"
	case floorplan.PlaceEscalator:
		return "escalator"
	case floorplan.PlaceElevator:
		return "elevator"
	case floorplan.PlaceStorepath:
		return "aisle"
	}
	return ""
}

// Name turns a label into a display name: "g:zara_home" becomes "Zara Home".
func Name(label string) string {
	if _, raw, err := floor.SplitLabel(label); err == nil {
		label = raw
	}
	label = strings.NewReplacer("_", " ", "-", " ").Replace(label)
	return cases.Title(language.English).String(strings.Join(strings.Fields(label), " "))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
