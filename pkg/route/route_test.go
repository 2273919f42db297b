package route

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/wayfinder/pkg/errors"
	"github.com/matzehuels/wayfinder/pkg/floor"
	"github.com/matzehuels/wayfinder/pkg/floorplan"
	"github.com/matzehuels/wayfinder/pkg/graph"
)

type rawNode struct {
	id     string
	x, y   float64
	typ    floorplan.NodeType
	parent string
}

func plan(f floor.Floor, nodes []rawNode, edges ...[2]string) *floorplan.Plan {
	p := &floorplan.Plan{Floor: f}
	for _, n := range nodes {
		p.Nodes = append(p.Nodes, floorplan.Node{
			ID: n.id, X: n.x, Y: n.y, Type: n.typ, Parent: n.parent,
			Place: floorplan.ClassifyPlace(n.parent, ""),
		})
	}
	for _, e := range edges {
		p.Edges = append(p.Edges, floorplan.Edge{From: e[0], To: e[1]})
	}
	return p
}

func storepathEdge(p *floorplan.Plan, from, to string) *floorplan.Plan {
	p.Edges = append(p.Edges, floorplan.Edge{From: from, To: to, Type: floorplan.Storepath})
	return p
}

// global builds a graph; splitThreshold 0 disables junction insertion.
func global(t *testing.T, splitThreshold float64, table graph.ConnectorTable, plans ...*floorplan.Plan) *graph.Global {
	t.Helper()
	g, failures, err := graph.BuildGlobal(plans, table, graph.Options{SplitThreshold: splitThreshold})
	if err != nil {
		t.Fatalf("BuildGlobal: %v", err)
	}
	if len(failures) > 0 {
		t.Fatalf("floor failures: %+v", failures)
	}
	return g
}

func find(t *testing.T, g *graph.Global, start, goal string, mode Mode, opts Options) ([]string, float64, error) {
	t.Helper()
	path, stats, err := FindWithStats(context.Background(), Request{Graph: g, Start: start, Goal: goal, Mode: mode}, opts)
	if err != nil {
		return nil, 0, err
	}
	if c := Cost(g, path); math.Abs(c-stats.Cost) > 1e-9 {
		t.Errorf("stats cost %v != path cost %v", stats.Cost, c)
	}
	return Labels(path), stats.Cost, nil
}

func TestFindScenarioABC(t *testing.T) {
	g := global(t, graph.DefaultSplitThreshold, nil, plan(floor.Ground,
		[]rawNode{{id: "A", x: 0, y: 0}, {id: "B", x: 10, y: 0}, {id: "C", x: 10, y: 10}},
		[2]string{"A", "B"}, [2]string{"B", "C"},
	))
	path, err := Find(context.Background(), Request{Graph: g, Start: "g:A", Goal: "g:C", Mode: ModeEscalator}, DefaultOptions())
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got, want := Labels(path), []string{"g:A", "g:B", "g:C"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("path = %v, want %v", got, want)
	}
	if path[2].Point.X() != 10 || path[2].Point.Y() != 10 || path[2].Floor != floor.Ground {
		t.Errorf("last point = %+v", path[2])
	}
}

func TestFindOptimal(t *testing.T) {
	// Three ways from a to c: via b (200), via d (~282.8) and via e (~632.5).
	g := global(t, 0, nil, plan(floor.Ground,
		[]rawNode{
			{id: "a", x: 0, y: 0},
			{id: "b", x: 100, y: 0},
			{id: "c", x: 200, y: 0},
			{id: "d", x: 100, y: 100},
			{id: "e", x: 100, y: -300},
		},
		[2]string{"a", "d"}, [2]string{"d", "c"},
		[2]string{"a", "e"}, [2]string{"e", "c"},
		[2]string{"a", "b"}, [2]string{"b", "c"},
	))
	path, cost, err := find(t, g, "g:a", "g:c", ModeEscalator, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(path, []string{"g:a", "g:b", "g:c"}) {
		t.Errorf("path = %v", path)
	}
	if cost != 200 {
		t.Errorf("cost = %v, want 200", cost)
	}
}

func TestFindSameStartAndGoal(t *testing.T) {
	g := global(t, 0, nil, plan(floor.Ground, []rawNode{{id: "a"}}))
	path, _, err := find(t, g, "g:a", "g:a", ModeEscalator, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(path, []string{"g:a"}) {
		t.Errorf("path = %v", path)
	}
}

func TestFindErrors(t *testing.T) {
	g := global(t, 0, nil, plan(floor.Ground,
		[]rawNode{{id: "a"}, {id: "b", x: 10}, {id: "island", x: 500}},
		[2]string{"a", "b"},
	))
	tests := []struct {
		name        string
		graph       *graph.Global
		start, goal string
		want        errors.Code
	}{
		{"Disconnected", g, "g:a", "g:island", errors.ErrCodeNoPath},
		{"MissingStart", g, "g:nope", "g:b", errors.ErrCodeMissingLabel},
		{"MissingGoal", g, "g:a", "l1:b", errors.ErrCodeMissingLabel},
		{"NoGraph", nil, "g:a", "g:b", errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Find(context.Background(), Request{Graph: tt.graph, Start: tt.start, Goal: tt.goal}, DefaultOptions())
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %s", err, tt.want)
			}
		})
	}
}

// twoFloors has an escalator at x=0 and an elevator at x=200 between g and
// l1. The start sits on g and the goal on l1, both halfway between.
func twoFloors(t *testing.T, withUpperEscalator bool) *graph.Global {
	t.Helper()
	lower := plan(floor.Ground,
		[]rawNode{
			{id: "s", x: 100},
			{id: "p1", x: 0},
			{id: "p2", x: 200},
			{id: "esc", x: 0, y: 50, typ: floorplan.Center, parent: "escalator_a"},
			{id: "lift", x: 200, y: 50, typ: floorplan.Center, parent: "lift_a"},
		},
		[2]string{"s", "p1"}, [2]string{"s", "p2"},
		[2]string{"p1", "esc"}, [2]string{"p2", "lift"},
	)
	upperNodes := []rawNode{
		{id: "t", x: 100},
		{id: "p1", x: 0},
		{id: "p2", x: 200},
		{id: "lift", x: 200, y: 50, typ: floorplan.Center, parent: "lift_a"},
	}
	upperEdges := [][2]string{{"t", "p1"}, {"t", "p2"}, {"p2", "lift"}}
	if withUpperEscalator {
		upperNodes = append(upperNodes, rawNode{id: "esc", x: 0, y: 50, typ: floorplan.Center, parent: "escalator_a"})
		upperEdges = append(upperEdges, [2]string{"p1", "esc"})
	}
	upper := plan(floor.First, upperNodes, upperEdges...)

	table := graph.ConnectorTable{}
	table.Add("escalator_a", graph.Escalator, "esc")
	table.Add("lift_a", graph.Elevator, "lift")
	return global(t, 0, table, lower, upper)
}

func TestFindModeFiltering(t *testing.T) {
	g := twoFloors(t, true)
	tests := []struct {
		mode      Mode
		want      []string
		forbidden string
	}{
		{ModeEscalator, []string{"g:s", "g:p1", "g:esc", "l1:esc", "l1:p1", "l1:t"}, "lift"},
		{ModeElevator, []string{"g:s", "g:p2", "g:lift", "l1:lift", "l1:p2", "l1:t"}, "esc"},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			path, _, err := find(t, g, "g:s", "l1:t", tt.mode, DefaultOptions())
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(path, tt.want) {
				t.Errorf("path = %v, want %v", path, tt.want)
			}
			for _, l := range path {
				if strings.Contains(l, tt.forbidden) {
					t.Errorf("%s mode path uses %s", tt.mode, l)
				}
			}
		})
	}
}

func TestFindSingleFloorConnector(t *testing.T) {
	g := twoFloors(t, false)
	if _, _, err := find(t, g, "g:s", "l1:t", ModeEscalator, DefaultOptions()); !errors.Is(err, errors.ErrCodeNoPath) {
		t.Errorf("escalator mode error = %v, want NO_PATH", err)
	}
	if _, _, err := find(t, g, "g:s", "l1:t", ModeElevator, DefaultOptions()); err != nil {
		t.Errorf("elevator mode error = %v", err)
	}
}

func TestFindSkipsBoundaryPoints(t *testing.T) {
	g := global(t, 0, nil, plan(floor.Ground,
		[]rawNode{
			{id: "a"},
			{id: "edge", x: 50, typ: floorplan.Boundary, parent: "zara"},
			{id: "c", x: 100},
			{id: "d", x: 50, y: 100},
		},
		[2]string{"a", "edge"}, [2]string{"edge", "c"},
		[2]string{"a", "d"}, [2]string{"d", "c"},
	))
	path, _, err := find(t, g, "g:a", "g:c", ModeEscalator, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(path, []string{"g:a", "g:d", "g:c"}) {
		t.Errorf("path = %v", path)
	}
}

// storeShortcut has two corridors joined on the left, plus a store with an
// entrance onto each corridor.
func storeShortcut(t *testing.T) *graph.Global {
	t.Helper()
	return global(t, graph.DefaultSplitThreshold, nil, plan(floor.Ground,
		[]rawNode{
			{id: "t1", x: 0, y: 0},
			{id: "t2", x: 200, y: 0},
			{id: "b1", x: 0, y: 100},
			{id: "b2", x: 200, y: 100},
			{id: "z1", x: 100, y: 10, typ: floorplan.Center, parent: "zara"},
			{id: "z2", x: 100, y: 90, typ: floorplan.Center, parent: "zara"},
		},
		[2]string{"t1", "t2"}, [2]string{"b1", "b2"}, [2]string{"t1", "b1"},
		[2]string{"z1", "z2"},
	))
}

func TestFindJunctionGating(t *testing.T) {
	g := storeShortcut(t)
	tests := []struct {
		name string
		goal string
		want []string
		cost float64
	}{
		{
			name: "UnrelatedStoreNotCrossed",
			goal: "g:b2",
			want: []string{"g:t2", "g:split_0", "g:t1", "g:b1", "g:split_1", "g:b2"},
			cost: 500,
		},
		{
			name: "DestinationStoreEntered",
			goal: "g:z2",
			want: []string{"g:t2", "g:split_0", "g:z1", "g:z2"},
			cost: 190,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, cost, err := find(t, g, "g:t2", tt.goal, ModeEscalator, DefaultOptions())
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(path, tt.want) {
				t.Errorf("path = %v, want %v", path, tt.want)
			}
			if math.Abs(cost-tt.cost) > 1e-9 {
				t.Errorf("cost = %v, want %v", cost, tt.cost)
			}
		})
	}
}

// aisleLoop is a square walkway loop with a private aisle across its middle.
func aisleLoop(t *testing.T) *graph.Global {
	t.Helper()
	p := plan(floor.Ground,
		[]rawNode{
			{id: "w1", x: 0, y: 0},
			{id: "s", x: 100, y: 0},
			{id: "w2", x: 400, y: 0},
			{id: "w3", x: 400, y: 400},
			{id: "e", x: 300, y: 400},
			{id: "w4", x: 0, y: 400},
			{id: "a1", x: 200, y: 20},
			{id: "a2", x: 200, y: 380},
		},
		[2]string{"w1", "s"}, [2]string{"s", "w2"}, [2]string{"w2", "w3"},
		[2]string{"w3", "e"}, [2]string{"e", "w4"}, [2]string{"w4", "w1"},
	)
	return global(t, graph.DefaultSplitThreshold, nil, storepathEdge(p, "a1", "a2"))
}

func TestFindStorepathGating(t *testing.T) {
	g := aisleLoop(t)
	tests := []struct {
		name      string
		opts      Options
		cost      float64
		wantAisle bool
	}{
		{"FarFromEndpoints", DefaultOptions(), 800, false},
		{"NearEndpoints", Options{StorepathProximity: 150, StorepathCap: 3}, 600, true},
		{"CapReached", Options{StorepathProximity: 150, StorepathCap: 0}, 800, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, cost, err := find(t, g, "g:s", "g:e", ModeEscalator, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(cost-tt.cost) > 1e-9 {
				t.Errorf("cost = %v, want %v (path %v)", cost, tt.cost, path)
			}
			used := false
			for _, l := range path {
				if l == "g:a1" || l == "g:a2" {
					used = true
				}
			}
			if used != tt.wantAisle {
				t.Errorf("aisle used = %v, want %v (path %v)", used, tt.wantAisle, path)
			}
		})
	}
}

func TestFindRectCornerGating(t *testing.T) {
	g := global(t, graph.DefaultSplitThreshold, nil, plan(floor.Ground,
		[]rawNode{
			{id: "p1", x: 0, y: 0},
			{id: "p2", x: 200, y: 0},
			{id: "p3", x: 100, y: 150},
			{id: "rc", x: 100, y: 10, typ: floorplan.RectCorner, parent: "hm"},
			{id: "hm", x: 100, y: 30, typ: floorplan.Center, parent: "hm"},
		},
		[2]string{"p1", "p3"}, [2]string{"p3", "p2"},
		[2]string{"p1", "rc"}, [2]string{"rc", "p2"},
		[2]string{"rc", "hm"},
	))

	path, _, err := find(t, g, "g:p1", "g:p2", ModeEscalator, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(path, []string{"g:p1", "g:p3", "g:p2"}) {
		t.Errorf("through path = %v", path)
	}

	path, _, err = find(t, g, "g:p1", "g:hm", ModeEscalator, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(path, []string{"g:p1", "g:rc", "g:hm"}) {
		t.Errorf("into-place path = %v", path)
	}
}

func TestFindCancelled(t *testing.T) {
	var nodes []rawNode
	var edges [][2]string
	for i := range 600 {
		nodes = append(nodes, rawNode{id: fmt.Sprintf("n%03d", i), x: float64(i * 10)})
		if i > 0 {
			edges = append(edges, [2]string{fmt.Sprintf("n%03d", i-1), fmt.Sprintf("n%03d", i)})
		}
	}
	g := global(t, 0, nil, plan(floor.Ground, nodes, edges...))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Find(ctx, Request{Graph: g, Start: "g:n000", Goal: "g:n599"}, DefaultOptions())
	if err != context.Canceled {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeEscalator, false},
		{"Escalator", ModeEscalator, false},
		{" elevator ", ModeElevator, false},
		{"lift", ModeElevator, false},
		{"stairs", ModeEscalator, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v", tt.in, err)
			}
			if tt.wantErr && !errors.Is(err, errors.ErrCodeInvalidMode) {
				t.Errorf("error code = %s", errors.GetCode(err))
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"Defaults", DefaultOptions(), false},
		{"ZeroCap", Options{StorepathProximity: 10}, false},
		{"NegativeProximity", Options{StorepathProximity: -1, StorepathCap: 3}, true},
		{"NegativeCap", Options{StorepathProximity: 10, StorepathCap: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("code = %s, want INVALID_CONFIG", errors.GetCode(err))
			}

			// Find rejects the same options before searching.
			g := global(t, 0, nil, plan(floor.Ground, []rawNode{{id: "a"}, {id: "b", x: 10}}, [2]string{"a", "b"}))
			_, err = Find(context.Background(), Request{Graph: g, Start: "g:a", Goal: "g:b"}, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("Find() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Find() code = %s, want INVALID_CONFIG", errors.GetCode(err))
			}
		})
	}
}
