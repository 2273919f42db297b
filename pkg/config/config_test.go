package config

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/wayfinder/pkg/cache"
	"github.com/matzehuels/wayfinder/pkg/errors"
	"github.com/matzehuels/wayfinder/pkg/floor"
	"github.com/matzehuels/wayfinder/pkg/graph"
	"github.com/matzehuels/wayfinder/pkg/pipeline"
)

const sample = `
[building]
name = "northgate"
asset_dir = "assets"

[[floors]]
floor = "g"
asset = "ground.json"

[[floors]]
floor = "l1"
asset = "level1.json"

[[connectors]]
key = "escalator_mid"
kind = "escalator"
labels = ["esc_mid_g", "esc_mid_l1"]

[[connectors]]
key = "lift_a"
kind = "elevator"
labels = ["lift_a"]

[tuning]
split_threshold = 25
storepath_cap = 2
escalator_speed = 1.5

[cache]
backend = "none"
ttl = "24h"

[server]
listen = "127.0.0.1:9090"
watch = true
read_timeout = "3s"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wayfinder.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, sample)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Building.Name != "northgate" {
		t.Errorf("Building.Name = %q", cfg.Building.Name)
	}
	if cfg.Tuning.SplitThreshold != 25 || cfg.Tuning.StorepathCap != 2 {
		t.Errorf("Tuning = %+v", cfg.Tuning)
	}
	// Keys not in the file keep their defaults.
	if cfg.Tuning.LandmarkRadius != Default().Tuning.LandmarkRadius {
		t.Errorf("LandmarkRadius = %v, want default", cfg.Tuning.LandmarkRadius)
	}
	if cfg.Cache.TTL.Std() != 24*time.Hour || cfg.Server.ReadTimeout.Std() != 3*time.Second {
		t.Errorf("durations = %v, %v", cfg.Cache.TTL.Std(), cfg.Server.ReadTimeout.Std())
	}
	if !cfg.Server.Watch || cfg.Server.Listen != "127.0.0.1:9090" {
		t.Errorf("Server = %+v", cfg.Server)
	}

	dir := filepath.Dir(path)
	want := []pipeline.Source{
		{Floor: floor.Ground, Path: filepath.Join(dir, "assets", "ground.json")},
		{Floor: floor.First, Path: filepath.Join(dir, "assets", "level1.json")},
	}
	if got := cfg.Sources(); !reflect.DeepEqual(got, want) {
		t.Errorf("Sources() = %+v, want %+v", got, want)
	}
}

func TestConnectorTable(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	if err != nil {
		t.Fatal(err)
	}
	table := cfg.ConnectorTable()
	want := graph.ConnectorTable{}
	want.Add("escalator_mid", graph.Escalator, "esc_mid_g", "esc_mid_l1")
	want.Add("lift_a", graph.Elevator, "lift_a")
	if !reflect.DeepEqual(table, want) {
		t.Errorf("ConnectorTable() = %+v, want %+v", table, want)
	}
}

func TestPipelineOptions(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	if err != nil {
		t.Fatal(err)
	}
	opts := cfg.PipelineOptions()
	if opts.Graph.SplitThreshold != 25 || opts.Route.StorepathCap != 2 || opts.Directions.EscalatorSpeed != 1.5 {
		t.Errorf("options = %+v", opts)
	}
	if opts.GraphTTL != 24*time.Hour {
		t.Errorf("GraphTTL = %v", opts.GraphTTL)
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("mapped options invalid: %v", err)
	}

	// The defaults map onto the stage defaults exactly.
	def := Default().PipelineOptions()
	std := pipeline.DefaultOptions()
	if def.Graph != std.Graph || def.Route != std.Route || def.Clean != std.Clean || def.Directions != std.Directions {
		t.Errorf("Default().PipelineOptions() = %+v, want %+v", def, std)
	}
}

func TestCacheOptionsAndKeyer(t *testing.T) {
	cfg := Default()
	opts := cfg.CacheOptions("/tmp/fallback")
	if opts.Backend != cache.BackendFile || opts.Dir != "/tmp/fallback" {
		t.Errorf("CacheOptions = %+v", opts)
	}
	cfg.Cache.Dir = "/var/cache/wayfinder"
	if got := cfg.CacheOptions("/tmp/fallback").Dir; got != "/var/cache/wayfinder" {
		t.Errorf("Dir = %q", got)
	}

	if key := cfg.Keyer().GraphKey(cache.GraphKeyOpts{}); !strings.HasPrefix(key, "graph:") {
		t.Errorf("unnamed building key = %q", key)
	}
	cfg.Building.Name = "northgate"
	if key := cfg.Keyer().GraphKey(cache.GraphKeyOpts{}); !strings.HasPrefix(key, "building:northgate:graph:") {
		t.Errorf("named building key = %q", key)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"Syntax", "[building\nname = 1", "parse"},
		{"UnknownKey", "[tuning]\nsplit_treshold = 3", "unknown keys"},
		{"BadFloor", "[[floors]]\nfloor = \"l9\"\nasset = \"x.json\"", "floors[0].floor: failed floor"},
		{"Traversal", "[[floors]]\nfloor = \"g\"\nasset = \"../x.json\"", "floors[0].asset: failed assetpath"},
		{"DuplicateFloor", "[[floors]]\nfloor = \"g\"\nasset = \"a.json\"\n[[floors]]\nfloor = \"g\"\nasset = \"b.json\"", "configured twice"},
		{"BadKind", "[[connectors]]\nkey = \"x\"\nkind = \"stairs\"\nlabels = [\"a\"]", "connectors[0].kind: failed oneof"},
		{"NoLabels", "[[connectors]]\nkey = \"x\"\nkind = \"elevator\"", "connectors[0].labels: failed required"},
		{"DuplicateConnector", "[[connectors]]\nkey = \"x\"\nkind = \"elevator\"\nlabels = [\"a\"]\n[[connectors]]\nkey = \"x\"\nkind = \"elevator\"\nlabels = [\"b\"]", "configured twice"},
		{"NegativeThreshold", "[tuning]\nsplit_threshold = -1", "tuning.split_threshold: failed gte=0"},
		{"ZeroSpeed", "[tuning]\nelevator_speed = 0", "tuning.elevator_speed: failed gt=0"},
		{"Backend", "[cache]\nbackend = \"memcached\"", "cache.backend: failed oneof"},
		{"RedisWithoutAddr", "[cache]\nbackend = \"redis\"", "cache.redis_addr: failed required_if"},
		{"BadDuration", "[cache]\nttl = \"forever\"", "parse"},
		{"BadListen", "[server]\nlisten = \"nowhere\"", "server.listen: failed hostname_port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("code = %q, want INVALID_CONFIG", errors.GetCode(err))
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v", err)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	cfg, err := Decode(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	var buf bytes.Buffer
	if err := cfg.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	again, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode(Write()): %v\n%s", err, buf.String())
	}
	if !reflect.DeepEqual(cfg, again) {
		t.Errorf("round trip changed config:\n%+v\n%+v", cfg, again)
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}
