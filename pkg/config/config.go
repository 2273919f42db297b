// Package config loads the building configuration file.
//
// A configuration is a TOML document naming the floor assets, the vertical
// connector table, the routing tunables and the server and cache settings:
//
//	[building]
//	name = "northgate"
//	asset_dir = "assets"
//
//	[[floors]]
//	floor = "g"
//	asset = "ground.json"
//
//	[[floors]]
//	floor = "l1"
//	asset = "level1.json"
//
//	[[connectors]]
//	key = "escalator_mid"
//	kind = "escalator"
//	labels = ["esc_mid_g", "esc_mid_l1"]
//
//	[tuning]
//	split_threshold = 30
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "24h"
//
//	[server]
//	listen = ":8080"
//	watch = true
//
// Omitted keys keep the values of [Default]. Unknown keys are rejected.
package config

import (
	"io"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/wayfinder/pkg/cache"
	"github.com/matzehuels/wayfinder/pkg/clean"
	"github.com/matzehuels/wayfinder/pkg/directions"
	"github.com/matzehuels/wayfinder/pkg/errors"
	"github.com/matzehuels/wayfinder/pkg/floor"
	"github.com/matzehuels/wayfinder/pkg/graph"
	"github.com/matzehuels/wayfinder/pkg/pipeline"
	"github.com/matzehuels/wayfinder/pkg/route"
)

// Config is the root of the configuration file.
type Config struct {
	Building   Building    `toml:"building"`
	Floors     []FloorFile `toml:"floors" validate:"dive"`
	Connectors []Connector `toml:"connectors" validate:"dive"`
	Tuning     Tuning      `toml:"tuning"`
	Cache      Cache       `toml:"cache"`
	Server     Server      `toml:"server"`

	// dir is the directory of the loaded file; relative asset paths are
	// resolved against it.
	dir string
}

// Building names the building and where its assets live.
type Building struct {
	Name     string `toml:"name" validate:"omitempty,max=64,excludesall=:"`
	AssetDir string `toml:"asset_dir"`
}

// FloorFile binds a floor to its asset file.
type FloorFile struct {
	Floor string `toml:"floor" validate:"required,floor"`
	Asset string `toml:"asset" validate:"required,assetpath"`
}

// Connector is one vertical connector group.
type Connector struct {
	Key    string   `toml:"key" validate:"required"`
	Kind   string   `toml:"kind" validate:"required,oneof=escalator elevator"`
	Labels []string `toml:"labels" validate:"required,min=1,dive,required"`
}

// Tuning holds the routing tunables.
type Tuning struct {
	SplitThreshold     float64 `toml:"split_threshold" validate:"gte=0"`
	FloorChangeCost    float64 `toml:"floor_change_cost" validate:"gte=0"`
	StorepathProximity float64 `toml:"storepath_proximity" validate:"gte=0"`
	StorepathCap       int     `toml:"storepath_cap" validate:"gte=0"`
	CleanProximity     float64 `toml:"clean_proximity" validate:"gte=0"`
	CleanTolerance     float64 `toml:"clean_tolerance" validate:"gte=0"`
	MicroIntersection  float64 `toml:"micro_intersection" validate:"gte=0"`
	LandmarkRadius     float64 `toml:"landmark_radius" validate:"gte=0"`
	MetersPerUnit      float64 `toml:"meters_per_unit" validate:"gt=0"`
	FloorChangeMeters  float64 `toml:"floor_change_meters" validate:"gte=0"`
	EscalatorSpeed     float64 `toml:"escalator_speed" validate:"gt=0"`
	ElevatorSpeed      float64 `toml:"elevator_speed" validate:"gt=0"`
	Concurrency        int     `toml:"concurrency" validate:"gte=0"`
}

// Cache selects the graph cache backend.
type Cache struct {
	Backend         string   `toml:"backend" validate:"oneof=file redis mongo none"`
	Dir             string   `toml:"dir"`
	RedisAddr       string   `toml:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword   string   `toml:"redis_password"`
	RedisDB         int      `toml:"redis_db" validate:"gte=0"`
	MongoURI        string   `toml:"mongo_uri" validate:"required_if=Backend mongo"`
	MongoDatabase   string   `toml:"mongo_database" validate:"required_if=Backend mongo"`
	MongoCollection string   `toml:"mongo_collection"`
	TTL             Duration `toml:"ttl" validate:"gte=0"`
}

// Server configures the HTTP surface.
type Server struct {
	Listen        string   `toml:"listen" validate:"required,hostname_port"`
	ReadTimeout   Duration `toml:"read_timeout" validate:"gte=0"`
	WriteTimeout  Duration `toml:"write_timeout" validate:"gte=0"`
	RouteTimeout  Duration `toml:"route_timeout" validate:"gte=0"`
	Watch         bool     `toml:"watch"`
	WatchDebounce Duration `toml:"watch_debounce" validate:"gte=0"`
	SessionIdle   Duration `toml:"session_idle" validate:"gte=0"`
}

// Duration is a time.Duration written as a string ("1m30s") in TOML.
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns a configuration with every tunable at its default and no
// floors.
func Default() *Config {
	g := graph.DefaultOptions()
	r := route.DefaultOptions()
	c := clean.DefaultOptions()
	d := directions.DefaultOptions()
	return &Config{
		Tuning: Tuning{
			SplitThreshold:     g.SplitThreshold,
			FloorChangeCost:    g.FloorChangeCost,
			StorepathProximity: r.StorepathProximity,
			StorepathCap:       r.StorepathCap,
			CleanProximity:     c.Proximity,
			CleanTolerance:     c.Tolerance,
			MicroIntersection:  d.MicroIntersection,
			LandmarkRadius:     d.LandmarkRadius,
			MetersPerUnit:      d.MetersPerUnit,
			FloorChangeMeters:  d.FloorChangeMeters,
			EscalatorSpeed:     d.EscalatorSpeed,
			ElevatorSpeed:      d.ElevatorSpeed,
		},
		Cache: Cache{
			Backend: string(cache.BackendFile),
			TTL:     Duration(cache.TTLGraph),
		},
		Server: Server{
			Listen:        ":8080",
			ReadTimeout:   Duration(10 * time.Second),
			WriteTimeout:  Duration(30 * time.Second),
			RouteTimeout:  Duration(5 * time.Second),
			WatchDebounce: Duration(500 * time.Millisecond),
			SessionIdle:   Duration(30 * time.Minute),
		},
	}
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys %v", path, undecoded)
	}
	cfg.dir = filepath.Dir(path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode parses a configuration from r. Relative asset paths resolve
// against the working directory.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown keys %v", undecoded)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Write encodes c as TOML.
func (c *Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// AssetDir returns the directory floor assets are resolved against.
func (c *Config) AssetDir() string {
	dir := c.Building.AssetDir
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(c.dir, dir)
}

// Sources returns one pipeline source per configured floor.
func (c *Config) Sources() []pipeline.Source {
	out := make([]pipeline.Source, 0, len(c.Floors))
	for _, ff := range c.Floors {
		f, _ := floor.Parse(ff.Floor)
		out = append(out, pipeline.Source{
			Floor: f,
			Path:  filepath.Join(c.AssetDir(), ff.Asset),
		})
	}
	return out
}

// ConnectorTable builds the connector table from the [[connectors]] groups.
func (c *Config) ConnectorTable() graph.ConnectorTable {
	table := graph.ConnectorTable{}
	for _, conn := range c.Connectors {
		kind := graph.Escalator
		if conn.Kind == "elevator" {
			kind = graph.Elevator
		}
		table.Add(conn.Key, kind, conn.Labels...)
	}
	return table
}

// PipelineOptions maps the tunables onto the stage options.
func (c *Config) PipelineOptions() pipeline.Options {
	t := c.Tuning
	return pipeline.Options{
		Graph: graph.Options{
			SplitThreshold:  t.SplitThreshold,
			FloorChangeCost: t.FloorChangeCost,
		},
		Route: route.Options{
			StorepathProximity: t.StorepathProximity,
			StorepathCap:       t.StorepathCap,
		},
		Clean: clean.Options{
			Proximity: t.CleanProximity,
			Tolerance: t.CleanTolerance,
		},
		Directions: directions.Options{
			MicroIntersection: t.MicroIntersection,
			LandmarkRadius:    t.LandmarkRadius,
			MetersPerUnit:     t.MetersPerUnit,
			FloorChangeMeters: t.FloorChangeMeters,
			EscalatorSpeed:    t.EscalatorSpeed,
			ElevatorSpeed:     t.ElevatorSpeed,
		},
		Concurrency: t.Concurrency,
		GraphTTL:    c.Cache.TTL.Std(),
	}
}

// CacheOptions returns the backend settings. defaultDir is used by the file
// backend when no directory is configured.
func (c *Config) CacheOptions(defaultDir string) cache.Options {
	dir := c.Cache.Dir
	if dir == "" {
		dir = defaultDir
	}
	return cache.Options{
		Backend:         cache.Backend(c.Cache.Backend),
		Dir:             dir,
		RedisAddr:       c.Cache.RedisAddr,
		RedisPassword:   c.Cache.RedisPassword,
		RedisDB:         c.Cache.RedisDB,
		MongoURI:        c.Cache.MongoURI,
		MongoDatabase:   c.Cache.MongoDatabase,
		MongoCollection: c.Cache.MongoCollection,
	}
}

// Keyer scopes cache keys by building name so that several buildings can
// share one cache backend.
func (c *Config) Keyer() cache.Keyer {
	if c.Building.Name == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewBuildingKeyer(c.Building.Name)
}
