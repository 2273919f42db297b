package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// buildingPrefix starts every key made by [NewBuildingKeyer].
const buildingPrefix = "building:"

// Keyer derives cache keys for built graphs. Routes are never cached.
type Keyer interface {
	// GraphKey identifies a unified graph built from a set of floor assets.
	GraphKey(opts GraphKeyOpts) string
}

// GraphKeyOpts lists every input that changes the built graph.
type GraphKeyOpts struct {
	// Assets maps floor prefix to the content hash of its asset.
	Assets          map[string]string `json:"assets"`
	Connectors      string            `json:"connectors"` // hash of the connector table
	SplitThreshold  float64           `json:"split_threshold"`
	FloorChangeCost float64           `json:"floor_change_cost"`
}

// DefaultKeyer hashes key options into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// GraphKey returns "graph:<sha256>". The hash covers [FormatVersion], so a
// format change also moves every key.
func (DefaultKeyer) GraphKey(opts GraphKeyOpts) string {
	h := sha256.New()
	// Encoding a struct of maps and scalars cannot fail; map keys are sorted.
	_ = json.NewEncoder(h).Encode(struct {
		Version int          `json:"v"`
		Opts    GraphKeyOpts `json:"opts"`
	}{FormatVersion, opts})
	return "graph:" + hex.EncodeToString(h.Sum(nil))
}

// ScopedKeyer wraps a Keyer with a prefix so several buildings can share one
// backend without colliding.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to every key.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// NewBuildingKeyer scopes keys to one building:
//
//	NewBuildingKeyer("northgate").GraphKey(opts) // "building:northgate:graph:..."
//
// [FileCache] files such keys under a directory named after the building.
func NewBuildingKeyer(name string) Keyer {
	return NewScopedKeyer(nil, buildingPrefix+name+":")
}

// GraphKey generates a prefixed graph key.
func (k *ScopedKeyer) GraphKey(opts GraphKeyOpts) string {
	return k.prefix + k.inner.GraphKey(opts)
}

// Hash returns the hex SHA-256 of data. Floor assets and the connector table
// are hashed with it before they enter a [GraphKeyOpts].
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
