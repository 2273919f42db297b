// Package cache stores built navigation graphs.
//
// Graph construction reads every floor asset and runs the split and unify
// passes, so the serialized [graph.Global] is cached keyed by a hash of the
// inputs. Backends share the byte-oriented [Cache] interface:
//
//   - [FileCache] for the CLI, one JSON file per entry
//   - [RedisCache] and [MongoCache] for the HTTP server
//   - [None] to disable caching
//
// Every backend wraps the payload in an envelope carrying the key, the
// [FormatVersion] and the expiry. An entry whose envelope does not match the
// requested key or the current version reads as a miss.
//
// Use [Open] to construct a backend from [Options].
package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache is a byte store with optional per-entry expiry.
type Cache interface {
	// Get returns the stored bytes and true, or nil and false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// TTLGraph is the default lifetime of a cached graph. Keys already change
// with asset content, so the TTL only bounds storage growth.
const TTLGraph = 7 * 24 * time.Hour

// Backend names a cache implementation.
type Backend string

const (
	BackendFile  Backend = "file"
	BackendRedis Backend = "redis"
	BackendMongo Backend = "mongo"
	BackendNone  Backend = "none"
)

// Options selects and configures a backend.
type Options struct {
	Backend Backend
	Dir     string // file backend directory

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MongoURI        string
	MongoDatabase   string
	MongoCollection string
}

// Open constructs the backend named by opts.Backend. Network backends are
// pinged, retrying transient failures with backoff.
func Open(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Backend {
	case BackendNone, "":
		return None(), nil
	case BackendFile:
		fc, err := NewFileCache(opts.Dir)
		if err != nil {
			return nil, err
		}
		return fc, nil
	case BackendRedis:
		return NewRedisCache(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
	case BackendMongo:
		return NewMongoCache(ctx, opts.MongoURI, opts.MongoDatabase, opts.MongoCollection)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}

// None returns a cache that stores nothing.
func None() Cache { return nopCache{} }

type nopCache struct{}

func (nopCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (nopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (nopCache) Delete(context.Context, string) error { return nil }
func (nopCache) Close() error { return nil }
