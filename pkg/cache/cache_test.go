package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var errTransient = errors.New("transient")

func TestNone(t *testing.T) {
	ctx := context.Background()
	c := None()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("None should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

// writeEntry places a raw envelope where c would look for key.
func writeEntry(t *testing.T, c *FileCache, key string, e entry) string {
	t.Helper()
	raw, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	t.Run("RoundTrip", func(t *testing.T) {
		if err := c.Set(ctx, "graph:abc", []byte(`{"nodes":[]}`), 0); err != nil {
			t.Fatalf("Set: %v", err)
		}
		data, hit, err := c.Get(ctx, "graph:abc")
		if err != nil || !hit {
			t.Fatalf("Get = hit %v, err %v", hit, err)
		}
		if string(data) != `{"nodes":[]}` {
			t.Errorf("data = %s", data)
		}
	})

	t.Run("Miss", func(t *testing.T) {
		_, hit, err := c.Get(ctx, "missing")
		if err != nil || hit {
			t.Errorf("Get = hit %v, err %v", hit, err)
		}
	})

	t.Run("Expired", func(t *testing.T) {
		if err := c.Set(ctx, "short", []byte("x"), time.Nanosecond); err != nil {
			t.Fatal(err)
		}
		time.Sleep(time.Millisecond)
		if _, hit, _ := c.Get(ctx, "short"); hit {
			t.Error("expired entry returned")
		}
	})

	rejected := []struct {
		name  string
		key   string
		write func(t *testing.T, key string)
	}{
		{
			name: "Corrupt",
			key:  "corrupt",
			write: func(t *testing.T, key string) {
				path := writeEntry(t, c, key, entry{})
				if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
					t.Fatal(err)
				}
			},
		},
		{
			name: "OtherVersion",
			key:  "old",
			write: func(t *testing.T, key string) {
				writeEntry(t, c, key, entry{Version: FormatVersion + 1, Key: key, Data: []byte("x")})
			},
		},
		{
			name: "OtherKey",
			key:  "mine",
			write: func(t *testing.T, key string) {
				writeEntry(t, c, key, entry{Version: FormatVersion, Key: "theirs", Data: []byte("x")})
			},
		},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			tt.write(t, tt.key)
			path := c.path(tt.key)
			if _, hit, err := c.Get(ctx, tt.key); hit || err != nil {
				t.Errorf("Get = hit %v, err %v", hit, err)
			}
			if _, err := os.Stat(path); !os.IsNotExist(err) {
				t.Error("rejected entry not removed")
			}
		})
	}

	t.Run("Delete", func(t *testing.T) {
		_ = c.Set(ctx, "gone", []byte("x"), 0)
		if err := c.Delete(ctx, "gone"); err != nil {
			t.Fatal(err)
		}
		if _, hit, _ := c.Get(ctx, "gone"); hit {
			t.Error("deleted entry returned")
		}
		if err := c.Delete(ctx, "gone"); err != nil {
			t.Errorf("second Delete: %v", err)
		}
	})
}

func TestFileCacheLayout(t *testing.T) {
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name  string
		key   string
		scope string
	}{
		{"Building", "building:northgate:graph:1", "northgate"},
		{"Traversal", "building:../etc:graph:1", "___etc"},
		{"EmptyName", "building::graph:1", sharedScope},
		{"Unscoped", "graph:1", sharedScope},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Set(context.Background(), tt.key, []byte("x"), 0); err != nil {
				t.Fatal(err)
			}
			rel, err := filepath.Rel(dir, c.path(tt.key))
			if err != nil {
				t.Fatal(err)
			}
			parts := strings.Split(rel, string(filepath.Separator))
			if len(parts) != 3 || parts[0] != tt.scope || len(parts[1]) != 2 {
				t.Errorf("path = %s, want %s/<ab>/<hash>.json", rel, tt.scope)
			}
			if _, err := os.Stat(c.path(tt.key)); err != nil {
				t.Errorf("entry not written: %v", err)
			}
		})
	}
}

func TestFileCachePrune(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "building:a:graph:fresh", []byte("x"), time.Hour); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "building:a:graph:old", []byte("x"), time.Minute); err != nil {
		t.Fatal(err)
	}
	writeEntry(t, c, "building:b:graph:stale", entry{Version: 0, Key: "building:b:graph:stale"})
	// A valid entry copied under another key's path.
	writeEntry(t, c, "building:b:graph:moved", entry{Version: FormatVersion, Key: "building:a:graph:fresh"})

	c.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	removed, err := c.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}
	if _, hit, _ := c.Get(ctx, "building:a:graph:fresh"); !hit {
		t.Error("fresh entry pruned")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := c.Prune(cancelled); !errors.Is(err, context.Canceled) {
		t.Errorf("Prune on cancelled context = %v", err)
	}
}

func TestFileCacheEmptyDir(t *testing.T) {
	if _, err := NewFileCache(""); err == nil {
		t.Error("expected error for empty directory")
	}
}

func TestEntryCheck(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	raw, err := seal("k", []byte("payload"), time.Hour, now)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		key  string
		at   time.Time
		want error
	}{
		{"Current", "k", now.Add(time.Minute), nil},
		{"OtherKey", "j", now, errMisfiled},
		{"Expired", "k", now.Add(2 * time.Hour), errExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := unseal(tt.key, raw, tt.at)
			if !errors.Is(err, tt.want) {
				t.Fatalf("unseal error = %v, want %v", err, tt.want)
			}
			if err == nil && string(data) != "payload" {
				t.Errorf("data = %q", data)
			}
		})
	}

	stale := newEntry("k", nil, 0, now)
	stale.Version = FormatVersion - 1
	if _, err := stale.check("k", now); !errors.Is(err, errStale) {
		t.Errorf("stale check = %v", err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		opts    Options
		want    string
		wantErr bool
	}{
		{name: "Default", opts: Options{}, want: "cache.nopCache"},
		{name: "None", opts: Options{Backend: BackendNone}, want: "cache.nopCache"},
		{name: "File", opts: Options{Backend: BackendFile, Dir: t.TempDir()}, want: "*cache.FileCache"},
		{name: "FileNoDir", opts: Options{Backend: BackendFile}, wantErr: true},
		{name: "Unknown", opts: Options{Backend: "memcached"}, wantErr: true},
		{name: "RedisNoAddr", opts: Options{Backend: BackendRedis}, wantErr: true},
		{name: "MongoNoURI", opts: Options{Backend: BackendMongo}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Open(ctx, tt.opts)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				if c != nil {
					t.Errorf("failed Open returned %T", c)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer c.Close()
			if got := fmt.Sprintf("%T", c); got != tt.want {
				t.Errorf("backend = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	base := GraphKeyOpts{Assets: map[string]string{"g": "aa", "l1": "bb"}, SplitThreshold: 30}
	gk := k.GraphKey(base)
	if !strings.HasPrefix(gk, "graph:") || len(gk) != len("graph:")+64 {
		t.Errorf("GraphKey = %s", gk)
	}
	if gk != k.GraphKey(GraphKeyOpts{Assets: map[string]string{"l1": "bb", "g": "aa"}, SplitThreshold: 30}) {
		t.Error("GraphKey should not depend on map order")
	}
	changed := base
	changed.SplitThreshold = 40
	if gk == k.GraphKey(changed) {
		t.Error("Different split thresholds should produce different keys")
	}
}

func TestBuildingKeyer(t *testing.T) {
	north := NewBuildingKeyer("north")
	gk := north.GraphKey(GraphKeyOpts{})
	if !strings.HasPrefix(gk, "building:north:graph:") {
		t.Errorf("GraphKey should be prefixed: %s", gk)
	}
	if scopeOf(gk) != "north" {
		t.Errorf("scopeOf(%s) = %s", gk, scopeOf(gk))
	}
	if NewBuildingKeyer("south").GraphKey(GraphKeyOpts{}) == gk {
		t.Error("scopes should not collide")
	}
	if NewScopedKeyer(nil, "x:").GraphKey(GraphKeyOpts{}) != "x:"+NewDefaultKeyer().GraphKey(GraphKeyOpts{}) {
		t.Error("nil inner keyer should fall back to the default keyer")
	}
}

func TestBackoffPing(t *testing.T) {
	b := backoff{attempts: 3, delay: time.Millisecond}
	ctx := context.Background()

	tests := []struct {
		name      string
		failUntil int
		wantCalls int
		wantErr   bool
	}{
		{name: "FirstTry", failUntil: 0, wantCalls: 1},
		{name: "RecoversAfterRetry", failUntil: 1, wantCalls: 2},
		{name: "GivesUp", failUntil: 5, wantCalls: 3, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := b.ping(ctx, "test", func(context.Context) error {
				calls++
				if calls <= tt.failUntil {
					return errTransient
				}
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrUnavailable) {
				t.Errorf("err = %v, want ErrUnavailable", err)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestBackoffPingContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := connectBackoff.ping(ctx, "test", func(context.Context) error {
		calls++
		return errTransient
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
