package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherBatchesChanges(t *testing.T) {
	dir := t.TempDir()
	batches := make(chan []string, 8)
	w, err := New([]string{dir}, func(_ context.Context, paths []string) {
		batches <- paths
	}, Options{Debounce: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	ground := filepath.Join(dir, "ground.json")
	level1 := filepath.Join(dir, "level1.json")
	for _, p := range []string{ground, level1, filepath.Join(dir, "notes.txt")} {
		if err := os.WriteFile(p, []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	seen := make(map[string]bool)
	timeout := time.After(5 * time.Second)
	for !seen[ground] || !seen[level1] {
		select {
		case paths := <-batches:
			for _, p := range paths {
				if filepath.Ext(p) != ".json" {
					t.Errorf("unmatched file reported: %s", p)
				}
				seen[p] = true
			}
		case <-timeout:
			t.Fatalf("timed out, saw %v", seen)
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewMissingDir(t *testing.T) {
	_, err := New([]string{filepath.Join(t.TempDir(), "absent")}, func(context.Context, []string) {}, Options{})
	if err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestIsJSON(t *testing.T) {
	tests := map[string]bool{
		"ground.json": true,
		"L1.JSON":     true,
		"plan.svg":    false,
		"json":        false,
	}
	for path, want := range tests {
		if got := isJSON(path); got != want {
			t.Errorf("isJSON(%q) = %v, want %v", path, got, want)
		}
	}
}
