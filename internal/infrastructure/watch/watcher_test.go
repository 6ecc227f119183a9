package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestFileWatcher_DetectsWrite(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "prd.md")
	if err := os.WriteFile(target, []byte("initial"), 0600); err != nil {
		t.Fatal(err)
	}

	var count atomic.Int32
	var lastPath atomic.Value

	w, err := NewFileWatcher(target, 50*time.Millisecond, nil, func(e ChangeEvent) {
		count.Add(1)
		lastPath.Store(e.Path)
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)

	for i := 0; i < 3; i++ {
		if err := os.WriteFile(target, []byte("modified"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	time.Sleep(250 * time.Millisecond)
	cancel()

	if n := count.Load(); n != 1 {
		t.Errorf("expected one debounced event, got %d", n)
	}
	if got, _ := lastPath.Load().(string); got != w.Path() {
		t.Errorf("expected path %s, got %q", w.Path(), got)
	}
}

func TestFileWatcher_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "prd.md")
	if err := os.WriteFile(target, []byte("initial"), 0600); err != nil {
		t.Fatal(err)
	}

	var count atomic.Int32
	w, err := NewFileWatcher(target, 30*time.Millisecond, nil, func(ChangeEvent) { count.Add(1) })
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "notes.md"), []byte("other"), 0600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)

	if n := count.Load(); n != 0 {
		t.Errorf("expected no events for sibling files, got %d", n)
	}
}

func TestFileWatcher_MissingDirectory(t *testing.T) {
	_, err := NewFileWatcher(filepath.Join(t.TempDir(), "nope", "prd.md"), 0, nil, nil)
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestFileWatcher_ContextCancellation(t *testing.T) {
	target := filepath.Join(t.TempDir(), "prd.md")

	w, err := NewFileWatcher(target, 50*time.Millisecond, nil, func(ChangeEvent) {})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("watcher did not stop after context cancellation")
	}
}
