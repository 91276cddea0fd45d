// file: internal/watcher/watcher_test.go
// version: 2.0.0
// guid: a1b2c3d4-e5f6-7890-abcd-ef1234567890

package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jdfalk/bookshelf/internal/fileops"
)

func TestDebounceSingleEvent(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "library.json")

	var calls atomic.Int32
	w := New(func(path string) {
		calls.Add(1)
	}, 100*time.Millisecond)

	if err := w.Start(target); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(target, []byte("[]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	// Wait for debounce + buffer.
	time.Sleep(300 * time.Millisecond)

	if c := calls.Load(); c != 1 {
		t.Errorf("expected 1 callback, got %d", c)
	}
}

func TestCallbackReceivesAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "library.json")

	got := make(chan string, 1)
	w := New(func(path string) {
		got <- path
	}, 50*time.Millisecond)
	if err := w.Start(target); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	_ = os.WriteFile(target, []byte("[]"), 0644)

	select {
	case path := <-got:
		if !filepath.IsAbs(path) || filepath.Base(path) != "library.json" {
			t.Errorf("unexpected callback path %q", path)
		}
	case <-time.After(time.Second):
		t.Fatal("callback not invoked")
	}
}

func TestDebounceMultipleEvents(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "library.json")

	var calls atomic.Int32
	w := New(func(path string) {
		calls.Add(1)
	}, 200*time.Millisecond)

	if err := w.Start(target); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// Rapid-fire writes within the debounce window.
	for i := 0; i < 5; i++ {
		_ = os.WriteFile(target, []byte{byte('a' + i)}, 0644)
		time.Sleep(30 * time.Millisecond)
	}

	// Wait for debounce to fire.
	time.Sleep(400 * time.Millisecond)

	if c := calls.Load(); c != 1 {
		t.Errorf("expected exactly 1 debounced callback, got %d", c)
	}
}

func TestOtherFilesIgnored(t *testing.T) {
	dir := t.TempDir()

	var calls atomic.Int32
	w := New(func(path string) {
		calls.Add(1)
	}, 100*time.Millisecond)

	if err := w.Start(filepath.Join(dir, "library.json")); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	_ = os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("hi"), 0644)
	_ = os.WriteFile(filepath.Join(dir, "library.json.bak"), []byte("[]"), 0644)

	time.Sleep(300 * time.Millisecond)

	if c := calls.Load(); c != 0 {
		t.Errorf("expected 0 callbacks for unrelated files, got %d", c)
	}
}

func TestAtomicReplaceTriggers(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "library.json")
	_ = os.WriteFile(target, []byte("[]\n"), 0644)

	var calls atomic.Int32
	w := New(func(string) {
		calls.Add(1)
	}, 100*time.Millisecond)
	if err := w.Start(target); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := fileops.WriteFileAtomic(target, []byte("[ ]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)

	if c := calls.Load(); c != 1 {
		t.Errorf("expected 1 callback after rename over the file, got %d", c)
	}
}

func TestStartFailsForMissingDirectory(t *testing.T) {
	w := New(func(string) {}, 0)
	if err := w.Start(filepath.Join(t.TempDir(), "missing", "library.json")); err == nil {
		w.Stop()
		t.Fatal("expected error for a missing directory")
	}
	w.Stop() // no-op after a failed start
}

func TestStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	w := New(func(string) {}, 100*time.Millisecond)
	if err := w.Start(filepath.Join(dir, "library.json")); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop() // should not panic
}

func TestStartIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "library.json")
	w := New(func(string) {}, 100*time.Millisecond)
	if err := w.Start(target); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	// Second start should be a no-op.
	if err := w.Start(target); err != nil {
		t.Fatal(err)
	}
}

func TestDeleteTriggers(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "library.json")
	_ = os.WriteFile(f, []byte("[]"), 0644)

	var mu sync.Mutex
	var called bool
	w := New(func(string) {
		mu.Lock()
		called = true
		mu.Unlock()
	}, 100*time.Millisecond)

	if err := w.Start(f); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// Give watcher time to register.
	time.Sleep(50 * time.Millisecond)

	_ = os.Remove(f)
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if !called {
		t.Error("expected callback on file deletion")
	}
}
