package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func waitFor(t *testing.T, w *Watcher, path string, want Op) Event {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-w.Events():
			if !ok {
				t.Fatal("events channel closed")
			}
			if ev.Path == path && ev.Op&want != 0 {
				return ev
			}
		case err := <-w.Errors():
			t.Fatalf("watcher error: %v", err)
		case <-timeout:
			t.Fatalf("no %s event for %s", want, path)
		}
	}
}

func TestWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "prog.json")
	other := filepath.Join(dir, "other.json")
	for _, p := range []string{target, other} {
		if err := os.WriteFile(p, []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	w, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()

	if err := w.Add(target); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := w.Add(target); err != nil {
		t.Fatalf("second Add failed: %v", err)
	}
	if w.Files() != 1 {
		t.Errorf("expected 1 watched file, got %d", w.Files())
	}

	// Unwatched siblings in the same directory are filtered out.
	if err := os.WriteFile(other, []byte(`{"a":1}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(target, []byte(`{"b":2}`), 0o644); err != nil {
		t.Fatal(err)
	}

	ev := waitFor(t, w, target, OpWrite|OpCreate)
	if !ev.Op.Changed() {
		t.Errorf("expected a content change, got %s", ev.Op)
	}
}

func TestWatcherRemoveAndClose(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "prog.json")
	if err := os.WriteFile(target, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := w.Add(target); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := w.Remove(target); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := w.Remove(target); err != nil {
		t.Fatalf("removing twice should be a no-op, got %v", err)
	}
	if w.Files() != 0 {
		t.Errorf("expected no watched files, got %d", w.Files())
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	select {
	case _, ok := <-w.Events():
		if ok {
			t.Error("expected no events after Close")
		}
	case <-time.After(5 * time.Second):
		t.Error("events channel not closed after Close")
	}
}

func TestOpString(t *testing.T) {
	tests := []struct {
		op       Op
		expected string
	}{
		{0, "NONE"},
		{OpWrite, "WRITE"},
		{OpCreate | OpRename, "CREATE|RENAME"},
	}
	for _, test := range tests {
		if got := test.op.String(); got != test.expected {
			t.Errorf("Expected %q, got %q", test.expected, got)
		}
	}
	if OpChmod.Changed() || OpRemove.Changed() {
		t.Error("chmod and remove do not change contents")
	}
}
