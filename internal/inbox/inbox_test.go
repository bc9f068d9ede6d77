package inbox

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRunReportsSettledFITFiles(t *testing.T) {
	dir := t.TempDir()
	in, err := New(dir, 50*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan string, 4)
	done := make(chan error, 1)
	go func() { done <- in.Run(ctx, func(path string) { got <- path }) }()

	target := filepath.Join(dir, "morning.FIT")
	f, err := os.Create(target)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := f.Write([]byte("chunk")); err != nil {
			t.Fatal(err)
		}
	}
	f.Close()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case path := <-got:
		if path != target {
			t.Fatalf("got %q, want %q", path, target)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the activity")
	}

	select {
	case path := <-got:
		t.Fatalf("unexpected second notification for %q", path)
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewFailsForMissingDir(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "absent"), 0, nil); err == nil {
		t.Fatal("expected error for a missing directory")
	}
}

func TestIsFIT(t *testing.T) {
	cases := map[string]bool{
		"run.fit":      true,
		"RUN.FIT":      true,
		"run.fit.part": false,
		"run.gpx":      false,
	}
	for name, want := range cases {
		if got := isFIT(name); got != want {
			t.Errorf("isFIT(%q) = %v, want %v", name, got, want)
		}
	}
}
