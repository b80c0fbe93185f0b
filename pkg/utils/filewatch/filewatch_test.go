package filewatch_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	testctx "github.com/tabweave/tabweave/internal/testutils/context"
	"github.com/tabweave/tabweave/pkg/utils/filewatch"
)

func TestModified(t *testing.T) {
	t.Run("it streams a notice when a file under the path changes", func(t *testing.T) {
		ctx, cancel := testctx.WithTest(context.Background(), t)
		defer cancel()
		ctx, timeout := context.WithTimeout(ctx, 5*time.Second)
		defer timeout()

		dir := t.TempDir()
		modified, err := filewatch.Modified(ctx, dir)
		if err != nil {
			t.Fatalf("watching caused error: %v", err)
		}

		target := filepath.Join(dir, "run.json")
		if err := os.WriteFile(target, []byte("{}"), 0o644); err != nil {
			t.Fatalf("writing caused error: %v", err)
		}

		select {
		case name, ok := <-modified:
			if !ok {
				t.Fatal("the stream closed without a notice")
			}
			if name != target {
				t.Errorf("unmatch name:%s, expected:%s", name, target)
			}
		case <-ctx.Done():
			t.Fatal("no notice arrived before timeout")
		}
	})

	t.Run("it streams a notice for a file in a subdirectory found at start", func(t *testing.T) {
		ctx, cancel := testctx.WithTest(context.Background(), t)
		defer cancel()
		ctx, timeout := context.WithTimeout(ctx, 5*time.Second)
		defer timeout()

		dir := t.TempDir()
		sub := filepath.Join(dir, "20240610T093000.000Z-cafe")
		if err := os.MkdirAll(sub, 0o755); err != nil {
			t.Fatalf("mkdir caused error: %v", err)
		}

		modified, err := filewatch.Modified(ctx, dir)
		if err != nil {
			t.Fatalf("watching caused error: %v", err)
		}

		target := filepath.Join(sub, "run.json")
		if err := os.WriteFile(target, []byte("{}"), 0o644); err != nil {
			t.Fatalf("writing caused error: %v", err)
		}

		waitForNotice(t, ctx, modified, target)
	})

	t.Run("it streams a notice for a file in a subdirectory created while watching", func(t *testing.T) {
		ctx, cancel := testctx.WithTest(context.Background(), t)
		defer cancel()
		ctx, timeout := context.WithTimeout(ctx, 5*time.Second)
		defer timeout()

		dir := t.TempDir()
		modified, err := filewatch.Modified(ctx, dir)
		if err != nil {
			t.Fatalf("watching caused error: %v", err)
		}

		sub := filepath.Join(dir, "20240610T093001.000Z-feed")
		if err := os.MkdirAll(sub, 0o755); err != nil {
			t.Fatalf("mkdir caused error: %v", err)
		}
		// the notice for the new directory proves it is watched now
		waitForNotice(t, ctx, modified, sub)

		target := filepath.Join(sub, "run.json")
		if err := os.WriteFile(target, []byte("{}"), 0o644); err != nil {
			t.Fatalf("writing caused error: %v", err)
		}

		waitForNotice(t, ctx, modified, target)
	})

	t.Run("the stream closes when the context is done", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		modified, err := filewatch.Modified(ctx, t.TempDir())
		if err != nil {
			t.Fatalf("watching caused error: %v", err)
		}

		cancel()

		deadline := time.After(5 * time.Second)
		for {
			select {
			case _, ok := <-modified:
				if !ok {
					return // closed, as expected
				}
			case <-deadline:
				t.Fatal("the stream did not close")
			}
		}
	})

	t.Run("it fails to watch a missing path", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if _, err := filewatch.Modified(ctx, "/no/such/path"); err == nil {
			t.Error("watching should fail, but not")
		}
	})
}

// waitForNotice drains modified until target is noticed.
func waitForNotice(t *testing.T, ctx context.Context, modified <-chan string, target string) {
	t.Helper()
	for {
		select {
		case name, ok := <-modified:
			if !ok {
				t.Fatalf("the stream closed before a notice for %s", target)
			}
			if name == target {
				return
			}
		case <-ctx.Done():
			t.Fatalf("no notice for %s arrived before timeout", target)
		}
	}
}
