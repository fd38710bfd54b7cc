package jobstore

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/narralabs/narra-core/internal/config"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestOpenEphemeral(t *testing.T) {
	cfg := config.JobStoreConfig{RetentionMode: "ephemeral"}
	st, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if err := st.CreateRun(context.Background(), Run{RunID: "r1"}); err != nil {
		t.Fatalf("ephemeral create run should be a no-op: %v", err)
	}
	items, err := st.ListRunItems(context.Background(), "r1", 10)
	if err != nil || items != nil {
		t.Fatalf("ephemeral list should return nothing, got %v, %v", items, err)
	}
}

func TestRecordAndListRunItems(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.JobStoreConfig{Path: filepath.Join(tmp, "jobs.db"), RetentionMode: "session"}
	st, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open job store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	run := Run{RunID: "run-123", Kind: "batch", Voice: "Female (US)", ItemCount: 2}
	if err := st.CreateRun(context.Background(), run); err != nil {
		t.Fatalf("create run: %v", err)
	}
	if err := st.RecordItem(context.Background(), ItemRecord{
		RunID: "run-123", Position: 1, Name: "b.txt", Status: StatusFailed,
		ErrorKind: "synthesis:rejected", ErrorMessage: "invalid voice",
	}); err != nil {
		t.Fatalf("record item: %v", err)
	}
	if err := st.RecordItem(context.Background(), ItemRecord{
		RunID: "run-123", Position: 0, Name: "a.txt", Status: StatusCompleted, DurationMS: 420,
	}); err != nil {
		t.Fatalf("record item: %v", err)
	}

	items, err := st.ListRunItems(context.Background(), "run-123", 10)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Name != "a.txt" || items[1].Name != "b.txt" {
		t.Fatalf("expected position ordering, got %v", items)
	}
	if items[1].ErrorKind != "synthesis:rejected" {
		t.Fatalf("expected error kind preserved, got %q", items[1].ErrorKind)
	}
}

func TestPruneByDaysAndRuns(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.JobStoreConfig{Path: filepath.Join(tmp, "jobs.db"), RetentionMode: "persistent", RetentionDays: 1, MaxRuns: 1}
	st, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open job store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	st.clock = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	if err := st.CreateRun(context.Background(), Run{RunID: "old-run", Kind: "batch"}); err != nil {
		t.Fatalf("create run: %v", err)
	}
	if err := st.RecordItem(context.Background(), ItemRecord{RunID: "old-run", Name: "a.txt", Status: StatusCompleted}); err != nil {
		t.Fatalf("record item: %v", err)
	}

	st.clock = func() time.Time { return time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC) }
	if err := st.CreateRun(context.Background(), Run{RunID: "new-run", Kind: "single"}); err != nil {
		t.Fatalf("create run: %v", err)
	}
	if err := st.Prune(context.Background()); err != nil {
		t.Fatalf("prune: %v", err)
	}

	items, err := st.ListRunItems(context.Background(), "old-run", 10)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected old run pruned")
	}
}
