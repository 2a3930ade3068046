package history

import (
	"context"
	"errors"
	"strings"
	"testing"

	"vidstudio/internal/services"
	"vidstudio/internal/testsupport"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return store
}

func TestOperationLifecycle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	id, err := store.Begin(ctx, "session-1", KindSilence, "intro.mp4")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := store.UpdateProgress(ctx, id, "detecting", 40); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if err := store.Complete(ctx, id, "/sessions/session-1/assets/intro.mp4"); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	ops, err := store.ListSession(ctx, "session-1")
	if err != nil {
		t.Fatalf("ListSession: %v", err)
	}
	if len(ops) != 1 {
		t.Fatalf("expected 1 operation, got %d", len(ops))
	}
	op := ops[0]
	if op.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", op.Status)
	}
	if op.Kind != KindSilence || op.Detail != "intro.mp4" {
		t.Fatalf("unexpected operation: %+v", op)
	}
	if op.ProgressPercent != 100 {
		t.Fatalf("completion should pin progress to 100, got %v", op.ProgressPercent)
	}
	if op.CreatedAt.IsZero() || op.UpdatedAt.Before(op.CreatedAt) {
		t.Fatalf("timestamps not recorded: %+v", op)
	}
}

func TestFailRecordsErrorKind(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	id, err := store.Begin(ctx, "session-2", KindExport, "")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	cause := services.Wrap(services.ErrExternalTool, "ffmpeg", "run", "exit status 1", nil)
	if err := store.Fail(ctx, id, cause); err != nil {
		t.Fatalf("Fail: %v", err)
	}

	ops, err := store.ListSession(ctx, "session-2")
	if err != nil {
		t.Fatalf("ListSession: %v", err)
	}
	if len(ops) != 1 || ops[0].Status != StatusFailed {
		t.Fatalf("unexpected operations: %+v", ops)
	}
	if !strings.HasPrefix(ops[0].ErrorMessage, "external_tool: ") {
		t.Fatalf("error kind not recorded: %q", ops[0].ErrorMessage)
	}
}

func TestJournalSurvivesReopen(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	store, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id, err := store.Begin(ctx, "session-r", KindExport, "final cut")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := store.Complete(ctx, id, "/renders/export_20260101_000000.mp4"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	ops, err := reopened.ListSession(ctx, "session-r")
	if err != nil {
		t.Fatalf("ListSession: %v", err)
	}
	if len(ops) != 1 || ops[0].Status != StatusCompleted || ops[0].OutputPath == "" {
		t.Fatalf("operation not persisted across reopen: %+v", ops)
	}
}

func TestCompleteUnknownOperation(t *testing.T) {
	store := openStore(t)
	err := store.Complete(context.Background(), 9999, "")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListNewestFirstWithLimit(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := store.Begin(ctx, "session-3", KindUpload, ""); err != nil {
			t.Fatalf("Begin: %v", err)
		}
	}
	ops, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("expected 2 operations, got %d", len(ops))
	}
	if ops[0].ID <= ops[1].ID {
		t.Fatalf("expected newest first, got ids %d, %d", ops[0].ID, ops[1].ID)
	}
}

func TestStatsAggregatesByStatus(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if _, err := store.Begin(ctx, "s", KindPreview, ""); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	done, err := store.Begin(ctx, "s", KindPreview, "")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := store.Complete(ctx, done, "/out.mp4"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	failed, err := store.Begin(ctx, "s", KindPreview, "")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := store.Fail(ctx, failed, errors.New("boom")); err != nil {
		t.Fatalf("Fail: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Running != 1 || stats.Completed != 1 || stats.Failed != 1 || stats.Total() != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
