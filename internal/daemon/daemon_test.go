package daemon_test

import (
	"context"
	"testing"

	"vidstudio/internal/daemon"
	"vidstudio/internal/history"
	"vidstudio/internal/logging"
	"vidstudio/internal/session"
	"vidstudio/internal/testsupport"
)

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	journal, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	registry := session.NewRegistry(cfg, journal, logging.NewNop())
	d, err := daemon.New(cfg, registry, journal, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	status := d.Status()
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.JournalPath == "" || status.LockFilePath == "" {
		t.Fatalf("expected paths in status: %+v", status)
	}

	// Second start should fail while running.
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestDaemonRestoresSessionsOnStart(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	registry := session.NewRegistry(cfg, nil, logging.NewNop())
	if _, err := registry.Create(); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Empty sessions restore to nothing: a fresh daemon should drop them.
	fresh := session.NewRegistry(cfg, nil, logging.NewNop())
	d, err := daemon.New(cfg, fresh, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	defer d.Close()

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := d.Status().Sessions; got != 0 {
		t.Fatalf("expected assetless session to be dropped on restore, got %d", got)
	}
	d.Stop()
}
