package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/aurora-obs/aurora-core/internal/indi"
	"github.com/aurora-obs/aurora-core/internal/infrastructure/config"
)

func testJournal(t *testing.T) *Journal {
	t.Helper()
	cfg := config.JournalConfig{
		Enabled:     true,
		Path:        filepath.Join(t.TempDir(), "journal.db"),
		BusyTimeout: 1,
	}
	j, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func testNote(uid, device, message string) indi.Notification {
	return indi.Notification{
		UID:       uid,
		Device:    device,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Message:   message,
	}
}

func TestOpen_Disabled(t *testing.T) {
	_, err := Open(config.JournalConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Open() error = %v, want ErrDisabled", err)
	}
}

func TestOpen_CreatesDirectory(t *testing.T) {
	cfg := config.JournalConfig{
		Enabled: true,
		Path:    filepath.Join(t.TempDir(), "nested", "dir", "journal.db"),
	}
	j, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer j.Close()

	if j.Path() != cfg.Path {
		t.Errorf("Path() = %q, want %q", j.Path(), cfg.Path)
	}
}

func TestAppendAndRecent(t *testing.T) {
	j := testJournal(t)
	ctx := context.Background()

	notes := []indi.Notification{
		testNote("2026-01-01T00:00:00.000000000Z:00000000", "CCD Simulator", "exposure started"),
		testNote("2026-01-01T00:00:01.000000000Z:00000000", "CCD Simulator", "exposure complete"),
		testNote("2026-01-01T00:00:02.000000000Z:00000000", "", "server note"),
	}
	for _, n := range notes {
		if err := j.Append(ctx, n); err != nil {
			t.Fatalf("Append(%q) error = %v", n.UID, err)
		}
	}

	got, err := j.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Recent() returned %d entries, want 3", len(got))
	}

	// Newest first
	if got[0].Message != "server note" {
		t.Errorf("Recent()[0].Message = %q, want %q", got[0].Message, "server note")
	}
	if got[2].Device != "CCD Simulator" {
		t.Errorf("Recent()[2].Device = %q, want %q", got[2].Device, "CCD Simulator")
	}
}

func TestAppend_DuplicateUID(t *testing.T) {
	j := testJournal(t)
	ctx := context.Background()

	note := testNote("2026-01-01T00:00:00.000000000Z:00000000", "Telescope", "slewing")
	if err := j.Append(ctx, note); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	// Replaying the same note must not create a second row
	if err := j.Append(ctx, note); err != nil {
		t.Fatalf("Append() duplicate error = %v", err)
	}

	got, err := j.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Recent() returned %d entries after duplicate append, want 1", len(got))
	}
}

func TestAppend_MissingUID(t *testing.T) {
	j := testJournal(t)

	err := j.Append(context.Background(), indi.Notification{Message: "no uid"})
	if err == nil {
		t.Error("Append() should reject a notification without a UID")
	}
}

func TestRecent_Limit(t *testing.T) {
	j := testJournal(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		note := testNote(
			time.Date(2026, 1, 1, 0, 0, i, 0, time.UTC).Format("2006-01-02T15:04:05.000000000Z")+":00000000",
			"dome", "azimuth update",
		)
		if err := j.Append(ctx, note); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	got, err := j.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 3 {
		t.Errorf("Recent(3) returned %d entries, want 3", len(got))
	}
}

func TestPrune(t *testing.T) {
	j := testJournal(t)
	ctx := context.Background()

	if _, err := j.Prune(ctx, 0); err == nil {
		t.Error("Prune(0) should return an error")
	}

	note := testNote("2026-01-01T00:00:00.000000000Z:00000000", "focuser", "moving")
	if err := j.Append(ctx, note); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	// Nothing is older than 24h yet
	deleted, err := j.Prune(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 0 {
		t.Errorf("Prune() deleted %d rows, want 0", deleted)
	}
}

func TestHealthCheck(t *testing.T) {
	j := testJournal(t)

	if err := j.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestClose_Nil(t *testing.T) {
	var j *Journal
	if err := j.Close(); err != nil {
		t.Errorf("Close() on nil journal error = %v", err)
	}
}
