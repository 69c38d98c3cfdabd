package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/existflow/taskrelay/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertAndLoadAll(t *testing.T) {
	s := openTestStore(t)

	a := model.NewTask("first", "desc a")
	b := model.NewTask("second", "")
	for _, task := range []model.Task{a, b} {
		if err := s.Upsert(task); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	got, err := s.LoadAll()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(got))
	}
	if got[0].ID != a.ID || got[1].ID != b.ID {
		t.Errorf("insertion order not preserved: %s, %s", got[0].Title, got[1].Title)
	}
	if got[0].Title != "first" || got[0].Description != "desc a" {
		t.Errorf("fields mangled: %+v", got[0])
	}
	if got[0].SyncStatus != model.SyncPending {
		t.Errorf("expected pending, got %s", got[0].SyncStatus)
	}
}

func TestUpsertPreservesPosition(t *testing.T) {
	s := openTestStore(t)

	a := model.NewTask("first", "")
	b := model.NewTask("second", "")
	for _, task := range []model.Task{a, b} {
		if err := s.Upsert(task); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	a.Title = "first edited"
	a.Touch()
	if err := s.Upsert(a); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	got, err := s.LoadAll()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got[0].ID != a.ID {
		t.Errorf("edited task moved from position 0")
	}
	if got[0].Title != "first edited" {
		t.Errorf("edit not persisted: %q", got[0].Title)
	}
}

func TestSaveIfUnchanged(t *testing.T) {
	s := openTestStore(t)

	task := model.NewTask("guarded", "")
	if err := s.Upsert(task); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// Guard matches: write applies.
	updated := task
	updated.Title = "guarded v2"
	updated.MarkSynced(time.Now())
	applied, err := s.SaveIfUnchanged(updated, task.UpdatedAt)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !applied {
		t.Fatal("write with matching guard did not apply")
	}

	// Guard stale after a concurrent edit: write is skipped.
	concurrent := updated
	concurrent.Title = "user edit"
	concurrent.Touch()
	if err := s.Upsert(concurrent); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	stale := updated
	stale.Title = "stale pass result"
	applied, err = s.SaveIfUnchanged(stale, updated.UpdatedAt)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if applied {
		t.Fatal("stale write applied over a newer row")
	}

	got, _ := s.LoadAll()
	if got[0].Title != "user edit" {
		t.Errorf("newer row lost: %q", got[0].Title)
	}
}

func TestRemoveIfUnchanged(t *testing.T) {
	s := openTestStore(t)

	task := model.NewTask("guarded delete", "")
	if err := s.Upsert(task); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// Stale guard: row survives.
	applied, err := s.RemoveIfUnchanged(task.ID, task.UpdatedAt.Add(-time.Second))
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if applied {
		t.Fatal("delete applied with a stale guard")
	}
	if got, _ := s.LoadAll(); len(got) != 1 {
		t.Fatalf("row deleted despite stale guard")
	}

	applied, err = s.RemoveIfUnchanged(task.ID, task.UpdatedAt)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !applied {
		t.Fatal("delete with matching guard did not apply")
	}
	if got, _ := s.LoadAll(); len(got) != 0 {
		t.Errorf("expected empty store, got %d rows", len(got))
	}
}

func TestSetServerID(t *testing.T) {
	s := openTestStore(t)

	task := model.NewTask("late id", "")
	if err := s.Upsert(task); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := s.SetServerID(task.ID, "srv-77"); err != nil {
		t.Fatalf("set server id: %v", err)
	}

	got, _ := s.LoadAll()
	if got[0].ServerID != "srv-77" {
		t.Errorf("server ID not recorded: %q", got[0].ServerID)
	}
	if got[0].Title != "late id" || got[0].SyncStatus != model.SyncPending {
		t.Errorf("other fields disturbed: %+v", got[0])
	}
}

func TestRemove(t *testing.T) {
	s := openTestStore(t)

	task := model.NewTask("doomed", "")
	if err := s.Upsert(task); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.Remove(task.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.Remove("no-such-id"); err != nil {
		t.Fatalf("removing a missing ID should be a no-op, got %v", err)
	}

	got, err := s.LoadAll()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty store, got %d tasks", len(got))
	}
}

func TestPendingCount(t *testing.T) {
	s := openTestStore(t)

	pending := model.NewTask("pending", "")
	failed := model.NewTask("failed", "")
	failed.MarkError("boom")
	synced := model.NewTask("synced", "")
	synced.MarkSynced(time.Now())

	for _, task := range []model.Task{pending, failed, synced} {
		if err := s.Upsert(task); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	n, err := s.PendingCount()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 pending, got %d", n)
	}
}

func TestLastPullAt(t *testing.T) {
	s := openTestStore(t)

	got, err := s.LastPullAt()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("expected zero time before any pull, got %v", got)
	}

	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	if err := s.SetLastPullAt(at); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err = s.LastPullAt()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !got.Equal(at) {
		t.Errorf("expected %v, got %v", at, got)
	}

	// Overwrites on repeat.
	later := at.Add(time.Hour)
	if err := s.SetLastPullAt(later); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, _ = s.LastPullAt()
	if !got.Equal(later) {
		t.Errorf("expected %v, got %v", later, got)
	}
}

func TestNullFieldsRoundTrip(t *testing.T) {
	s := openTestStore(t)

	task := model.NewTask("bare", "")
	if err := s.Upsert(task); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.LoadAll()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got[0].ServerID != "" || got[0].SyncError != "" || got[0].LastSyncedAt != nil {
		t.Errorf("empty fields not round-tripped: %+v", got[0])
	}
}
