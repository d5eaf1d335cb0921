package catalog_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"wrtcli/src/backup/catalog"
)

func newStore(t *testing.T, device string) *catalog.Store {
	t.Helper()
	s, err := catalog.NewStore(device, filepath.Join(t.TempDir(), device))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func writeTemp(t *testing.T, dir, content string) string {
	t.Helper()
	f, err := os.CreateTemp(dir, "arch-*.tmp")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp: %v", err)
	}
	return f.Name()
}

func TestStore_AddThenGet(t *testing.T) {
	s := newStore(t, "router1")
	s.Now = func() time.Time { return time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC) }

	tmp := writeTemp(t, s.Dir, "archive-bytes")
	rec, err := s.Add(tmp, "before upgrade", "ubus")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if rec.ID != "20250301_103000" {
		t.Fatalf("unexpected id: %s", rec.ID)
	}
	if rec.Filename != "20250301_103000_full_backup.tar.gz" {
		t.Fatalf("unexpected filename: %s", rec.Filename)
	}
	if rec.SizeBytes != int64(len("archive-bytes")) {
		t.Fatalf("unexpected size: %d", rec.SizeBytes)
	}

	got, err := s.Get(rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != rec.ID || got.Filename != rec.Filename || got.SizeBytes != rec.SizeBytes {
		t.Fatalf("get returned %+v, want %+v", got, rec)
	}
	if _, err := os.Stat(s.ArchivePath(got)); err != nil {
		t.Fatalf("backing file missing: %v", err)
	}
	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		t.Fatalf("temp archive should have been moved, stat err: %v", err)
	}
}

func TestStore_ListCreationOrder(t *testing.T) {
	s := newStore(t, "router1")
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		now := base.Add(time.Duration(i) * time.Minute)
		s.Now = func() time.Time { return now }
		if _, err := s.Add(writeTemp(t, s.Dir, "x"), "", "ubus"); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	records, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	for i := 1; i < len(records); i++ {
		if !records[i-1].CreatedAt.Before(records[i].CreatedAt) {
			t.Fatalf("records out of creation order: %v", records)
		}
	}
}

func TestStore_IDCollisionGetsSuffix(t *testing.T) {
	s := newStore(t, "router1")
	s.Now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }

	first, err := s.Add(writeTemp(t, s.Dir, "a"), "", "ubus")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	second, err := s.Add(writeTemp(t, s.Dir, "b"), "", "ubus")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if first.ID != "20250301_100000" {
		t.Fatalf("unexpected first id: %s", first.ID)
	}
	if second.ID != "20250301_100000-1" {
		t.Fatalf("expected suffixed id, got %s", second.ID)
	}
}

func TestStore_Remove(t *testing.T) {
	s := newStore(t, "router1")
	s.Now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }

	rec, err := s.Add(writeTemp(t, s.Dir, "x"), "", "ubus")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Remove(rec.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(s.ArchivePath(rec)); !os.IsNotExist(err) {
		t.Fatalf("backing file should be gone, stat err: %v", err)
	}
	var nf *catalog.NotFoundError
	if _, err := s.Get(rec.ID); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError after remove, got %v", err)
	}
}

func TestStore_RemoveUnknownID(t *testing.T) {
	s := newStore(t, "router1")
	var nf *catalog.NotFoundError
	err := s.Remove("20990101_000000")
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Device != "router1" || nf.ID != "20990101_000000" {
		t.Fatalf("error should name device and id: %v", nf)
	}
}

func TestStore_FailedFileDeleteLeavesCatalogUnchanged(t *testing.T) {
	s := newStore(t, "router1")
	s.Now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }

	rec, err := s.Add(writeTemp(t, s.Dir, "x"), "", "ubus")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	// Replace the backing file with a non-empty directory so os.Remove fails.
	path := s.ArchivePath(rec)
	if err := os.Remove(path); err != nil {
		t.Fatalf("setup remove: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(path, "child"), 0o755); err != nil {
		t.Fatalf("setup mkdir: %v", err)
	}

	if err := s.Remove(rec.ID); err == nil {
		t.Fatal("expected remove to fail")
	}
	got, err := s.Get(rec.ID)
	if err != nil {
		t.Fatalf("record should still be catalogued: %v", err)
	}
	if got.ID != rec.ID {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestStore_LoadMissingFileIsEmpty(t *testing.T) {
	s := newStore(t, "router1")
	records, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty catalog, got %v", records)
	}
}
