// Package catalog persists the per-device backup records and their backing
// archive files. The catalog file is the single source of truth for which
// backups exist; the directory is never scanned independently.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const (
	metadataFile = "metadata.json"
	lockFile     = ".catalog.lock"

	idFormat = "20060102_150405"
)

// Record describes one stored archive. Immutable after creation except
// deletion.
type Record struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	CreatedAt   time.Time `json:"created_at"`
	DeviceName  string    `json:"device_name"`
	Description string    `json:"description,omitempty"`
	BackupType  string    `json:"backup_type"`
	// BackupMethod is the protocol tag the archive was collected with.
	BackupMethod string `json:"backup_method"`
	SizeBytes    int64  `json:"size_bytes"`
}

type document struct {
	Backups []Record `json:"backups"`
}

// NotFoundError reports a record id absent from a device's catalog.
type NotFoundError struct {
	Device string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("backup %q not found for device %q", e.ID, e.Device)
}

// Store manages the catalog of one device. Mutations take an advisory file
// lock so two concurrent invocations cannot lose each other's writes.
type Store struct {
	Device string
	Dir    string

	// Now is the id clock; tests pin it for deterministic ids.
	Now func() time.Time
}

// NewStore opens (creating if needed) the backup directory for a device.
func NewStore(device, dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	return &Store{Device: device, Dir: dir, Now: time.Now}, nil
}

// withLock runs fn while holding the per-device catalog lock.
func (s *Store) withLock(fn func() error) error {
	fl := flock.New(filepath.Join(s.Dir, lockFile))
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("lock catalog for device %q: %w", s.Device, err)
	}
	defer fl.Unlock()
	return fn()
}

// Load reads the catalog document. A missing file is an empty catalog, not
// an error.
func (s *Store) Load() ([]Record, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir, metadataFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog for device %q: %w", s.Device, err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog for device %q: %w", s.Device, err)
	}
	return doc.Backups, nil
}

// persist rewrites the catalog document wholesale, via a temp file and
// rename so a crash never leaves a half-written catalog behind.
func (s *Store) persist(records []Record) error {
	doc := document{Backups: records}
	if doc.Backups == nil {
		doc.Backups = []Record{}
	}
	path := filepath.Join(s.Dir, metadataFile)
	tmp, err := os.CreateTemp(s.Dir, metadataFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("write catalog for device %q: %w", s.Device, err)
	}
	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write catalog for device %q: %w", s.Device, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write catalog for device %q: %w", s.Device, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write catalog for device %q: %w", s.Device, err)
	}
	return nil
}

// newID derives a second-precision id from the clock, suffixing -1, -2, ...
// when a backup created within the same second already holds the base id.
func newID(records []Record, now time.Time) string {
	base := now.Format(idFormat)
	id := base
	for n := 1; hasID(records, id); n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	return id
}

func hasID(records []Record, id string) bool {
	for _, r := range records {
		if r.ID == id {
			return true
		}
	}
	return false
}

// Add moves a fully written temporary archive into the backup directory and
// appends its record. Ordering matters: the backing file is durably in
// place before the record is catalogued, so a crash between the two steps
// leaves an orphaned file, never a dangling record.
func (s *Store) Add(tempArchive, description, method string) (Record, error) {
	var rec Record
	err := s.withLock(func() error {
		records, err := s.Load()
		if err != nil {
			return err
		}
		info, err := os.Stat(tempArchive)
		if err != nil {
			return fmt.Errorf("stat archive: %w", err)
		}
		now := s.Now()
		id := newID(records, now)
		filename := id + "_full_backup.tar.gz"

		if err := os.Rename(tempArchive, filepath.Join(s.Dir, filename)); err != nil {
			return fmt.Errorf("store archive: %w", err)
		}
		rec = Record{
			ID:           id,
			Filename:     filename,
			CreatedAt:    now,
			DeviceName:   s.Device,
			Description:  description,
			BackupType:   "full",
			BackupMethod: method,
			SizeBytes:    info.Size(),
		}
		return s.persist(append(records, rec))
	})
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Get returns the record with the given id.
func (s *Store) Get(id string) (Record, error) {
	records, err := s.Load()
	if err != nil {
		return Record{}, err
	}
	for _, r := range records {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, &NotFoundError{Device: s.Device, ID: id}
}

// List returns all records in creation order.
func (s *Store) List() ([]Record, error) {
	return s.Load()
}

// Remove deletes the backing file, then the record, then persists. If the
// file deletion fails the catalog is left unchanged, so a failed remove
// never orphans a record.
func (s *Store) Remove(id string) error {
	return s.withLock(func() error {
		records, err := s.Load()
		if err != nil {
			return err
		}
		idx := -1
		for i, r := range records {
			if r.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return &NotFoundError{Device: s.Device, ID: id}
		}
		path := filepath.Join(s.Dir, records[idx].Filename)
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove backup file %s: %w", path, err)
		}
		return s.persist(append(records[:idx:idx], records[idx+1:]...))
	})
}

// ArchivePath returns the absolute path of a record's backing file.
func (s *Store) ArchivePath(r Record) string {
	return filepath.Join(s.Dir, r.Filename)
}
