// Package backup composes session negotiation, collection, and the catalog
// into the user-visible backup operations.
package backup

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"wrtcli/src/backup/catalog"
	"wrtcli/src/wrtapi"
)

// Service runs backup operations for one device against one client.
type Service struct {
	Client wrtapi.Client
	Store  *catalog.Store
}

// NewService wires a protocol client to a device's catalog store.
func NewService(client wrtapi.Client, store *catalog.Store) *Service {
	return &Service{Client: client, Store: store}
}

// Create authenticates, collects the device configuration into a temporary
// archive, and hands it to the catalog. The record exists only after the
// archive is durably in place; on any failure the temporary file is cleaned
// up instead of left behind.
func (s *Service) Create(d wrtapi.Device, description string) (catalog.Record, error) {
	sess, err := s.Client.Login(d)
	if err != nil {
		return catalog.Record{}, err
	}
	data, err := s.Client.Collect(d, sess)
	if err != nil {
		return catalog.Record{}, err
	}

	tmp, err := os.CreateTemp(s.Store.Dir, "backup-*.tar.gz.tmp")
	if err != nil {
		return catalog.Record{}, fmt.Errorf("create temporary archive: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return catalog.Record{}, fmt.Errorf("write temporary archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return catalog.Record{}, fmt.Errorf("write temporary archive: %w", err)
	}

	rec, err := s.Store.Add(tmpName, description, string(d.Protocol))
	if err != nil {
		os.Remove(tmpName)
		return catalog.Record{}, err
	}
	log.Info().
		Str("device", d.Name).
		Str("id", rec.ID).
		Int64("size", rec.SizeBytes).
		Msg("backup created")
	return rec, nil
}

// Restore reads a catalogued archive and pushes it back to the device. The
// bytes sent are exactly the bytes on disk; nothing is reprocessed. A
// missing backing file is fatal, never silently skipped.
func (s *Service) Restore(d wrtapi.Device, id string) error {
	rec, err := s.Store.Get(id)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(s.Store.ArchivePath(rec))
	if err != nil {
		return &wrtapi.RestoreError{Device: d.Name, Cause: fmt.Errorf("read backup archive: %w", err)}
	}
	sess, err := s.Client.Login(d)
	if err != nil {
		return err
	}
	if err := s.Client.Restore(d, sess, data); err != nil {
		return err
	}
	log.Info().Str("device", d.Name).Str("id", rec.ID).Msg("backup restored")
	return nil
}

// List returns the device's records in creation order.
func (s *Service) List() ([]catalog.Record, error) {
	return s.Store.List()
}

// Show returns one record by id.
func (s *Service) Show(id string) (catalog.Record, error) {
	return s.Store.Get(id)
}

// Remove deletes a backup's archive and record together.
func (s *Service) Remove(id string) error {
	if err := s.Store.Remove(id); err != nil {
		return err
	}
	log.Info().Str("device", s.Store.Device).Str("id", id).Msg("backup removed")
	return nil
}
