// Package archive builds and inspects the tar.gz containers that hold
// collected device configuration.
package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"time"
)

// entryMode is the synthetic file mode for every archive entry; the remote
// side only ever hands us content, never metadata.
const entryMode = 0o644

// Builder writes named byte entries into an in-memory tar.gz stream.
// Close must succeed before Bytes may be read: a partially written archive
// is never exposed.
type Builder struct {
	buf    bytes.Buffer
	gz     *gzip.Writer
	tw     *tar.Writer
	closed bool
	err    error
}

// NewBuilder returns an empty archive builder.
func NewBuilder() *Builder {
	b := &Builder{}
	b.gz = gzip.NewWriter(&b.buf)
	b.tw = tar.NewWriter(b.gz)
	return b
}

// Add appends content under name with a synthetic header. Once an Add has
// failed the builder is poisoned and Close will return the first error.
func (b *Builder) Add(name string, content []byte, modTime time.Time) error {
	if b.err != nil {
		return b.err
	}
	if b.closed {
		b.err = errors.New("archive already finalized")
		return b.err
	}
	hdr := &tar.Header{
		Name:    name,
		Mode:    entryMode,
		Size:    int64(len(content)),
		ModTime: modTime,
	}
	if err := b.tw.WriteHeader(hdr); err != nil {
		b.err = fmt.Errorf("write header for %q: %w", name, err)
		return b.err
	}
	if _, err := b.tw.Write(content); err != nil {
		b.err = fmt.Errorf("write entry %q: %w", name, err)
		return b.err
	}
	return nil
}

// Close finalizes the tar stream and the gzip stream, in that order. An
// archive whose Close failed must be discarded, never read.
func (b *Builder) Close() error {
	if b.closed {
		return b.err
	}
	b.closed = true
	if b.err != nil {
		return b.err
	}
	if err := b.tw.Close(); err != nil {
		b.err = fmt.Errorf("finalize tar: %w", err)
		return b.err
	}
	if err := b.gz.Close(); err != nil {
		b.err = fmt.Errorf("finalize gzip: %w", err)
		return b.err
	}
	return nil
}

// Bytes returns the finalized archive. It panics if the builder was not
// cleanly closed; callers must check Close first.
func (b *Builder) Bytes() []byte {
	if !b.closed || b.err != nil {
		panic("archive: Bytes called on an unfinalized builder")
	}
	return b.buf.Bytes()
}

// List opens a finished archive and returns its entry names in order.
func List(data []byte) ([]string, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	var names []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tar entry: %w", err)
		}
		names = append(names, hdr.Name)
	}
	return names, nil
}

// Entry returns the content of the named entry, or an error if absent.
func Entry(data []byte, name string) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tar entry: %w", err)
		}
		if hdr.Name == name {
			return io.ReadAll(tr)
		}
	}
	return nil, fmt.Errorf("entry %q not found", name)
}
