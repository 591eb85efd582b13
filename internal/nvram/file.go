package nvram

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// FileStore backs the region with a fixed-size file. The whole region is
// held in memory; Commit rewrites the file in place and fsyncs. A crash
// between writes within one commit can leave a torn record, matching the
// medium's best-effort contract.
type FileStore struct {
	f     *os.File
	cells [Size]byte
}

// OpenFile opens (or creates) the backing file and loads the region.
// A newly created file reads as zeroes, the closest a file gets to
// uninitialized EEPROM.
func OpenFile(path string) (*FileStore, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open nvram file: %w", err)
	}

	s := &FileStore{f: f}
	if _, err := f.ReadAt(s.cells[:], 0); err != nil && !errors.Is(err, io.EOF) {
		// A short file on first boot reads as EOF; keep the zeroes already
		// in cells and size the file up on the first commit.
		f.Close()
		return nil, fmt.Errorf("read nvram file: %w", err)
	}
	return s, nil
}

// Float32 returns the little-endian value at offset.
func (s *FileStore) Float32(offset int) (float32, error) {
	if err := checkOffset(offset); err != nil {
		return 0, err
	}
	bits := binary.LittleEndian.Uint32(s.cells[offset:])
	return math.Float32frombits(bits), nil
}

// PutFloat32 stages a little-endian value at offset.
func (s *FileStore) PutFloat32(offset int, v float32) error {
	if err := checkOffset(offset); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(s.cells[offset:], math.Float32bits(v))
	return nil
}

// Commit writes the whole region back and syncs it to disk.
func (s *FileStore) Commit() error {
	if _, err := s.f.WriteAt(s.cells[:], 0); err != nil {
		return fmt.Errorf("write nvram file: %w", err)
	}
	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("sync nvram file: %w", err)
	}
	return nil
}

// Close closes the backing file without committing staged writes.
func (s *FileStore) Close() error {
	return s.f.Close()
}
