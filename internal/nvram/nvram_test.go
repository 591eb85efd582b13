package nvram

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nvram.bin")

	s, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if err := s.PutFloat32(0, 6.5); err != nil {
		t.Fatalf("PutFloat32: %v", err)
	}
	if err := s.PutFloat32(4, 7.5); err != nil {
		t.Fatalf("PutFloat32: %v", err)
	}
	if err := s.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopen: committed values must survive.
	s2, err := OpenFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	low, err := s2.Float32(0)
	if err != nil {
		t.Fatalf("Float32(0): %v", err)
	}
	high, err := s2.Float32(4)
	if err != nil {
		t.Fatalf("Float32(4): %v", err)
	}
	if low != 6.5 || high != 7.5 {
		t.Errorf("round trip = (%v, %v), want (6.5, 7.5)", low, high)
	}
}

func TestFileStoreFirstBootReadsZeroes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nvram.bin")
	s, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer s.Close()

	v, err := s.Float32(0)
	if err != nil {
		t.Fatalf("Float32: %v", err)
	}
	if v != 0 {
		t.Errorf("fresh region should read 0, got %v", v)
	}
}

func TestFileStoreUncommittedWritesDoNotPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nvram.bin")

	s, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if err := s.PutFloat32(0, 9.9); err != nil {
		t.Fatalf("PutFloat32: %v", err)
	}
	s.Close() // no commit

	s2, err := OpenFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	v, _ := s2.Float32(0)
	if v == 9.9 {
		t.Error("uncommitted write must not survive reopen")
	}
}

func TestOffsetBounds(t *testing.T) {
	f := NewFakeStore()
	if err := f.PutFloat32(-1, 1); err == nil {
		t.Error("negative offset should error")
	}
	if err := f.PutFloat32(Size-3, 1); err == nil {
		t.Error("offset overlapping region end should error")
	}
	if _, err := f.Float32(Size); err == nil {
		t.Error("offset past region end should error")
	}
	if err := f.PutFloat32(Size-4, 1); err != nil {
		t.Errorf("last valid offset should work, got %v", err)
	}
}

func TestFakeStoreCommitSemantics(t *testing.T) {
	f := NewFakeStore()
	if err := f.PutFloat32(0, 3.25); err != nil {
		t.Fatalf("PutFloat32: %v", err)
	}

	f.PowerCycle()
	v, _ := f.Float32(0)
	if v != 0 {
		t.Errorf("uncommitted write survived power cycle: %v", v)
	}

	f.PutFloat32(0, 3.25)
	if err := f.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	f.PowerCycle()
	v, _ = f.Float32(0)
	if v != 3.25 {
		t.Errorf("committed write lost on power cycle: %v", v)
	}
	if f.CommitCount != 1 {
		t.Errorf("CommitCount = %d, want 1", f.CommitCount)
	}
}

func TestFakeStoreCommitError(t *testing.T) {
	f := NewFakeStore()
	f.CommitError = errors.New("medium failure")
	f.PutFloat32(0, 1.0)
	if err := f.Commit(); err == nil {
		t.Fatal("expected commit error")
	}
	f.PowerCycle()
	v, _ := f.Float32(0)
	if v != 0 {
		t.Error("failed commit must not persist")
	}
}
