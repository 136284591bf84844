package optimise

import (
	"errors"
	"testing"
)

func TestFileStats_ValidateInputDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	stats := NewFileStats()
	if err := stats.ValidateInputDirectory(tmpDir); err != nil {
		t.Errorf("Expected no error for existing directory, got: %v", err)
	}
}

func TestFileStats_ValidateInputDirectory_Missing(t *testing.T) {
	stats := NewFileStats()

	err := stats.ValidateInputDirectory("/nonexistent/path")
	if err == nil {
		t.Fatal("Expected error for missing directory")
	}
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("Expected ErrConfiguration, got: %v", err)
	}
}

func TestFileStats_ValidateInputDirectory_File(t *testing.T) {
	tmpDir := t.TempDir()
	path := createFile(t, tmpDir, "file.txt", "content")

	if err := NewFileStats().ValidateInputDirectory(path); err == nil {
		t.Error("Expected error for a regular file")
	}
}

func TestFileStats_GetFileCount(t *testing.T) {
	tmpDir := t.TempDir()
	createFile(t, tmpDir, "a.jpg", "x")
	createFile(t, tmpDir, "b.webp", "x")
	subDir := createSubDir(t, tmpDir, "nested")
	createFile(t, subDir, "c.avif", "x")

	count, err := NewFileStats().GetFileCount(tmpDir)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 files, got %d", count)
	}
}

func TestFileStats_GetFileCount_SkipsDotFiles(t *testing.T) {
	tmpDir := t.TempDir()
	createFile(t, tmpDir, "visible.jpg", "x")
	createFile(t, tmpDir, ".hidden", "x")
	dotDir := createSubDir(t, tmpDir, ".cache")
	createFile(t, dotDir, "cached.jpg", "x")

	count, err := NewFileStats().GetFileCount(tmpDir)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 file, got %d", count)
	}
}

func TestFileStats_GetFileCount_SkipsTempFiles(t *testing.T) {
	tmpDir := t.TempDir()
	createFile(t, tmpDir, "a.jpg", "x")
	createFile(t, tmpDir, "a.jpg.1a2b3c4d.tmp", "x")

	count, err := NewFileStats().GetFileCount(tmpDir)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected temp file excluded from count, got %d", count)
	}
}
