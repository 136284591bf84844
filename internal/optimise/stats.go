package optimise

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStats defines the interface for file and directory statistics.
type FileStats interface {
	// ValidateInputDirectory checks that the input directory exists.
	ValidateInputDirectory(dir string) error
	// GetFileCount returns the number of files in a directory recursively.
	GetFileCount(dir string) (int, error)
}

// fileStats implements the FileStats interface.
type fileStats struct{}

// NewFileStats creates a new FileStats instance.
func NewFileStats() FileStats {
	return &fileStats{}
}

// ValidateInputDirectory checks that the input directory exists.
func (f *fileStats) ValidateInputDirectory(dir string) error {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("%w: input is not a valid directory: %s", ErrConfiguration, dir)
	}
	return nil
}

// GetFileCount counts the finished files in a directory tree. Hidden
// entries and leftover temp files from an interrupted encode are not
// counted.
func (f *fileStats) GetFileCount(dir string) (int, error) {
	count := 0
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() || strings.HasSuffix(info.Name(), ".tmp") {
			return nil
		}
		count++
		return nil
	})
	return count, err
}
