package optimise

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ldubois/optimg/internal/logger"
)

// Source is one candidate input file found under the input root.
type Source struct {
	// Path is the absolute path to the file.
	Path string
	// Rel is the path relative to the input root, used to mirror the
	// directory layout when keep-structure is enabled.
	Rel string
}

// Walker defines the interface for enumerating input images.
type Walker interface {
	// Walk returns the image files under root in walk order.
	Walk(root string) ([]Source, error)
}

// walker implements the Walker interface.
type walker struct {
	extensions Extensions
	recursive  bool
}

// NewWalker creates a new Walker instance.
func NewWalker(recursive bool) Walker {
	return &walker{
		extensions: NewExtensions(),
		recursive:  recursive,
	}
}

// Walk returns the image files under root in walk order.
// Non-image files are skipped silently; hidden directories are never
// descended into. Corrupt candidates are left for the pipeline so the
// run summary can account for them.
func (w *walker) Walk(root string) ([]Source, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve input directory: %w", err)
	}

	var sources []Source
	err = filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path == absRoot {
				return nil
			}
			if !w.recursive || strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(info.Name(), ".") {
			// AppleDouble files and the like carry image extensions
			// but no image data.
			logger.Debug("Skipping hidden file", "file", info.Name())
			return nil
		}
		if !w.extensions.IsImage(path) {
			logger.Debug("Skipping non-image file", "file", info.Name())
			return nil
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return err
		}
		sources = append(sources, Source{Path: path, Rel: rel})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return sources, nil
}
