package optimise

import (
	"errors"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
)

func TestEncoder_WritesJPGAndWEBP(t *testing.T) {
	tmpDir := t.TempDir()
	img := imaging.New(12, 8, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	written, err := NewEncoder().EncodeAll(img, filepath.Join(tmpDir, "photo"), 85)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	assertFileExists(t, filepath.Join(tmpDir, "photo.jpg"))
	assertFileExists(t, filepath.Join(tmpDir, "photo.webp"))

	if len(written) < 2 {
		t.Errorf("Expected at least jpg and webp written, got %v", written)
	}
	for _, path := range written {
		assertFileExists(t, path)
	}
}

func TestEncoder_OutputsDecodeToSameDimensions(t *testing.T) {
	tmpDir := t.TempDir()
	img := imaging.New(16, 10, color.NRGBA{R: 99, G: 50, B: 0, A: 255})

	written, err := NewEncoder().EncodeAll(img, filepath.Join(tmpDir, "dims"), 85)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	// AVIF decode support is not guaranteed, check the formats the
	// standard decoders handle.
	for _, path := range written {
		if strings.HasSuffix(path, ".avif") {
			continue
		}
		assertDimensions(t, path, 16, 10)
	}
}

func TestEncoder_TransparentPixelsEncodeWhite(t *testing.T) {
	tmpDir := t.TempDir()
	img := imaging.New(8, 8, color.NRGBA{})

	if _, err := NewEncoder().EncodeAll(img, filepath.Join(tmpDir, "ghost"), 85); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	decoded, err := imaging.Open(filepath.Join(tmpDir, "ghost.jpg"))
	if err != nil {
		t.Fatalf("Failed to open jpg: %v", err)
	}
	r, g, b, _ := decoded.At(2, 2).RGBA()
	if r>>8 < 250 || g>>8 < 250 || b>>8 < 250 {
		t.Errorf("Expected transparent pixels flattened onto white, got rgb(%d, %d, %d)", r>>8, g>>8, b>>8)
	}
}

func TestEncoder_LeavesNoTempFiles(t *testing.T) {
	tmpDir := t.TempDir()
	img := imaging.New(8, 8, color.NRGBA{A: 255})

	if _, err := NewEncoder().EncodeAll(img, filepath.Join(tmpDir, "clean"), 60); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	leftovers, err := filepath.Glob(filepath.Join(tmpDir, "*.tmp"))
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	if len(leftovers) != 0 {
		t.Errorf("Expected no temp files left behind, found %v", leftovers)
	}
}

func TestEncoder_MissingDirectoryIsFilesystemError(t *testing.T) {
	tmpDir := t.TempDir()
	img := imaging.New(8, 8, color.NRGBA{A: 255})

	_, err := NewEncoder().EncodeAll(img, filepath.Join(tmpDir, "missing", "photo"), 85)
	if err == nil {
		t.Fatal("Expected error for missing output directory")
	}
	if !errors.Is(err, ErrFilesystem) {
		t.Errorf("Expected ErrFilesystem, got: %v", err)
	}
}
