package optimise

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

// Helper functions

func createTestImage(t *testing.T, dir, filename string, width, height int) string {
	t.Helper()
	img := imaging.New(width, height, color.NRGBA{R: 200, G: 120, B: 40, A: 255})
	path := filepath.Join(dir, filename)
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("Failed to create test image %s: %v", filename, err)
	}
	return path
}

func createFile(t *testing.T, dir, filename, content string) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create file %s: %v", filename, err)
	}
	return path
}

func createSubDir(t *testing.T, parent, name string) string {
	t.Helper()
	path := filepath.Join(parent, name)
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatalf("Failed to create directory %s: %v", name, err)
	}
	return path
}

func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected file to exist at %s", path)
	}
}

func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Expected file to not exist at %s", path)
	}
}

func assertDimensions(t *testing.T, path string, width, height int) {
	t.Helper()
	img, err := imaging.Open(path)
	if err != nil {
		t.Fatalf("Failed to open %s: %v", path, err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != width || bounds.Dy() != height {
		t.Errorf("Expected %dx%d for %s, got %dx%d", width, height, path, bounds.Dx(), bounds.Dy())
	}
}
