package optimise

import (
	"errors"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
)

func TestResizer_LandscapeTargetsLongerSide(t *testing.T) {
	img := imaging.New(600, 400, color.NRGBA{})

	resized, orientation := NewResizer(300).Resize(img)

	if orientation != OrientationLandscape {
		t.Errorf("Expected landscape, got %s", orientation)
	}
	bounds := resized.Bounds()
	if bounds.Dx() != 300 || bounds.Dy() != 200 {
		t.Errorf("Expected 300x200, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestResizer_PortraitTargetsLongerSide(t *testing.T) {
	img := imaging.New(400, 600, color.NRGBA{})

	resized, orientation := NewResizer(300).Resize(img)

	if orientation != OrientationPortrait {
		t.Errorf("Expected portrait, got %s", orientation)
	}
	bounds := resized.Bounds()
	if bounds.Dx() != 200 || bounds.Dy() != 300 {
		t.Errorf("Expected 200x300, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestResizer_SquareIsLandscape(t *testing.T) {
	img := imaging.New(500, 500, color.NRGBA{})

	resized, orientation := NewResizer(250).Resize(img)

	if orientation != OrientationLandscape {
		t.Errorf("Expected square to classify as landscape, got %s", orientation)
	}
	bounds := resized.Bounds()
	if bounds.Dx() != 250 || bounds.Dy() != 250 {
		t.Errorf("Expected 250x250, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestResizer_PreservesAspectRatioWithinOnePixel(t *testing.T) {
	// 3:2 input at an awkward scale.
	img := imaging.New(6000, 4000, color.NRGBA{})

	resized, _ := NewResizer(3333).Resize(img)

	bounds := resized.Bounds()
	if bounds.Dx() != 3333 {
		t.Errorf("Expected width 3333, got %d", bounds.Dx())
	}
	if bounds.Dy() != 2222 {
		t.Errorf("Expected height 2222, got %d", bounds.Dy())
	}
}

func TestResizer_SmallerInputPassesThrough(t *testing.T) {
	img := imaging.New(600, 400, color.NRGBA{})

	resized, orientation := NewResizer(1000).Resize(img)

	if orientation != OrientationLandscape {
		t.Errorf("Expected landscape, got %s", orientation)
	}
	bounds := resized.Bounds()
	if bounds.Dx() != 600 || bounds.Dy() != 400 {
		t.Errorf("Expected pass-through 600x400, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestResizer_InputAtTargetPassesThrough(t *testing.T) {
	img := imaging.New(1000, 750, color.NRGBA{})

	resized, _ := NewResizer(1000).Resize(img)

	bounds := resized.Bounds()
	if bounds.Dx() != 1000 || bounds.Dy() != 750 {
		t.Errorf("Expected pass-through 1000x750, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestResizer_OpenValidImage(t *testing.T) {
	tmpDir := t.TempDir()
	path := createTestImage(t, tmpDir, "photo.jpg", 8, 6)

	img, err := NewResizer(100).Open(path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if img.Bounds().Dx() != 8 {
		t.Errorf("Expected width 8, got %d", img.Bounds().Dx())
	}
}

func TestResizer_OpenCorruptFileIsDecodeError(t *testing.T) {
	tmpDir := t.TempDir()
	path := createFile(t, tmpDir, "corrupt.jpg", "this is not a jpeg")

	_, err := NewResizer(100).Open(path)
	if err == nil {
		t.Fatal("Expected error for corrupt file")
	}
	if !errors.Is(err, ErrDecode) {
		t.Errorf("Expected ErrDecode, got: %v", err)
	}
}
