package optimise

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/ldubois/optimg/internal/logger"
)

// Orientation values reported for processed images.
const (
	OrientationLandscape = "landscape"
	OrientationPortrait  = "portrait"
)

// Resizer defines the interface for orientation-aware resizing.
type Resizer interface {
	// Open decodes the image at path.
	Open(path string) (image.Image, error)
	// Resize scales img so its longer side equals the target length,
	// preserving aspect ratio. Returns the result and the orientation.
	Resize(img image.Image) (image.Image, string)
}

// resizer implements the Resizer interface.
type resizer struct {
	targetLength int
}

// NewResizer creates a new Resizer targeting the given longer-side length.
func NewResizer(targetLength int) Resizer {
	return &resizer{targetLength: targetLength}
}

// Open decodes the image at path. Undecodable files yield ErrDecode.
func (r *resizer) Open(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return img, nil
}

// Resize scales img so max(width, height) equals the target length.
// Images already at or below the target pass through unscaled:
// upscaling an optimised asset only inflates its size.
func (r *resizer) Resize(img image.Image) (image.Image, string) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	orientation := OrientationPortrait
	if w >= h {
		orientation = OrientationLandscape
	}

	longer := max(w, h)
	if longer <= r.targetLength {
		logger.Debug("Image at or below target, keeping dimensions", "width", w, "height", h)
		return img, orientation
	}

	scale := float64(r.targetLength) / float64(longer)
	newW := int(math.Round(float64(w) * scale))
	newH := int(math.Round(float64(h) * scale))

	return imaging.Resize(img, newW, newH, imaging.Lanczos), orientation
}
