package optimise

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/avif"
	"github.com/google/uuid"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
	"github.com/ldubois/optimg/internal/logger"
)

// Encoder defines the interface for writing an image in every output format.
type Encoder interface {
	// EncodeAll writes img as JPG, WEBP and (when available) AVIF next
	// to basePath, which is the output path without extension. Returns
	// the paths written.
	EncodeAll(img image.Image, basePath string, quality int) ([]string, error)
}

// multiFormatEncoder implements the Encoder interface.
type multiFormatEncoder struct {
	// avifEnabled is cleared after the first AVIF encoder failure so a
	// missing codec degrades once per run instead of once per file.
	avifEnabled bool
	// runID distinguishes this run's temp files from those of another
	// invocation writing into the same output tree.
	runID string
}

// NewEncoder creates a new Encoder instance.
func NewEncoder() Encoder {
	return &multiFormatEncoder{
		avifEnabled: true,
		runID:       uuid.NewString()[:8],
	}
}

// EncodeAll writes img in each output format at the given quality.
// JPG and WEBP failures fail the file; an AVIF failure disables AVIF
// for the rest of the run and the remaining formats are kept.
func (e *multiFormatEncoder) EncodeAll(img image.Image, basePath string, quality int) ([]string, error) {
	img = flattenOnWhite(img)

	var written []string

	jpgPath := basePath + ".jpg"
	if err := e.writeAtomic(jpgPath, func(f *os.File) error {
		return imaging.Encode(f, img, imaging.JPEG, imaging.JPEGQuality(quality))
	}); err != nil {
		return written, err
	}
	written = append(written, jpgPath)

	webpPath := basePath + ".webp"
	if err := e.writeAtomic(webpPath, func(f *os.File) error {
		opts, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(quality))
		if err != nil {
			return fmt.Errorf("%w: webp: %v", ErrUnsupportedFormat, err)
		}
		return webp.Encode(f, img, opts)
	}); err != nil {
		return written, err
	}
	written = append(written, webpPath)

	if e.avifEnabled {
		avifPath := basePath + ".avif"
		err := e.writeAtomic(avifPath, func(f *os.File) error {
			return avif.Encode(f, img, avif.Options{Quality: quality})
		})
		if err != nil {
			// No AVIF codec on this machine; JPG and WEBP already exist.
			e.avifEnabled = false
			logger.Warn("AVIF encoding unavailable, skipping AVIF for this run",
				"file", filepath.Base(avifPath), "error", fmt.Errorf("%w: %v", ErrUnsupportedFormat, err))
		} else {
			written = append(written, avifPath)
		}
	}

	return written, nil
}

// flattenOnWhite composites non-opaque images onto a white background.
// JPEG has no alpha channel and encoding a transparent pixel directly
// renders it black, not white.
func flattenOnWhite(img image.Image) image.Image {
	if op, ok := img.(interface{ Opaque() bool }); ok && op.Opaque() {
		return img
	}
	bounds := img.Bounds()
	canvas := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}

// writeAtomic encodes into a temp file in the destination directory and
// renames it into place, so an interrupt never leaves a half-written
// output under the final name.
func (e *multiFormatEncoder) writeAtomic(path string, encode func(*os.File) error) error {
	tmpPath := fmt.Sprintf("%s.%s.tmp", path, e.runID)
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFilesystem, err)
	}
	defer os.Remove(tmpPath)

	if err := encode(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrFilesystem, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("%w: %v", ErrFilesystem, err)
	}
	return nil
}
