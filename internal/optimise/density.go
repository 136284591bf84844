package optimise

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/barasher/go-exiftool"
	"github.com/ldubois/optimg/internal/logger"
)

// DensityTagger defines the interface for writing resolution metadata.
type DensityTagger interface {
	// TagDensity sets the horizontal and vertical resolution of the
	// file at path to the given DPI value. Pixel data is untouched.
	TagDensity(path string, dpi int) error
	// ReadDensity returns the X resolution currently recorded on the file.
	ReadDensity(path string) (float64, error)
}

// densityTagger implements the DensityTagger interface.
type densityTagger struct {
	et *exiftool.Exiftool
}

// NewDensityTagger creates a new DensityTagger instance.
func NewDensityTagger(et *exiftool.Exiftool) DensityTagger {
	return &densityTagger{et: et}
}

// TagDensity sets both resolution axes to dpi.
// -overwrite_original prevents creating backup files, -P preserves the
// file modification date/time.
func (t *densityTagger) TagDensity(path string, dpi int) error {
	dpiValue := strconv.Itoa(dpi)
	cmd := exec.Command("exiftool",
		"-XResolution="+dpiValue,
		"-YResolution="+dpiValue,
		"-ResolutionUnit=inches",
		"-overwrite_original",
		"-P",
		path)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to tag density on %s: %w (output: %s)", path, err, string(output))
	}

	logger.Debug("Tagged density", "file", filepath.Base(path), "dpi", dpi)
	return nil
}

// ReadDensity returns the X resolution currently recorded on the file.
func (t *densityTagger) ReadDensity(path string) (float64, error) {
	if t.et == nil {
		return 0, fmt.Errorf("exiftool not initialised")
	}

	fileInfos := t.et.ExtractMetadata(path)
	if len(fileInfos) == 0 {
		return 0, fmt.Errorf("no metadata found for %s", path)
	}
	if fileInfos[0].Err != nil {
		return 0, fileInfos[0].Err
	}

	return fileInfos[0].GetFloat("XResolution")
}
