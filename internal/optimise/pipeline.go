package optimise

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/ldubois/optimg/internal/logger"
)

// Optimiser defines the interface for running the optimisation pipeline.
type Optimiser interface {
	// Run processes every image under inputDir according to opts and
	// returns the run summary. Per-file failures never abort the run;
	// ctx cancellation stops it between files.
	Run(ctx context.Context, inputDir string, opts Options) (*Summary, error)
}

// optimiser implements the Optimiser interface.
type optimiser struct {
	tagger DensityTagger
	remote RemoteCompressor
}

// NewOptimiser creates a new Optimiser instance.
func NewOptimiser(tagger DensityTagger, remote RemoteCompressor) Optimiser {
	return &optimiser{
		tagger: tagger,
		remote: remote,
	}
}

// ValidateOptions checks run options before any file is touched.
func ValidateOptions(opts Options) error {
	if opts.Quality < 1 || opts.Quality > 100 {
		return fmt.Errorf("%w: quality must be between 1 and 100, got %d", ErrConfiguration, opts.Quality)
	}
	if opts.TargetLength <= 0 {
		return fmt.Errorf("%w: target length must be positive, got %d", ErrConfiguration, opts.TargetLength)
	}
	if opts.TinyPNG && opts.TinyPNGKey == "" {
		return fmt.Errorf("%w: TinyPNG compression requested but no API key configured (set TINIFY_KEY)", ErrConfiguration)
	}
	return nil
}

// Run processes every image under inputDir sequentially.
func (o *optimiser) Run(ctx context.Context, inputDir string, opts Options) (*Summary, error) {
	if err := ValidateOptions(opts); err != nil {
		return nil, err
	}
	stats := NewFileStats()
	if err := stats.ValidateInputDirectory(inputDir); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create output directory: %v", ErrFilesystem, err)
	}

	sources, err := NewWalker(opts.Recursive).Walk(inputDir)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		logger.Info("No images found", "input", inputDir)
		return &Summary{}, nil
	}

	logger.Info("Starting optimisation", "input", inputDir, "output", opts.OutputDir,
		"files", len(sources), "quality", opts.Quality, "tinypng", opts.TinyPNG)

	resizer := NewResizer(opts.TargetLength)
	encoder := NewEncoder()
	renamer := NewRenamer(opts.Rename)

	summary := &Summary{}
	for _, src := range sources {
		if ctx.Err() != nil {
			logger.Warn("Interrupted, stopping between files",
				"processed", summary.Processed, "remaining", len(sources)-len(summary.Results))
			break
		}

		res := o.processOne(ctx, src, opts, resizer, encoder, renamer)
		summary.Results = append(summary.Results, res)

		switch {
		case errors.Is(res.Err, ErrDecode):
			summary.Skipped++
			logger.Warn("Skipped unreadable file", "file", src.Rel, "error", res.Err)
		case res.Err != nil:
			summary.Failed++
			logger.Error("Failed to process file", "file", src.Rel, "error", res.Err)
		default:
			summary.Processed++
			if res.Degraded {
				summary.Degraded++
			}
			logger.Info("Processed", "file", src.Rel, "orientation", res.Orientation,
				"outputs", strings.Join(baseNames(res.Outputs), ", "))
		}
	}

	if count, err := stats.GetFileCount(opts.OutputDir); err != nil {
		logger.Warn("Failed to count output files", "directory", opts.OutputDir, "error", err)
	} else {
		summary.OutputFiles = count
	}

	logger.Info("Run complete", "processed", summary.Processed, "skipped", summary.Skipped,
		"failed", summary.Failed, "degraded", summary.Degraded, "output_files", summary.OutputFiles)
	return summary, nil
}

// processOne runs the per-file pipeline: decode, resize, optional
// remote compression, multi-format encode, density tag.
func (o *optimiser) processOne(ctx context.Context, src Source, opts Options,
	resizer Resizer, encoder Encoder, renamer Renamer) Result {
	res := Result{Source: src.Path}

	img, err := resizer.Open(src.Path)
	if err != nil {
		res.Err = err
		return res
	}

	processed, orientation := resizer.Resize(img)
	res.Orientation = orientation

	targetDir := opts.OutputDir
	if opts.KeepStructure {
		targetDir = filepath.Join(opts.OutputDir, filepath.Dir(src.Rel))
	}
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		res.Err = fmt.Errorf("%w: failed to create %s: %v", ErrFilesystem, targetDir, err)
		return res
	}

	if opts.TinyPNG {
		compressed, err := o.compressRemote(ctx, processed, opts.TinyPNGKey)
		if err != nil {
			// Degrade: the file continues with uncompressed pixels.
			res.Degraded = true
			logger.Warn("Remote compression failed, continuing uncompressed", "file", src.Rel, "error", err)
		} else {
			processed = compressed
		}
	}

	base := filepath.Base(src.Rel)
	stem := renamer.OutputStem(targetDir, strings.TrimSuffix(base, filepath.Ext(base)))

	outputs, err := encoder.EncodeAll(processed, filepath.Join(targetDir, stem), opts.Quality)
	res.Outputs = outputs
	if err != nil {
		res.Err = err
		return res
	}

	for _, out := range outputs {
		if err := o.tagger.TagDensity(out, opts.Density); err != nil {
			// Metadata only; the pixels are already correct.
			logger.Warn("Failed to tag density", "file", filepath.Base(out), "error", err)
			continue
		}
		dpi, err := o.tagger.ReadDensity(out)
		switch {
		case err != nil:
			logger.Debug("Density read unavailable", "file", filepath.Base(out), "error", err)
		case int(dpi) != opts.Density:
			logger.Warn("Density read back a different value",
				"file", filepath.Base(out), "expected", opts.Density, "got", dpi)
		}
	}

	return res
}

// compressRemote round-trips the image through the hosted compressor
// as PNG, the lossless working format the service accepts.
func (o *optimiser) compressRemote(ctx context.Context, img image.Image, key string) (image.Image, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("%w: failed to encode working PNG: %v", ErrCompressionService, err)
	}

	data, err := o.remote.Compress(ctx, buf.Bytes(), key)
	if err != nil {
		return nil, err
	}

	compressed, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode compressed result: %v", ErrCompressionService, err)
	}
	return compressed, nil
}

// baseNames returns the file names of the given paths.
func baseNames(paths []string) []string {
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	return names
}
