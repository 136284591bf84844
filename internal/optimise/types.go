package optimise

// Default pipeline constants, matching the documented CLI defaults.
const (
	// DefaultTargetLength is the pixel length the longer side of every
	// output is resized to.
	DefaultTargetLength = 3333
	// DefaultDensity is the DPI value written to both resolution axes
	// of every output.
	DefaultDensity = 53
	// DefaultQuality is the JPG/WEBP/AVIF encoding quality.
	DefaultQuality = 85
)

// Options holds the run-wide configuration. Built once by the CLI and
// passed read-only through the pipeline.
type Options struct {
	// OutputDir is the directory outputs are written under.
	OutputDir string
	// Recursive descends into subdirectories of the input root.
	Recursive bool
	// Rename applies SEO-safe renaming to output files.
	Rename bool
	// TinyPNG enables the hosted compression step.
	TinyPNG bool
	// TinyPNGKey is the API key for the hosted compression service.
	// Required when TinyPNG is set.
	TinyPNGKey string
	// Quality is the encoding quality for all output formats (1-100).
	Quality int
	// KeepStructure mirrors the input's relative directory layout
	// under OutputDir instead of flattening.
	KeepStructure bool
	// TargetLength is the pixel length resize targets for the longer side.
	TargetLength int
	// Density is the DPI value tagged on outputs.
	Density int
}

// DefaultOptions returns the default run options.
func DefaultOptions() Options {
	return Options{
		OutputDir:    "output",
		Quality:      DefaultQuality,
		TargetLength: DefaultTargetLength,
		Density:      DefaultDensity,
	}
}

// Result records the outcome of processing a single input file.
type Result struct {
	// Source is the input file path.
	Source string
	// Outputs are the paths written for this input, one per format.
	Outputs []string
	// Orientation is "landscape" or "portrait".
	Orientation string
	// Degraded is set when the TinyPNG step failed and the file
	// continued with uncompressed bytes.
	Degraded bool
	// Err is the per-file failure, nil on success.
	Err error
}

// Summary aggregates a run's per-file results.
type Summary struct {
	// Processed is the number of files fully processed.
	Processed int
	// Skipped is the number of candidate files skipped (unreadable or
	// zero bytes).
	Skipped int
	// Failed is the number of files that errored irrecoverably.
	Failed int
	// Degraded is the number of files processed without the requested
	// remote compression.
	Degraded int
	// OutputFiles is the number of files present under the output
	// directory when the run finished.
	OutputFiles int
	// Results holds the per-file outcomes in processing order.
	Results []Result
}

// HasFailures reports whether any file was skipped or failed, which
// makes the run exit non-zero.
func (s *Summary) HasFailures() bool {
	return s.Skipped > 0 || s.Failed > 0
}
