package optimise

import "errors"

// Error kinds for per-file failures. Callers classify with errors.Is;
// every returned error wraps one of these with file context.
var (
	// ErrDecode means the input could not be read as an image.
	ErrDecode = errors.New("image decode failed")
	// ErrCompressionService means the TinyPNG round-trip failed
	// (bad key, network, quota, unsupported input).
	ErrCompressionService = errors.New("compression service failed")
	// ErrUnsupportedFormat means an output format has no usable
	// encoder on this machine.
	ErrUnsupportedFormat = errors.New("unsupported output format")
	// ErrFilesystem means an output directory or file could not be
	// created or written.
	ErrFilesystem = errors.New("filesystem operation failed")
	// ErrConfiguration means the run options are invalid. Fatal at
	// startup, before any file is touched.
	ErrConfiguration = errors.New("invalid configuration")
)
