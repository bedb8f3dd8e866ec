package driven

import "context"

// Extractor turns a file of one family of formats into plain text.
type Extractor interface {
	// Extensions returns the lower-case extensions handled, including the dot.
	Extensions() []string

	// Extract reads the file and returns whitespace-normalised text.
	Extract(ctx context.Context, path string) (string, error)
}

// ExtractorRegistry dispatches extraction on the file extension.
type ExtractorRegistry interface {
	// Register adds an extractor. Later registrations win for shared extensions.
	Register(extractor Extractor)

	// Supports reports whether a path has a registered extension.
	Supports(path string) bool

	// Extract finds the extractor for path and runs it.
	Extract(ctx context.Context, path string) (string, error)

	// Supported returns every registered extension, sorted.
	Supported() []string
}
