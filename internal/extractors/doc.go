// Package extractors provides implementations of the Extractor interface
// for the supported document formats, plus the registry that dispatches
// on file extension. Each extractor knows how to turn one family of files
// into plain text.
//
// Extractors are registered with the Registry at startup.
package extractors
