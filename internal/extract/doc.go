// Package extract provides implementations of the driven.Extractor
// interface for various document formats (C1). Each extractor knows how to
// turn one or more file extensions into normalized UTF-8 text.
//
// Extractors are registered with the ExtractorRegistry at startup.
package extract
