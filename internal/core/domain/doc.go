// Package domain defines the core business entities for devdocs.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A loaded documentation file with metadata
//   - Chunk: An embeddable, searchable slice of a document
//   - SearchResult: A scored index hit
//   - Answer: The output of a retrieval-augmented question
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
