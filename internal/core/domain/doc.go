// Package domain defines the core business entities for pkgsearch.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - PackageRef: A parsed package FMRI
//   - Action: A parsed package action (file, dir, set, depend, ...)
//   - RawRecord: An opaque match record produced by a search source
//   - NormalizedRecord: A classified match ready for projection
//   - Line: One row of rendered search output
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
