// Package store provides VectorStore backends for the lanczos solver.
//
// A store keeps Lanczos basis vectors by their 0-based position in the
// growing basis: Store(ctx, first, b) files column c of b under position
// first+c, Retrieve(ctx, first, dst) reads positions first.. into the columns
// of dst. A later Store to the same position replaces it.
//
//   - Memory keeps every vector resident in a map. It is the default choice
//     when n·maxj floats fit in memory.
//   - Spill appends encoded vectors to a temporary file and keeps only an
//     index in memory. Vectors may be compressed with LZ4 or Zstandard.
//   - Badger keeps vectors in a BadgerDB keyed by position, for bases that
//     should outlive the process or be shared by resumed solves.
//
// All backends are safe for concurrent use, although one solve only calls
// them sequentially.
package store
