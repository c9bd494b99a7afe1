// Package operator provides ready-made symmetric operators for the lanczos
// solver. Each type implements
//
//	Apply(ctx, dst, src *block.Block) error
//
// setting dst = A·src column by column.
//
//   - Diagonal: a diagonal matrix, the simplest known-answer problem.
//   - Dense: any gonum mat.Symmetric.
//   - CSR: a compressed-sparse-row matrix built from symmetric entries.
//   - Path, Cycle, Grid: graph Laplacians with closed-form spectra
//     (PathSpectrum, CycleSpectrum, GridSpectrum).
//   - Counting: wraps another operator and counts its calls.
//
// Dense and CSR apply the columns of a block concurrently (see WithWorkers);
// every column is computed by one goroutine in a fixed order, so results do
// not depend on scheduling.
package operator
