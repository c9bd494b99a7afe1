// Package laso finds a few extreme eigenvalues and eigenvectors of a large
// symmetric operator with the block Lanczos algorithm and selective
// orthogonalization.
//
// 🚀 What is laso?
//
//	A matrix-free eigensolver: the operator is only ever asked to multiply a
//	block of vectors, and the growing Lanczos basis lives in a pluggable
//	vector store (memory, a compressed spill file, or Badger).
//		• Smallest or largest end of the spectrum, any number of pairs
//		• Known eigenpairs skipped by orthogonalizing against them
//		• Budgeted runs that resume from a Checkpoint
//		• Error estimates per pair: residual, value and vector accuracy
//
// Everything is organized under these subpackages:
//
//	lanczos/  — Config, Solver, Solve, Report and Checkpoint
//	operator/ — Diagonal, Dense, CSR, Counting and graph Laplacians
//	store/    — Memory, Spill and Badger vector stores with LZ4/zstd records
//	band/     — eigenpairs of symmetric band matrices by bisection and inverse iteration
//	block/    — column-major n×b blocks, Householder QR, pair sorting
//	rng/      — the reproducible uniform stream behind random starts
//
// Quick example (the four smallest eigenvalues of a path Laplacian):
//
//	l, _ := operator.Path(100)
//	cfg := lanczos.DefaultConfig(100)
//	cfg.Wanted = -4
//	rep, err := lanczos.Solve(ctx, cfg, l, store.NewMemory(), lanczos.Input{})
//
//	go get github.com/katalvlaran/laso
package laso
