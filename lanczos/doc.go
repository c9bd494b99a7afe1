// Package lanczos computes a few extreme eigenvalues and eigenvectors of a
// large symmetric operator with the block Lanczos algorithm and selective
// orthogonalization (LASO).
//
// The operator is never materialized: the solver only asks an Operator to
// multiply it by a block of vectors, and keeps the growing Krylov basis in a
// VectorStore so the basis may live outside memory.
//
//   - Selective orthogonalization: Lanczos blocks are orthogonalized against
//     accepted and converged ("good") Ritz vectors only when the estimated
//     loss of orthogonality (tau) reaches √eps.
//   - Band analysis: the projected matrix T is symmetric band of width
//     BlockSize+1 and is partially diagonalized by package band.
//   - Restarts: when the subspace ceiling is reached, the non-converged Ritz
//     vectors are folded into the next starting block.
//   - Resumption: when the operator budget runs out, Report.Checkpoint carries
//     the restart block and accepted pairs into the next Solve.
//
// Minimal use:
//
//	cfg := lanczos.DefaultConfig(n)
//	cfg.Wanted = -3 // three smallest
//	rep, err := lanczos.Solve(ctx, cfg, op, store.NewMemory(), lanczos.Input{})
//
// Logging (log/slog), Prometheus metrics and OpenTelemetry spans are wired
// through WithLogger, WithMetrics and WithTracer.
package lanczos
