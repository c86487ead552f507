// Package errors provides structured error types for the riv-patcher library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries a location path, the offending value, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseSplice, errors.KindOffsetOverflow).
//		Path("toc", "section[2]", "offset").
//		Value(uint64(1) << 32).
//		Detail("offset does not fit in u32").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.TruncatedTOC([]string{"toc"}, 30, 24)
//	err := errors.OutputTooSmall(128, 64)
//
// Every kind has a phase-less sentinel so callers can match on the kind alone:
//
//	if errors.Is(err, rerrors.ErrOutputTooSmall) { ... }
package errors
