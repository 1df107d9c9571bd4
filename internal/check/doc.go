// Package check is the semantic validator. It resolves every type in a
// parsed manifest against the catalog, enforces the directionality and
// ownership matrix, and lowers the result to IR.
//
// Validation runs to completion and returns every diagnostic at once. The
// IR is only returned when no error diagnostics were produced.
package check
