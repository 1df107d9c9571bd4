// Package layout computes C-compatible sizes, alignments and field offsets
// for bridge types on a target with a given pointer width.
package layout
