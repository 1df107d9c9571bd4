// Package suggest ranks declared names by edit distance to produce
// "did you mean" hints for unresolved references.
package suggest
