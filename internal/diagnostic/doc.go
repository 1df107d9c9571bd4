// Package diagnostic provides structured errors and warnings with source
// spans for bridge manifests.
//
// Diagnostics are collected in batches rather than returned on the first
// failure so a single run reports every problem in a manifest:
//   - Syntax diagnostics from the parser
//   - Semantic diagnostics from the validator
//   - Rendering for terminals (colored) and plain logs
package diagnostic
