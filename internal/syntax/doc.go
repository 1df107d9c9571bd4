// Package syntax parses bridge manifests into an AST.
//
// Parsing is total: malformed input produces syntax diagnostics with exact
// spans and the parser resynchronizes at the next item boundary. Type names
// are not resolved here.
package syntax
