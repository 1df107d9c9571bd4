// Package bridgeerr defines the structured error returned by the generation
// pipeline. Manifest problems are reported as diagnostics; an Error wraps
// the failure boundary (which phase stopped the run) around them.
package bridgeerr
