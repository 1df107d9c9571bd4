// Package catalog is the fixed catalog of types that may cross the bridge
// and the directionality/ownership matrix the validator enforces.
//
// Everything here is initialized once at package load and never mutated,
// so concurrent generation runs share it without locking.
package catalog
