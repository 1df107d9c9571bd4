// Package ir is the validated, fully resolved form of a bridge manifest.
//
// Both generators consume the same *Bridge: struct fields keep declaration
// order, every type reference is resolved to a catalog kind and passing
// mode, and every item carries the mangled symbol both sides link against.
package ir
