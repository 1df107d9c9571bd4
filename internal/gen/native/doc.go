// Package native renders the C++ side of a bridge: a header with the
// shared types and host function declarations, and an implementation unit
// with the extern "C" entry points the host links against.
package native
