// Package tools provides reusable runtime helpers shared by dispatcher modules.
//
// Ownership boundary:
//   - command execution helpers
//   - host/runtime utility primitives
package tools
