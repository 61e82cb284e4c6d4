// Package discovery finds source files for batch mode.
//
// Walk lazily yields every regular file below a root, Select keeps one
// preferred file per title, and Plan turns the result into the ordered list
// of encodes a batch run performs.
package discovery
