// Package preflight provides readiness checks for the external tools and
// filesystem paths chunkenc depends on.
//
// These checks run in two contexts:
//   - The encode and batch commands call RunAll before the first job. If any
//     check fails nothing is split or encoded.
//   - The CLI "chunkenc check" command prints every result as a table.
package preflight
