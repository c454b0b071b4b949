// Package preflight provides readiness checks for the filesystem paths
// and external binaries the pipeline depends on.
//
// These checks run in two contexts:
//   - Sync runs RunAll before touching the store. If any check fails the
//     run aborts early instead of discovering a missing directory or a
//     full disk halfway through synthesis.
//   - The CLI "sori status" command uses the individual check functions
//     to display environment health.
//
// The reference store check only runs when one is configured.
package preflight
