// Package api implements the workflows behind the sori CLI commands.
//
// Each workflow takes a Request struct carrying configuration, a logger,
// and optional dependency overrides, and returns a Result struct for the
// command layer to render. Workflows own the cross-cutting steps
// (preflight checks, store locking, run IDs, ledger records,
// notifications) so commands stay thin and tests can drive the same
// paths the CLI does.
//
// Sync and Merge accept injectable Synthesizer and Fetcher
// implementations; tests use those to exercise the full workflow without
// the edge-tts binary or the network.
package api
