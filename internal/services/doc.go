// Package services defines shared utilities consumed by the sync pipeline
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers and pipeline phases for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification consistent across components.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability) stays uniform.
package services
