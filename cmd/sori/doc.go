// Package main hosts the Sori CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into the
// workflows under internal/api: store synchronization, sync previews,
// vocabulary aggregation, document watching, run history, and
// configuration scaffolding. It centralizes configuration resolution and
// logger construction so subcommands can focus on rendering.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags
// here.
package main
