// Package watcher triggers pipeline runs when the vocabulary or sentence
// documents change on disk.
//
// Events are debounced: a burst of writes produces a single callback after
// the configured settle window. The callback runs on the watch goroutine,
// so runs never overlap.
package watcher
