// Package watch implements a bounded polling loop that turns a point-in-time
// device enumeration into a settled snapshot.
//
// A Watcher repeatedly calls its Enumerator. It settles as soon as a snapshot
// differs structurally from the previous one, or after the configured number
// of iterations has been reached, whichever comes first. Between polls it
// waits for the configured delay; cancelling the context aborts the wait.
//
// Snapshots are compared by their canonical CBOR encoding (see package wire),
// so element order matters and field order within elements does not.
package watch
