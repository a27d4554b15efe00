// Package state holds the data shared between the monitor and the UI.
//
// # Overview
//
// Store is the UI side of the notification bridge. The live session calls
// OnContextChanged and OnRenamed from its own goroutine; the UI reads
// copies through Snapshot. All access goes through a sync.RWMutex and
// every Snapshot deep-copies slices, so neither side ever sees the other's
// mutable data.
//
// # Change Notification
//
// Changes returns a buffered channel of capacity one. Updates signal it
// without blocking, so a slow reader sees one pending signal no matter how
// many updates happened in between, and then reads the latest Snapshot.
//
// # Trace
//
// TraceWriter lets a logger write into the store:
//
//	trace := log.New(state.TraceWriter{Store: store}, "", 0)
//	trace.Printf("joined world %s", id)
//
// The trace keeps the most recent 200 lines.
//
// # Session Boundaries
//
// SetWatchedFile clears the world and recent list: a new live tail starts a
// new session, and state from the previous log file must not leak into it.
package state
