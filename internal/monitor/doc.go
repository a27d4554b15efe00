// Package monitor discovers the application's log files and coordinates
// which one is being tailed.
//
// # Lifecycle
//
//  1. Replay: every existing file matching the pattern (output_log_*.txt by
//     default) is read in historical mode, one at a time, with
//     notifications suppressed. Screenshots referenced by finished logs are
//     renamed before live watching begins.
//  2. FollowLatest (optional): the newest existing file gets a live tail so
//     a session already in progress keeps being tracked.
//  3. Watch: an fsnotify watch on the directory reports file creation. Each
//     new log file triggers a Handoff. Once the watch is installed the
//     directory is listed again, so a file created since Discover is not
//     missed.
//
// # Handoff
//
// Handoff signals cancellation to the current live tail and returns
// immediately, so the fsnotify loop never blocks. The new tail goroutine
// waits for the previous one to close its file before reading, and a tail
// superseded while it waits still holds its turn until its predecessor has
// exited. At most one tail processes lines at any time. Renames are
// idempotent, so even a late line from the old tail cannot rename a file
// twice.
//
// # Error Handling
//
// Watch returns an ErrWatchSetup error when the directory cannot be watched;
// callers log it and keep running without live updates. Open and read
// failures of individual files go to Options.OnError and never stop the
// monitor. A panic while processing a file is recovered, reported as an
// ErrTailPanic error and stops only that tail.
package monitor
