// Package logtail reads append-only log files line by line while they are
// still being written.
//
// # Overview
//
// Tail opens a file with shared read access, seeks to a start offset and
// pushes complete lines into a bounded channel from a dedicated goroutine.
// Consumers range over the channel; the producer closes it when the tail
// ends.
//
// # Modes
//
//   - Historical: replay to the current end-of-file, then stop. The first
//     read that yields no new data ends the tail, with no waiting. A final
//     line without a trailing newline is still delivered.
//   - Live: on end-of-file, wait PollInterval (default 5s) and try again,
//     indefinitely, until the context is cancelled. A partial line at
//     end-of-file is held back until its newline arrives, so a writer that
//     flushes mid-line never produces a split line.
//
// # Cancellation
//
// The context is checked before every read attempt and while waiting to
// deliver a line or to retry. Once cancelled, the goroutine closes the file
// handle and the channel.
//
// # Error Handling
//
// Nothing in this package is fatal:
//
//   - ErrOpen: the file could not be opened (or seeked). The channel is
//     closed immediately, empty.
//   - ErrRead: a read failed. The attempt is treated as end-of-file: the
//     tail stops in Historical mode and waits and retries in Live mode.
//
// Both are delivered through Options.OnError, wrapped with the file path.
//
// Example usage:
//
//	lines := logtail.Tail(ctx, path, logtail.Options{Mode: logtail.Live})
//	for line := range lines {
//		handle(line.Text)
//	}
package logtail
