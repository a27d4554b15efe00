// Package app is the composition root of wrldshot.
//
// # Overview
//
// Run wires configuration, the rename journal, the notification bridges,
// the log monitor, the network surfaces and the TUI together, then blocks
// until the user quits or the context is cancelled.
//
// # Startup
//
//  1. Load ~/.config/wrldshot/config.toml (defaults when missing)
//  2. Point the standard logger at <data_dir>/wrldshot.log unless headless
//  3. Open <data_dir>/history.db; a failure only disables the journal
//  4. Build a session.Processor whose bridge fans out to the state.Store
//     (for the TUI) and the hub.Hub (for websocket clients)
//  5. Start the monitor goroutine: replay, follow the newest log, watch
//  6. Start the status API and, when configured, the MCP endpoint
//  7. Run the TUI, or wait for cancellation when headless
//
// # Data Flow
//
//	monitor ──> logtail.Tail ──> session.Processor ──> rename.Rename
//	                                   │
//	                                   ├──> state.Store ──> ui
//	                                   ├──> hub.Hub ──> server /ws
//	                                   └──> history.Store ──> /api/history, mcp
//
// # Directory Polling
//
// When the fsnotify watch cannot be installed, for example because the log
// directory does not exist yet, the monitor goroutine falls back to listing
// the directory every poll_interval and hands the live tail to each new log
// file it finds. Listing failures back off exponentially up to 30 seconds.
//
// # Error Handling
//
// Every goroutine Run starts goes through goSafe. Returned errors and
// recovered panics are logged and recorded with state.Store.ReportFault,
// which the TUI shows in its header and footer. Nothing a single log file
// or screenshot does can stop the process.
package app
