// Package ui renders the monitor screen with bubbletea.
//
// # Layout
//
// From top to bottom the screen shows:
//
//   - Header: monitor state badge, current world, watched log file, replay
//     summary and fault count
//   - Recent screenshots: the renamed list of the live session, newest first,
//     with a selectable cursor
//   - Trace: a scrollable viewport of progress messages, hidden with "l"
//   - Footer: the outcome of the last action and key help
//
// # Data Flow
//
// The model never reads files or talks to the monitor. Run subscribes to
// state.Store changes and sends a fresh snapshot into the program after each
// burst of updates, so the tail goroutines never block on rendering.
//
// Actions that leave the process (opening a folder, the world page, the
// clipboard, saving prefs) run as tea.Cmd functions and report back with a
// message shown in the footer.
package ui
