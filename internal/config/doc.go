// Package config loads wrldshot's TOML configuration.
//
// # Configuration Discovery
//
// Load uses the explicit path when one is given and
// ~/.config/wrldshot/config.toml otherwise. A missing file is not an error:
// every field has a default so the tool works without configuration.
//
// # TOML Format
//
//	log_dir = "~/AppData/LocalLow/VRChat/VRChat"
//	log_pattern = "output_log_*.txt"
//	poll_interval = "5s"
//	recent_limit = 5
//	data_dir = "~/.local/share/wrldshot"
//	api_bind = "127.0.0.1:7489"
//	mcp_bind = ""
//	replay_on_start = true
//	follow_latest = true
//
// Empty strings fall back to defaults. api_bind = "off" disables the
// status API and an empty mcp_bind disables the MCP endpoint. Paths accept
// a leading ~ and are made absolute.
//
// # Error Handling
//
// Load returns errors for unreadable files, malformed TOML, an invalid
// log_pattern glob, a non-positive or unparsable poll_interval, and a
// negative recent_limit. All of them mention "parse config" except I/O
// failures.
package config
